package confession

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	MinTextLength = 10
	MaxTextLength = 500

	// InvalidLengthMessage is returned for text outside [MinTextLength, MaxTextLength].
	InvalidLengthMessage = "Invalid text length (10-500 chars required)"

	// UnknownIdentity is the rate limiter key used when no client address can be derived.
	UnknownIdentity = "unknown"
)

// SubmitRequest represents the body of a confession submission
type SubmitRequest struct {
	Text *string `json:"text"`
}

// SubmitResponse is returned after both artifacts were published
type SubmitResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	StoryID string `json:"storyId"`
	PostID  string `json:"postId"`
}

// RenderedImage is a temporary image produced for a single publish attempt.
// The file at Path must not outlive the request that created it.
type RenderedImage struct {
	ID   uuid.UUID
	Path string
}

// PublishResult holds the identifiers the platform assigned to the published artifacts
type PublishResult struct {
	StoryID string `json:"storyId"`
	PostID  string `json:"postId"`
}

// StoryPrompt is the interactive question sticker attached to a story
type StoryPrompt struct {
	Question          string
	AllowAnswers      bool
	AllowNewQuestions bool
}

// DefaultStoryPrompt returns the emoji reaction prompt attached to every story.
func DefaultStoryPrompt(question string) StoryPrompt {
	if question == "" {
		question = "React with an emoji 👇"
	}
	return StoryPrompt{
		Question:          question,
		AllowAnswers:      true,
		AllowNewQuestions: false,
	}
}

// TextLength counts characters, not bytes, so multi-byte text is measured the way users see it.
func TextLength(text string) int {
	return utf8.RuneCountInString(text)
}

// ValidateText checks the confession length bounds.
func ValidateText(text string) error {
	n := TextLength(text)
	if n < MinTextLength || n > MaxTextLength {
		return NewError(KindValidation, InvalidLengthMessage, nil)
	}
	return nil
}

// Caption builds the feed post caption from the confession and hashtags.
func Caption(text string, hashtags []string) string {
	tags := make([]string, 0, len(hashtags))
	for _, h := range hashtags {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		if !strings.HasPrefix(h, "#") {
			h = "#" + h
		}
		tags = append(tags, h)
	}
	if len(tags) == 0 {
		return text
	}
	return text + "\n\n" + strings.Join(tags, " ")
}
