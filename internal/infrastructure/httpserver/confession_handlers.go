package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/avatarctic/anonymous-confessions/internal/core/domain/confession"
)

const successMessage = "Confession posted!"

// submitConfession handles the submission endpoint. Preflight is answered by the CORS
// middleware and the rate limit is applied before this runs, so the order is:
// method, rate limit, parse, validate, render and publish.
func (s *Server) submitConfession(c echo.Context) error {
	if c.Request().Method != http.MethodPost {
		return confession.NewError(confession.KindMethodNotAllowed, "Method Not Allowed", nil)
	}

	text, err := bindText(c)
	if err != nil {
		return err
	}
	if err := confession.ValidateText(text); err != nil {
		return err
	}

	res, err := s.confessions.Submit(c.Request().Context(), text)
	if err != nil {
		return err
	}

	recordSubmission("success")
	return c.JSON(http.StatusOK, confession.SubmitResponse{
		Success: true,
		Message: successMessage,
		StoryID: res.StoryID,
		PostID:  res.PostID,
	})
}

// bindText decodes {"text": string}. An empty body or missing field yields "",
// which then fails length validation.
func bindText(c echo.Context) (string, error) {
	var req confession.SubmitRequest
	err := (&echo.DefaultJSONSerializer{}).Deserialize(c, &req)
	switch {
	case err == nil, errors.Is(err, io.EOF):
	default:
		var he *echo.HTTPError
		if errors.As(err, &he) && he.Code == http.StatusRequestEntityTooLarge {
			return "", normalizeError(err)
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return "", confession.NewError(confession.KindValidation, "Invalid request body: text must be a string", err)
		}
		return "", confession.NewError(confession.KindValidation, "Invalid request body: expected JSON", err)
	}
	if req.Text == nil {
		return "", nil
	}
	return *req.Text, nil
}
