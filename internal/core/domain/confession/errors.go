package confession

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures of the submission pipeline
type ErrorKind string

const (
	KindValidation       ErrorKind = "validation"
	KindRateLimited      ErrorKind = "rate_limited"
	KindMethodNotAllowed ErrorKind = "method_not_allowed"
	KindTimeout          ErrorKind = "timeout"
	KindRender           ErrorKind = "render"
	KindPublish          ErrorKind = "publish"
	KindInternal         ErrorKind = "internal"
)

// ErrSessionInvalid marks platform errors meaning the stored session is no longer accepted.
var ErrSessionInvalid = errors.New("platform session is no longer valid")

// Error is the tagged error returned by every pipeline stage.
// Detail carries the raw platform response when the failure came from the publisher.
type Error struct {
	Kind    ErrorKind
	Message string
	Detail  any
	Err     error
}

func NewError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// WithDetail attaches the platform response payload.
func (e *Error) WithDetail(detail any) *Error {
	e.Detail = detail
	return e
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) ErrorKind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}
