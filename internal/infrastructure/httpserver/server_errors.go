package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/anonymous-confessions/internal/core/domain/confession"
)

// errorBody is the JSON shape of every failed response. Message is set only for 5xx.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// errorResponse maps an error to the status and body sent to the caller.
// Only short messages leave the process; causes and platform detail are logged.
func errorResponse(err error) (int, errorBody) {
	var ce *confession.Error
	if errors.As(err, &ce) {
		switch ce.Kind {
		case confession.KindValidation:
			return http.StatusBadRequest, errorBody{Error: ce.Message}
		case confession.KindRateLimited:
			return http.StatusTooManyRequests, errorBody{Error: ce.Message}
		case confession.KindMethodNotAllowed:
			return http.StatusMethodNotAllowed, errorBody{Error: "Method Not Allowed"}
		case confession.KindTimeout:
			return http.StatusInternalServerError, errorBody{Error: "Request timed out", Message: "Publishing took too long. Please try again."}
		default:
			return http.StatusInternalServerError, errorBody{Error: "Internal server error", Message: ce.Message}
		}
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		switch {
		case he.Code == http.StatusMethodNotAllowed:
			return he.Code, errorBody{Error: "Method Not Allowed"}
		case he.Code >= http.StatusInternalServerError:
			return he.Code, errorBody{Error: "Internal server error", Message: http.StatusText(he.Code)}
		default:
			return he.Code, errorBody{Error: http.StatusText(he.Code)}
		}
	}

	return http.StatusInternalServerError, errorBody{Error: "Internal server error", Message: "Something went wrong. Please try again."}
}

// normalizeError folds transport rejections that mean "text too long" into the
// length validation error, so an oversized body gets the same 400 as a long text.
func normalizeError(err error) error {
	var he *echo.HTTPError
	if errors.As(err, &he) && he.Code == http.StatusRequestEntityTooLarge {
		return confession.NewError(confession.KindValidation, confession.InvalidLengthMessage, err)
	}
	return err
}

func (s *Server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	err = normalizeError(err)
	status, body := errorResponse(err)

	var ce *confession.Error
	if errors.As(err, &ce) {
		recordSubmission(string(ce.Kind))
	}

	if s.logger != nil {
		entry := s.logger.WithError(err).WithFields(logrus.Fields{
			"status":     status,
			"method":     c.Request().Method,
			"path":       c.Path(),
			"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
		})
		if ce != nil {
			entry = entry.WithField("kind", ce.Kind)
			if ce.Detail != nil {
				entry = entry.WithField("platform_response", ce.Detail)
			}
		}
		if status >= http.StatusInternalServerError {
			entry.Error("request failed")
		} else {
			entry.Info("request rejected")
		}
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil && s.logger != nil {
		s.logger.WithError(err).Error("failed to write error response")
	}
}
