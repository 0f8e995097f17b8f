package api

import (
	"errors"
	"net/http"

	"github.com/ikoiii/booking-futsal/internal/database"
	"github.com/ikoiii/booking-futsal/internal/domain"

	"github.com/labstack/echo/v4"
)

type envelope struct {
	Success bool              `json:"success"`
	Data    interface{}       `json:"data,omitempty"`
	Message string            `json:"message,omitempty"`
	Error   string            `json:"error,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

type pageMeta struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

func respondOK(c echo.Context, code int, data interface{}, message string) error {
	return c.JSON(code, envelope{Success: true, Data: data, Message: message})
}

func respondFail(c echo.Context, code int, message string) error {
	return c.JSON(code, envelope{Success: false, Error: message})
}

// statusFor maps an error to its HTTP status and the message shown to clients.
// Anything unrecognised is a 500 with a generic message.
func statusFor(err error) (int, string) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Message
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrCancellationWindow),
		errors.Is(err, database.ErrLapanganInactive):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, database.ErrConflict),
		errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict, err.Error()
	case errors.Is(err, domain.ErrTooManyAttempts):
		return http.StatusTooManyRequests, err.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// respondError writes the error envelope for err. Server errors are logged
// with the request id and never exposed.
func (s *HTTPServer) respondError(c echo.Context, err error) error {
	code, msg := statusFor(err)
	if code == http.StatusInternalServerError {
		s.logger.Error().
			Err(err).
			Str("request_id", requestIDFrom(c)).
			Str("route", c.Path()).
			Msg("request failed")
	}

	body := envelope{Success: false, Error: msg}
	var verr *domain.ValidationError
	if errors.As(err, &verr) && len(verr.Fields) > 0 {
		body.Details = verr.Fields
	}
	return c.JSON(code, body)
}
