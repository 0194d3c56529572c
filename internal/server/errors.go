package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/keagan/clipdeck/internal/clips"
	"github.com/keagan/clipdeck/internal/processor"
	"github.com/keagan/clipdeck/internal/timeline"
)

var (
	errSessionNotFound = errors.New("session not found")
	errBadRequest      = errors.New("bad request")
)

// statusFor maps domain errors onto HTTP status codes
func statusFor(err error) int {
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		return he.Code
	case errors.Is(err, clips.ErrNotFound),
		errors.Is(err, processor.ErrJobNotFound),
		errors.Is(err, errSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, timeline.ErrInvalidInput),
		errors.Is(err, timeline.ErrOutOfRange),
		errors.Is(err, timeline.ErrIllegalCommit):
		return http.StatusUnprocessableEntity
	case errors.Is(err, processor.ErrInvalidRequest),
		errors.Is(err, processor.ErrUnsupported),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := statusFor(err)
	msg := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if m, ok := he.Message.(string); ok {
			msg = m
		} else {
			msg = http.StatusText(he.Code)
		}
	}

	if code >= http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("uri", c.Request().RequestURI).Msg("request failed")
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, map[string]string{"error": msg})
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("writing error response")
	}
}
