package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/tablehub/backend/internal/api/handler"
	"github.com/tablehub/backend/internal/core/domain"
)

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps domain errors to their HTTP status codes.
//   - Logs server-side failures with the real cause.
//   - Renders the same envelope as successful responses with status "error".
//
// When exposeDetail is set the message of a 5xx cause is echoed in
// errors.detail.
func NewHTTPErrorHandler(log zerolog.Logger, exposeDetail bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := resolveError(err, exposeDetail)
		if code >= http.StatusInternalServerError {
			log.Error().
				Err(err).
				Str("method", c.Request().Method).
				Str("path", c.Path()).
				Msg("request failed")
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, body)
	}
}

func resolveError(err error, exposeDetail bool) (int, handler.Envelope) {
	env := handler.Envelope{Status: handler.StatusError}

	// Echo's own errors (bind failures, 404 from router, middleware rejections).
	var he *echo.HTTPError
	if errors.As(err, &he) {
		env.Message = fmt.Sprintf("%v", he.Message)
		return he.Code, env
	}

	var verr *domain.ValidationError
	var ferr *domain.FilterError
	switch {
	case errors.Is(err, domain.ErrUnknownEntity):
		env.Message = "Invalid table name"
		return http.StatusBadRequest, env
	case errors.As(err, &ferr):
		env.Message = "Invalid filter parameters"
		env.Errors = map[string]string{ferr.Key: ferr.Reason}
		return http.StatusBadRequest, env
	case errors.Is(err, domain.ErrInvalidFilter):
		env.Message = "Invalid filter parameters"
		return http.StatusBadRequest, env
	case errors.As(err, &verr):
		env.Message = "Validation failed"
		env.Errors = verr.Fields
		return http.StatusBadRequest, env
	case errors.Is(err, domain.ErrValidationFailed):
		env.Message = "Validation failed"
		return http.StatusBadRequest, env
	case errors.Is(err, domain.ErrPermissionDenied):
		env.Message = "Permission denied"
		return http.StatusForbidden, env
	case errors.Is(err, domain.ErrNotFound):
		env.Message = "Not found"
		return http.StatusNotFound, env
	case errors.Is(err, domain.ErrInvalidCredentials):
		env.Message = "Invalid credentials"
		return http.StatusUnauthorized, env
	case errors.Is(err, domain.ErrIDGenerationExhausted):
		env.Message = "Could not allocate an identifier"
	default:
		env.Message = "Internal server error"
	}

	if exposeDetail {
		env.Errors = map[string]string{"detail": err.Error()}
	}
	return http.StatusInternalServerError, env
}
