package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/petland/petcare-console/internal/core/domain"
)

// LoginPath is where clients are sent when the session is gone.
const LoginPath = "/login"

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error    string `json:"error"`
	Redirect string `json:"redirect,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps session sentinels and remote API failures to HTTP status codes.
//   - Sends clients back to the login screen when the session expired.
//   - Logs unexpected errors without leaking details to the client.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := resolveError(err, log, c)
		if code == http.StatusServiceUnavailable {
			c.Response().Header().Set("Retry-After", "1")
		}
		_ = c.JSON(code, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{Error: fmt.Sprintf("%v", he.Message)}
	}

	switch {
	case errors.Is(err, domain.ErrSessionExpired):
		return http.StatusUnauthorized, errorResponse{Error: domain.MsgUnauthenticated, Redirect: LoginPath}
	case errors.Is(err, domain.ErrNotAuthenticated):
		return http.StatusUnauthorized, errorResponse{Error: "authentication required", Redirect: LoginPath}
	case errors.Is(err, domain.ErrSessionLoading):
		return http.StatusServiceUnavailable, errorResponse{Error: "session is still loading"}
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, errorResponse{Error: domain.MsgForbidden}
	case errors.Is(err, domain.ErrUnknownResource):
		return http.StatusNotFound, errorResponse{Error: "unknown resource"}
	case errors.Is(err, domain.ErrInvalidProfile):
		return http.StatusBadRequest, errorResponse{Error: err.Error()}
	case errors.Is(err, domain.ErrSessionDisposed):
		return http.StatusServiceUnavailable, errorResponse{Error: "shutting down"}
	}

	var apiErr *domain.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Kind {
		case domain.KindUnauthenticated:
			return http.StatusUnauthorized, errorResponse{Error: apiErr.Message}
		case domain.KindForbidden:
			return http.StatusForbidden, errorResponse{Error: apiErr.Message}
		case domain.KindValidation:
			status := apiErr.Status
			if status < 400 || status > 499 {
				status = http.StatusBadRequest
			}
			return status, errorResponse{Error: apiErr.Message}
		default:
			log.Warn().
				Err(err).
				Str("kind", apiErr.Kind.String()).
				Str("method", c.Request().Method).
				Str("path", c.Path()).
				Msg("upstream failure")
			return http.StatusBadGateway, errorResponse{Error: apiErr.Message}
		}
	}

	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{Error: "internal server error"}
}
