package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/petland/petcare-console/internal/core/domain"
	"github.com/petland/petcare-console/internal/pkg/metrics"
)

// Context keys set by RequireSession.
const (
	AuthorizerKey = "authorizer"
	PrincipalKey  = "principal"
)

// loginPath mirrors api.LoginPath; middleware cannot import its parent.
const loginPath = "/login"

// SessionReader is the part of the session service the guards need.
type SessionReader interface {
	Snapshot() domain.Session
}

type denial struct {
	Error    string `json:"error"`
	Redirect string `json:"redirect,omitempty"`
}

// RequireSession only lets requests through once a principal is held. While
// the persisted session is still being restored it answers 503 with
// Retry-After; without a session it answers 401 and points to the login
// screen. On success the authorizer snapshot is stored in the context so all
// later guards of the request see the same principal.
func RequireSession(session SessionReader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			snap := session.Snapshot()
			switch snap.State {
			case domain.StateLoading:
				c.Response().Header().Set("Retry-After", "1")
				return c.JSON(http.StatusServiceUnavailable, denial{Error: "session is still loading"})
			case domain.StateAuthenticated:
				if snap.Principal != nil {
					c.Set(AuthorizerKey, snap.Authorizer())
					c.Set(PrincipalKey, snap.Principal)
					return next(c)
				}
			}
			metrics.AccessDeniedTotal.WithLabelValues("session").Inc()
			return c.JSON(http.StatusUnauthorized, denial{Error: "authentication required", Redirect: loginPath})
		}
	}
}

// AuthorizerFrom returns the snapshot stored by RequireSession. Without one
// the zero Authorizer is returned, which denies everything.
func AuthorizerFrom(c echo.Context) domain.Authorizer {
	a, _ := c.Get(AuthorizerKey).(domain.Authorizer)
	return a
}
