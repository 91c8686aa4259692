package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/petland/petcare-console/internal/api/middleware"
	"github.com/petland/petcare-console/internal/core/domain"
)

// ctxAuthorizer returns the authorizer RequireSession stored for this
// request, falling back to a fresh snapshot of the session when the route is
// not behind the middleware.
func ctxAuthorizer(c echo.Context, fallback func() domain.Authorizer) domain.Authorizer {
	if a := middleware.AuthorizerFrom(c); a.Authenticated() {
		return a
	}
	return fallback()
}
