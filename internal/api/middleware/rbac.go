package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/petland/petcare-console/internal/core/domain"
	"github.com/petland/petcare-console/internal/pkg/metrics"
)

// guard builds a middleware that consults the request's authorizer. Requests
// that never passed RequireSession get the zero authorizer and are refused.
func guard(name string, allow func(c echo.Context, a domain.Authorizer) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			a := AuthorizerFrom(c)
			if !a.Authenticated() {
				metrics.AccessDeniedTotal.WithLabelValues(name).Inc()
				return c.JSON(http.StatusUnauthorized, denial{Error: "authentication required", Redirect: loginPath})
			}
			if !allow(c, a) {
				metrics.AccessDeniedTotal.WithLabelValues(name).Inc()
				return c.JSON(http.StatusForbidden, denial{Error: domain.MsgForbidden})
			}
			return next(c)
		}
	}
}

// RequireRole enforces role-based access control.
func RequireRole(roles ...domain.Role) echo.MiddlewareFunc {
	return guard("role", func(_ echo.Context, a domain.Authorizer) bool {
		return a.HasRole(roles...)
	})
}

// RequireRoute admits principals that may open the given dashboard route.
func RequireRoute(key domain.RouteKey) echo.MiddlewareFunc {
	return guard("route", func(_ echo.Context, a domain.Authorizer) bool {
		return a.HasRouteAccess(key)
	})
}

// RequirePermission admits principals holding every listed permission.
func RequirePermission(perms ...domain.Permission) echo.MiddlewareFunc {
	return guard("permission", func(_ echo.Context, a domain.Authorizer) bool {
		return a.HasAllPermissions(perms...)
	})
}

// methodActions maps HTTP verbs onto CRUD actions.
var methodActions = map[string]domain.Action{
	http.MethodGet:    domain.ActionRead,
	http.MethodHead:   domain.ActionRead,
	http.MethodPost:   domain.ActionCreate,
	http.MethodPut:    domain.ActionUpdate,
	http.MethodPatch:  domain.ActionUpdate,
	http.MethodDelete: domain.ActionDelete,
}

// RequireResourceAccess guards the CRUD proxy: the :resource path parameter
// and the request method pick the permission. Unknown resources are 404.
func RequireResourceAccess() echo.MiddlewareFunc {
	check := guard("resource", func(c echo.Context, a domain.Authorizer) bool {
		res, _ := domain.ParseResource(c.Param("resource"))
		action, ok := methodActions[c.Request().Method]
		return ok && a.CanAccessResource(res, action)
	})
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		guarded := check(next)
		return func(c echo.Context) error {
			if _, ok := domain.ParseResource(c.Param("resource")); !ok {
				return c.JSON(http.StatusNotFound, denial{Error: "unknown resource"})
			}
			return guarded(c)
		}
	}
}
