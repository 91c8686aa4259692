package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/petland/petcare-console/internal/core/domain"
	"github.com/petland/petcare-console/internal/core/ports"
	"github.com/petland/petcare-console/internal/core/service"
)

// NavigationHandler serves the sidebar and access checks for the current
// principal.
type NavigationHandler struct {
	session ports.SessionService
}

func NewNavigationHandler(session ports.SessionService) *NavigationHandler {
	return &NavigationHandler{session: session}
}

func (h *NavigationHandler) authorizer(c echo.Context) domain.Authorizer {
	return ctxAuthorizer(c, h.session.Authorizer)
}

// Navigation returns the sidebar entries the principal may see.
//
// @Summary      Sidebar navigation
// @Tags         navigation
// @Produce      json
// @Success      200  {object}  navigationResponse
// @Failure      401  {object}  errorResponse
// @Failure      503  {object}  errorResponse
// @Router       /navigation [get]
func (h *NavigationHandler) Navigation(c echo.Context) error {
	a := h.authorizer(c)
	p := a.Principal()
	if p == nil {
		return domain.ErrNotAuthenticated
	}

	nav := service.BuildNavigation(a)
	return c.JSON(http.StatusOK, navigationResponse{
		Title: nav.Title,
		User: navUser{
			DisplayName: p.DisplayName(),
			Email:       p.Email,
			Role:        string(p.Role),
			RoleLabel:   p.Role.Label(),
		},
		Entries: nav.Entries,
	})
}

// Routes lists every dashboard route with the principal's access to it.
//
// @Summary      Route access table
// @Tags         access
// @Produce      json
// @Success      200  {array}   routeAccessResponse
// @Failure      401  {object}  errorResponse
// @Router       /access/routes [get]
func (h *NavigationHandler) Routes(c echo.Context) error {
	a := h.authorizer(c)
	available := a.AvailableRoutes()
	out := make([]routeAccessResponse, 0, len(domain.AllRoutes))
	for _, key := range domain.AllRoutes {
		out = append(out, routeAccessResponse{Route: string(key), Allowed: available[key]})
	}
	return c.JSON(http.StatusOK, out)
}

// Route reports whether the principal may open one route. Unknown keys are
// answered with allowed=false rather than 404.
//
// @Summary      Check route access
// @Tags         access
// @Produce      json
// @Param        route  path      string  true  "Route key"
// @Success      200    {object}  routeAccessResponse
// @Failure      401    {object}  errorResponse
// @Router       /access/routes/{route} [get]
func (h *NavigationHandler) Route(c echo.Context) error {
	key := c.Param("route")
	return c.JSON(http.StatusOK, routeAccessResponse{
		Route:   key,
		Allowed: h.authorizer(c).HasRouteAccessKey(key),
	})
}

// Permission reports whether the principal holds a permission token.
//
// @Summary      Check permission
// @Tags         access
// @Produce      json
// @Param        permission  path      string  true  "Permission token, e.g. read_pet"
// @Success      200         {object}  permissionResponse
// @Failure      401         {object}  errorResponse
// @Router       /access/permissions/{permission} [get]
func (h *NavigationHandler) Permission(c echo.Context) error {
	token := c.Param("permission")
	return c.JSON(http.StatusOK, permissionResponse{
		Permission: token,
		Allowed:    h.authorizer(c).HasPermissionToken(token),
	})
}
