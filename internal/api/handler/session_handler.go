package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/petland/petcare-console/internal/core/ports"
)

// SessionHandler exposes the session store over HTTP.
type SessionHandler struct {
	session ports.SessionService
}

func NewSessionHandler(session ports.SessionService) *SessionHandler {
	return &SessionHandler{session: session}
}

// Get returns the current session snapshot, including while it is loading.
//
// @Summary      Current session
// @Tags         session
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Router       /session [get]
func (h *SessionHandler) Get(c echo.Context) error {
	return c.JSON(http.StatusOK, toSessionResponse(h.session.Snapshot()))
}

// Login signs in with email and password.
//
// @Summary      Login
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      502   {object}  errorResponse
// @Router       /session/login [post]
func (h *SessionHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	if err := h.session.Login(c.Request().Context(), req.Email, req.Password); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSessionResponse(h.session.Snapshot()))
}

// Register creates an account and signs into it.
//
// @Summary      Register
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Account details"
// @Success      201   {object}  sessionResponse
// @Failure      400   {object}  errorResponse
// @Failure      502   {object}  errorResponse
// @Router       /session/register [post]
func (h *SessionHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	if err := h.session.Register(c.Request().Context(), req.toInput()); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toSessionResponse(h.session.Snapshot()))
}

// Logout forgets the principal locally.
//
// @Summary      Logout
// @Tags         session
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Failure      500  {object}  errorResponse
// @Router       /session/logout [post]
func (h *SessionHandler) Logout(c echo.Context) error {
	if err := h.session.Logout(c.Request().Context()); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSessionResponse(h.session.Snapshot()))
}

// UpdateProfile edits the cached principal.
//
// @Summary      Update profile
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      profileRequest  true  "Fields to change"
// @Success      200   {object}  domain.Principal
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /session/profile [patch]
func (h *SessionHandler) UpdateProfile(c echo.Context) error {
	var req profileRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	p, err := h.session.UpdatePrincipal(c.Request().Context(), req.toUpdate())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// ClearError drops the last error message.
//
// @Summary      Clear session error
// @Tags         session
// @Success      204
// @Router       /session/error [delete]
func (h *SessionHandler) ClearError(c echo.Context) error {
	h.session.ClearError()
	return c.NoContent(http.StatusNoContent)
}
