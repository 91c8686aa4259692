package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/petland/petcare-console/internal/core/domain"
	"github.com/petland/petcare-console/internal/core/ports"
)

// maxBodyBytes caps proxied request bodies.
const maxBodyBytes = 1 << 20

// ResourceHandler proxies CRUD calls to the PetLand API. Access is decided by
// middleware.RequireResourceAccess before these run.
type ResourceHandler struct {
	gateway ports.ResourceGateway
}

func NewResourceHandler(gateway ports.ResourceGateway) *ResourceHandler {
	return &ResourceHandler{gateway: gateway}
}

func resourceParam(c echo.Context) (domain.Resource, error) {
	res, ok := domain.ParseResource(c.Param("resource"))
	if !ok {
		return "", domain.ErrUnknownResource
	}
	return res, nil
}

func readJSONBody(c echo.Context) (json.RawMessage, error) {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxBodyBytes+1))
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if len(body) > maxBodyBytes {
		return nil, echo.NewHTTPError(http.StatusRequestEntityTooLarge, "payload too large")
	}
	if !json.Valid(body) {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	return body, nil
}

func rawJSON(c echo.Context, status int, body json.RawMessage) error {
	if len(body) == 0 {
		return c.NoContent(status)
	}
	return c.JSONBlob(status, body)
}

// List returns a collection.
//
// @Summary      List resources
// @Tags         resources
// @Produce      json
// @Param        resource  path      string  true  "Collection, e.g. pets"
// @Success      200       {array}   object
// @Failure      401       {object}  errorResponse
// @Failure      403       {object}  errorResponse
// @Failure      404       {object}  errorResponse
// @Failure      502       {object}  errorResponse
// @Router       /api/{resource} [get]
func (h *ResourceHandler) List(c echo.Context) error {
	res, err := resourceParam(c)
	if err != nil {
		return err
	}
	body, err := h.gateway.List(c.Request().Context(), res)
	if err != nil {
		return err
	}
	return rawJSON(c, http.StatusOK, body)
}

// Get returns one record.
//
// @Summary      Get resource
// @Tags         resources
// @Produce      json
// @Param        resource  path      string  true  "Collection, e.g. pets"
// @Param        id        path      string  true  "Record ID"
// @Success      200       {object}  object
// @Failure      401       {object}  errorResponse
// @Failure      403       {object}  errorResponse
// @Failure      404       {object}  errorResponse
// @Router       /api/{resource}/{id} [get]
func (h *ResourceHandler) Get(c echo.Context) error {
	res, err := resourceParam(c)
	if err != nil {
		return err
	}
	body, err := h.gateway.Get(c.Request().Context(), res, c.Param("id"))
	if err != nil {
		return err
	}
	return rawJSON(c, http.StatusOK, body)
}

// Create adds a record.
//
// @Summary      Create resource
// @Tags         resources
// @Accept       json
// @Produce      json
// @Param        resource  path      string  true  "Collection, e.g. pets"
// @Param        body      body      object  true  "Record"
// @Success      201       {object}  object
// @Failure      400       {object}  errorResponse
// @Failure      401       {object}  errorResponse
// @Failure      403       {object}  errorResponse
// @Router       /api/{resource} [post]
func (h *ResourceHandler) Create(c echo.Context) error {
	res, err := resourceParam(c)
	if err != nil {
		return err
	}
	in, err := readJSONBody(c)
	if err != nil {
		return err
	}
	body, err := h.gateway.Create(c.Request().Context(), res, in)
	if err != nil {
		return err
	}
	return rawJSON(c, http.StatusCreated, body)
}

// Update replaces a record.
//
// @Summary      Update resource
// @Tags         resources
// @Accept       json
// @Produce      json
// @Param        resource  path      string  true  "Collection, e.g. pets"
// @Param        id        path      string  true  "Record ID"
// @Param        body      body      object  true  "Record"
// @Success      200       {object}  object
// @Failure      400       {object}  errorResponse
// @Failure      401       {object}  errorResponse
// @Failure      403       {object}  errorResponse
// @Router       /api/{resource}/{id} [put]
func (h *ResourceHandler) Update(c echo.Context) error {
	res, err := resourceParam(c)
	if err != nil {
		return err
	}
	in, err := readJSONBody(c)
	if err != nil {
		return err
	}
	body, err := h.gateway.Update(c.Request().Context(), res, c.Param("id"), in)
	if err != nil {
		return err
	}
	return rawJSON(c, http.StatusOK, body)
}

// Delete removes a record.
//
// @Summary      Delete resource
// @Tags         resources
// @Param        resource  path  string  true  "Collection, e.g. pets"
// @Param        id        path  string  true  "Record ID"
// @Success      204
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /api/{resource}/{id} [delete]
func (h *ResourceHandler) Delete(c echo.Context) error {
	res, err := resourceParam(c)
	if err != nil {
		return err
	}
	if err := h.gateway.Delete(c.Request().Context(), res, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
