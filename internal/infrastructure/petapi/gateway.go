package petapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/petland/petcare-console/internal/core/domain"
	"github.com/petland/petcare-console/internal/core/ports"
)

// resourcePaths maps each proxied collection onto its API path.
var resourcePaths = map[domain.Resource]string{
	domain.ResourceUsers:          "/users",
	domain.ResourceEmployees:      "/employees",
	domain.ResourcePets:           "/pets",
	domain.ResourceServices:       "/services",
	domain.ResourceReservations:   "/reservations",
	domain.ResourceMedicalHistory: "/medicalhistory",
	domain.ResourceInvoices:       "/invoice",
	domain.ResourcePayments:       "/payment",
	domain.ResourceActivityLogs:   "/activitylogs",
}

// Gateway implements ports.ResourceGateway with the session's bearer token.
// A 401 from any call ends the session through the token source.
type Gateway struct {
	c      *Client
	tokens ports.TokenSource
}

var _ ports.ResourceGateway = (*Gateway)(nil)

func NewGateway(c *Client, tokens ports.TokenSource) *Gateway {
	return &Gateway{c: c, tokens: tokens}
}

func (g *Gateway) List(ctx context.Context, res domain.Resource) (json.RawMessage, error) {
	var out json.RawMessage
	err := g.send(ctx, res, http.MethodGet, "", nil, &out)
	return out, err
}

func (g *Gateway) Get(ctx context.Context, res domain.Resource, id string) (json.RawMessage, error) {
	var out json.RawMessage
	err := g.send(ctx, res, http.MethodGet, id, nil, &out)
	return out, err
}

func (g *Gateway) Create(ctx context.Context, res domain.Resource, body json.RawMessage) (json.RawMessage, error) {
	var out json.RawMessage
	err := g.send(ctx, res, http.MethodPost, "", body, &out)
	return out, err
}

func (g *Gateway) Update(ctx context.Context, res domain.Resource, id string, body json.RawMessage) (json.RawMessage, error) {
	var out json.RawMessage
	err := g.send(ctx, res, http.MethodPut, id, body, &out)
	return out, err
}

func (g *Gateway) Delete(ctx context.Context, res domain.Resource, id string) error {
	return g.send(ctx, res, http.MethodDelete, id, nil, nil)
}

func (g *Gateway) send(ctx context.Context, res domain.Resource, method, id string, body json.RawMessage, out any) error {
	base, ok := resourcePaths[res]
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrUnknownResource, res)
	}
	token := g.tokens.Token()
	if token == "" {
		return &domain.APIError{
			Kind:    domain.KindUnauthenticated,
			Status:  http.StatusUnauthorized,
			Message: domain.MsgUnauthenticated,
			Err:     domain.ErrNotAuthenticated,
		}
	}

	c := call{method: method, endpoint: base, path: base, token: token}
	if id != "" {
		c.endpoint = base + "/:id"
		c.path = base + "/" + url.PathEscape(id)
	}
	if body != nil {
		c.body = body
	}

	err := g.c.do(ctx, c, out)
	var apiErr *domain.APIError
	if errors.As(err, &apiErr) && apiErr.Kind == domain.KindUnauthenticated {
		g.tokens.HandleUnauthorized(ctx, token)
		return &domain.APIError{
			Kind:    domain.KindUnauthenticated,
			Status:  apiErr.Status,
			Message: domain.MsgUnauthenticated,
			Err:     domain.ErrSessionExpired,
		}
	}
	return err
}
