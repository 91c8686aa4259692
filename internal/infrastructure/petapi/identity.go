package petapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/petland/petcare-console/internal/core/domain"
	"github.com/petland/petcare-console/internal/core/ports"
)

// Identity implements ports.IdentityService against /auth.
type Identity struct {
	c *Client
}

var _ ports.IdentityService = (*Identity)(nil)

func NewIdentity(c *Client) *Identity {
	return &Identity{c: c}
}

// tokenResponse accepts both {"token", "user"} and the bare FastAPI
// {"access_token", "token_type"} shape.
type tokenResponse struct {
	Token       string          `json:"token"`
	AccessToken string          `json:"access_token"`
	User        json.RawMessage `json:"user"`
}

func (i *Identity) Login(ctx context.Context, creds ports.Credentials) (*ports.AuthResult, error) {
	var resp tokenResponse
	err := i.c.do(ctx, call{method: http.MethodPost, endpoint: "/auth/login", path: "/auth/login", body: creds}, &resp)
	if err != nil {
		return nil, err
	}
	return i.complete(ctx, resp)
}

func (i *Identity) Register(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	var resp tokenResponse
	err := i.c.do(ctx, call{method: http.MethodPost, endpoint: "/auth/register", path: "/auth/register", body: in}, &resp)
	if err != nil {
		return nil, err
	}
	return i.complete(ctx, resp)
}

// Me resolves the principal behind token.
func (i *Identity) Me(ctx context.Context, token string) (*domain.Principal, error) {
	var raw json.RawMessage
	err := i.c.do(ctx, call{method: http.MethodGet, endpoint: "/auth/me", path: "/auth/me", token: token}, &raw)
	if err != nil {
		return nil, err
	}

	var wrapped struct {
		User json.RawMessage `json:"user"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && isObject(wrapped.User) {
		raw = wrapped.User
	}
	return i.decodeUser(raw)
}

// complete fills in the principal with /auth/me when the token response
// did not carry one.
func (i *Identity) complete(ctx context.Context, resp tokenResponse) (*ports.AuthResult, error) {
	token := resp.Token
	if token == "" {
		token = resp.AccessToken
	}
	if token == "" {
		return nil, &domain.APIError{Kind: domain.KindServer, Message: domain.MsgServer, Err: fmt.Errorf("token response without token")}
	}

	var (
		p   *domain.Principal
		err error
	)
	if isObject(resp.User) {
		p, err = i.decodeUser(resp.User)
	} else {
		p, err = i.Me(ctx, token)
	}
	if err != nil {
		return nil, err
	}
	return &ports.AuthResult{Token: token, Principal: p}, nil
}

type wireUser struct {
	ID          flexString `json:"id"`
	UserID      flexString `json:"user_id"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Email       string     `json:"email"`
	Role        string     `json:"role"`
	Permissions []string   `json:"permissions"`
	Specialty   string     `json:"specialty"`
	PhoneNumber flexString `json:"phone_number"`
	Address     string     `json:"address"`
}

func (i *Identity) decodeUser(raw json.RawMessage) (*domain.Principal, error) {
	var u wireUser
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, &domain.APIError{Kind: domain.KindServer, Message: domain.MsgServer, Err: fmt.Errorf("decode user: %w", err)}
	}

	role, ok := domain.ParseRole(u.Role)
	if !ok {
		return nil, &domain.APIError{Kind: domain.KindServer, Message: domain.MsgServer, Err: fmt.Errorf("unsupported role %q", u.Role)}
	}
	id := string(u.ID)
	if id == "" {
		id = string(u.UserID)
	}
	if id == "" || u.Email == "" {
		return nil, &domain.APIError{Kind: domain.KindServer, Message: domain.MsgServer, Err: fmt.Errorf("user without id or email")}
	}

	p := domain.NewPrincipal(id, u.Email, role)
	p.FirstName = u.FirstName
	p.LastName = u.LastName
	p.Specialty = u.Specialty
	p.Address = u.Address
	if u.PhoneNumber != "" {
		if n, err := strconv.ParseInt(string(u.PhoneNumber), 10, 64); err == nil {
			p.PhoneNumber = n
		}
	}
	for _, tok := range u.Permissions {
		perm, ok := domain.ParsePermission(tok)
		if !ok {
			i.c.log.Warn().Str("permission", tok).Str("user_id", id).Msg("ignoring unknown permission")
			continue
		}
		p.Permissions.Add(perm)
	}
	return p, nil
}

// flexString decodes a JSON string or number into its textual form.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*f = flexString(n.String())
	return nil
}

func isObject(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}
