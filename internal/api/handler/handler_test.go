package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/petland/petcare-console/internal/core/domain"
	"github.com/petland/petcare-console/internal/core/ports"
)

type stubSession struct {
	snap       domain.Session
	loginFn    func(ctx context.Context, email, password string) error
	registerFn func(ctx context.Context, in ports.RegisterInput) error
	logoutFn   func(ctx context.Context) error
	updateFn   func(ctx context.Context, upd domain.ProfileUpdate) (*domain.Principal, error)
	cleared    bool
}

func (s *stubSession) Token() string                              { return "" }
func (s *stubSession) HandleUnauthorized(context.Context, string) {}
func (s *stubSession) Init(context.Context) error                 { return nil }
func (s *stubSession) Dispose()                                   {}
func (s *stubSession) RestoreSession(context.Context) error       { return nil }
func (s *stubSession) Snapshot() domain.Session                   { return s.snap }
func (s *stubSession) Authorizer() domain.Authorizer              { return s.snap.Authorizer() }

func (s *stubSession) ClearError() {
	s.cleared = true
	s.snap.Error = ""
}

func (s *stubSession) Login(ctx context.Context, email, password string) error {
	return s.loginFn(ctx, email, password)
}

func (s *stubSession) Register(ctx context.Context, in ports.RegisterInput) error {
	return s.registerFn(ctx, in)
}

func (s *stubSession) Logout(ctx context.Context) error {
	return s.logoutFn(ctx)
}

func (s *stubSession) UpdatePrincipal(ctx context.Context, upd domain.ProfileUpdate) (*domain.Principal, error) {
	return s.updateFn(ctx, upd)
}

func (s *stubSession) Subscribe(func(domain.SessionEvent)) func() { return func() {} }

func signedIn(role domain.Role) *stubSession {
	p := domain.NewPrincipal("42", "ana@petland.test", role)
	p.FirstName, p.LastName = "Ana", "Ruiz"
	return &stubSession{snap: domain.Session{State: domain.StateAuthenticated, Principal: p}}
}

func newContext(method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
	}
}

func TestSessionHandler_Get_Loading(t *testing.T) {
	h := NewSessionHandler(&stubSession{snap: domain.Session{State: domain.StateLoading}})
	c, rec := newContext(http.MethodGet, "/session", "")

	if err := h.Get(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp sessionResponse
	decode(t, rec, &resp)
	if resp.State != "loading" || resp.Principal != nil {
		t.Fatalf("unexpected snapshot: %+v", resp)
	}
}

func TestSessionHandler_Login_Success(t *testing.T) {
	stub := &stubSession{snap: domain.Session{State: domain.StateUnauthenticated}}
	stub.loginFn = func(_ context.Context, email, password string) error {
		if email != "ana@petland.test" || password != "secret" {
			t.Fatalf("unexpected args: %s %s", email, password)
		}
		stub.snap = signedIn(domain.RoleUser).snap
		return nil
	}
	h := NewSessionHandler(stub)
	c, rec := newContext(http.MethodPost, "/session/login", `{"email":"ana@petland.test","password":"secret"}`)

	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp sessionResponse
	decode(t, rec, &resp)
	if resp.State != "authenticated" || resp.Principal == nil || resp.Principal.ID != "42" {
		t.Fatalf("unexpected snapshot: %+v", resp)
	}
}

func TestSessionHandler_Login_Validation(t *testing.T) {
	h := NewSessionHandler(&stubSession{loginFn: func(context.Context, string, string) error {
		t.Fatalf("service must not be called")
		return nil
	}})
	c, rec := newContext(http.MethodPost, "/session/login", `{"email":"not-an-email"}`)

	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var resp errorResponse
	decode(t, rec, &resp)
	if !strings.Contains(resp.Error, "email must be a valid email") || !strings.Contains(resp.Error, "password is required") {
		t.Fatalf("unexpected message: %q", resp.Error)
	}
}

func TestSessionHandler_Login_ServiceErrorIsReturned(t *testing.T) {
	apiErr := &domain.APIError{Kind: domain.KindUnauthenticated, Status: 401, Message: "Incorrect email or password"}
	h := NewSessionHandler(&stubSession{loginFn: func(context.Context, string, string) error { return apiErr }})
	c, _ := newContext(http.MethodPost, "/session/login", `{"email":"ana@petland.test","password":"bad"}`)

	err := h.Login(c)
	var got *domain.APIError
	if !errors.As(err, &got) || got.Message != "Incorrect email or password" {
		t.Fatalf("expected the API error to reach the error handler, got %v", err)
	}
}

func TestSessionHandler_Register(t *testing.T) {
	stub := &stubSession{}
	stub.registerFn = func(_ context.Context, in ports.RegisterInput) error {
		if in.FirstName != "Ana" || in.PhoneNumber != 5551234 || in.Address != "Calle 1" {
			t.Fatalf("unexpected input: %+v", in)
		}
		stub.snap = signedIn(domain.RoleUser).snap
		return nil
	}
	h := NewSessionHandler(stub)
	body := `{"email":"ana@petland.test","password":"secret1","first_name":"Ana","last_name":"Ruiz","phone_number":5551234,"address":"Calle 1"}`
	c, rec := newContext(http.MethodPost, "/session/register", body)

	if err := h.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
}

func TestSessionHandler_Register_MissingFields(t *testing.T) {
	h := NewSessionHandler(&stubSession{})
	c, rec := newContext(http.MethodPost, "/session/register", `{"email":"ana@petland.test","password":"secret1"}`)

	if err := h.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var resp errorResponse
	decode(t, rec, &resp)
	for _, field := range []string{"first_name", "last_name", "phone_number", "address"} {
		if !strings.Contains(resp.Error, field+" is required") {
			t.Fatalf("expected %s in %q", field, resp.Error)
		}
	}
}

func TestSessionHandler_Logout(t *testing.T) {
	stub := signedIn(domain.RoleAdmin)
	stub.logoutFn = func(context.Context) error {
		stub.snap = domain.Session{State: domain.StateUnauthenticated}
		return nil
	}
	h := NewSessionHandler(stub)
	c, rec := newContext(http.MethodPost, "/session/logout", "")

	if err := h.Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp sessionResponse
	decode(t, rec, &resp)
	if resp.State != "unauthenticated" || resp.Principal != nil {
		t.Fatalf("unexpected snapshot: %+v", resp)
	}
}

func TestSessionHandler_UpdateProfile(t *testing.T) {
	stub := signedIn(domain.RoleEmployee)
	stub.updateFn = func(_ context.Context, upd domain.ProfileUpdate) (*domain.Principal, error) {
		if upd.Specialty == nil || *upd.Specialty != "surgery" || upd.FirstName != nil {
			t.Fatalf("unexpected update: %+v", upd)
		}
		p := stub.snap.Principal.Clone()
		upd.Apply(p)
		return p, nil
	}
	h := NewSessionHandler(stub)
	c, rec := newContext(http.MethodPatch, "/session/profile", `{"specialty":"surgery"}`)

	if err := h.UpdateProfile(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var p domain.Principal
	decode(t, rec, &p)
	if p.Specialty != "surgery" || p.FirstName != "Ana" {
		t.Fatalf("unexpected principal: %+v", p)
	}
}

func TestSessionHandler_UpdateProfile_InvalidEmail(t *testing.T) {
	h := NewSessionHandler(signedIn(domain.RoleUser))
	c, rec := newContext(http.MethodPatch, "/session/profile", `{"email":"nope"}`)

	if err := h.UpdateProfile(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestSessionHandler_ClearError(t *testing.T) {
	stub := &stubSession{snap: domain.Session{State: domain.StateUnauthenticated, Error: "login failed"}}
	h := NewSessionHandler(stub)
	c, rec := newContext(http.MethodDelete, "/session/error", "")

	if err := h.ClearError(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent || !stub.cleared {
		t.Fatalf("expected 204 and cleared error, got %d cleared=%v", rec.Code, stub.cleared)
	}
}

func TestNavigationHandler_Navigation(t *testing.T) {
	h := NewNavigationHandler(signedIn(domain.RoleUser))
	c, rec := newContext(http.MethodGet, "/navigation", "")

	if err := h.Navigation(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp navigationResponse
	decode(t, rec, &resp)
	if resp.Title != "My Panel" || resp.User.DisplayName != "Ana Ruiz" || resp.User.RoleLabel != "User" {
		t.Fatalf("unexpected navigation: %+v", resp)
	}
	keys := make(map[string]bool, len(resp.Entries))
	for _, e := range resp.Entries {
		keys[e.Key] = true
	}
	if !keys["pets"] || !keys["invoices"] || keys["users"] || keys["settings"] {
		t.Fatalf("unexpected entries: %+v", resp.Entries)
	}
}

func TestNavigationHandler_Navigation_NoPrincipal(t *testing.T) {
	h := NewNavigationHandler(&stubSession{snap: domain.Session{State: domain.StateUnauthenticated}})
	c, _ := newContext(http.MethodGet, "/navigation", "")

	if err := h.Navigation(c); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestNavigationHandler_AccessChecks(t *testing.T) {
	h := NewNavigationHandler(signedIn(domain.RoleEmployee))

	tests := []struct {
		name  string
		run   func(echo.Context) error
		param string
		value string
		want  bool
	}{
		{"route payments", h.Route, "route", "payments", true},
		{"route settings", h.Route, "route", "settings", false},
		{"route unknown", h.Route, "route", "reports", false},
		{"permission read_pet", h.Permission, "permission", "read_pet", true},
		{"permission delete_pet", h.Permission, "permission", "delete_pet", false},
		{"permission unknown", h.Permission, "permission", "fly", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newContext(http.MethodGet, "/access", "")
			c.SetParamNames(tt.param)
			c.SetParamValues(tt.value)
			if err := tt.run(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			var resp map[string]any
			decode(t, rec, &resp)
			if resp["allowed"] != tt.want {
				t.Fatalf("expected allowed=%v, got %+v", tt.want, resp)
			}
		})
	}
}

func TestNavigationHandler_Routes(t *testing.T) {
	h := NewNavigationHandler(signedIn(domain.RoleAdmin))
	c, rec := newContext(http.MethodGet, "/access/routes", "")

	if err := h.Routes(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp []routeAccessResponse
	decode(t, rec, &resp)
	if len(resp) != len(domain.AllRoutes) {
		t.Fatalf("expected %d routes, got %d", len(domain.AllRoutes), len(resp))
	}
	for _, r := range resp {
		// The services catalogue is the client-facing screen.
		want := r.Route != string(domain.RouteServices)
		if r.Allowed != want {
			t.Fatalf("admin route %s: expected allowed=%v", r.Route, want)
		}
	}
}
