package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/petland/petcare-console/internal/core/ports"
	"github.com/petland/petcare-console/internal/core/service"
	"github.com/petland/petcare-console/internal/infrastructure/db/memory"
	"github.com/petland/petcare-console/internal/infrastructure/petapi"
)

// upstream fakes the PetLand API: one account (ana / secret, role client)
// and a pets collection. Once revoked is set every bearer call gets 401.
type upstream struct {
	revoked atomic.Bool
}

func (u *upstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	authed := r.Header.Get("Authorization") == "Bearer t1" && !u.revoked.Load()

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/auth/login":
		var creds ports.Credentials
		_ = json.NewDecoder(r.Body).Decode(&creds)
		if creds.Email != "ana@petland.test" || creds.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"detail":"Incorrect email or password"}`)
			return
		}
		_, _ = io.WriteString(w, `{"access_token":"t1","token_type":"bearer"}`)
	case r.URL.Path == "/auth/me" && authed:
		_, _ = io.WriteString(w, `{"user_id":7,"email":"ana@petland.test","role":"client","message":"ok"}`)
	case r.URL.Path == "/pets" && authed:
		_, _ = io.WriteString(w, `[{"id":1,"name":"Luna"}]`)
	default:
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"detail":"Could not validate credentials"}`)
	}
}

type harness struct {
	e       *echo.Echo
	session *service.SessionService
	store   *memory.StateStore
	api     *upstream
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	api := &upstream{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	client := petapi.NewClient(srv.URL, 2*time.Second, zerolog.Nop())
	store := memory.NewStateStore()
	session := service.NewSessionService(petapi.NewIdentity(client), store, zerolog.Nop())
	t.Cleanup(session.Dispose)

	e := NewRouter(Deps{
		Session:   session,
		Resources: petapi.NewGateway(client, session),
		Store:     store,
		Log:       zerolog.Nop(),
	})
	return &harness{e: e, session: session, store: store, api: api}
}

func (h *harness) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	h.e.ServeHTTP(rec, req)
	return rec
}

func (h *harness) login(t *testing.T) {
	t.Helper()
	if err := h.session.Init(context.Background()); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	rec := h.do(t, http.MethodPost, "/session/login", `{"email":"ana@petland.test","password":"secret"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
}

func body(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
	}
	return m
}

func TestRouter_LoadingSessionIsNotServed(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodGet, "/navigation", "")
	if rec.Code != http.StatusServiceUnavailable || rec.Header().Get("Retry-After") == "" {
		t.Fatalf("expected 503 with Retry-After, got %d", rec.Code)
	}

	rec = h.do(t, http.MethodGet, "/session", "")
	if got := body(t, rec)["state"]; got != "loading" {
		t.Fatalf("expected loading snapshot, got %v", got)
	}

	rec = h.do(t, http.MethodGet, "/health/ready", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected readiness to fail while loading, got %d", rec.Code)
	}
}

func TestRouter_UnauthenticatedRedirectsToLogin(t *testing.T) {
	h := newHarness(t)
	if err := h.session.Init(context.Background()); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	for _, path := range []string{"/navigation", "/access/routes/pets", "/api/pets"} {
		rec := h.do(t, http.MethodGet, path, "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", path, rec.Code)
		}
		if got := body(t, rec)["redirect"]; got != LoginPath {
			t.Fatalf("%s: expected redirect to login, got %v", path, got)
		}
	}
}

func TestRouter_LoginFailureKeepsServerMessage(t *testing.T) {
	h := newHarness(t)
	_ = h.session.Init(context.Background())

	rec := h.do(t, http.MethodPost, "/session/login", `{"email":"ana@petland.test","password":"wrong"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	m := body(t, rec)
	if m["error"] != "Incorrect email or password" {
		t.Fatalf("expected server detail, got %v", m["error"])
	}
	if _, ok := m["redirect"]; ok {
		t.Fatalf("login failures must not redirect: %v", m)
	}
	if got := body(t, h.do(t, http.MethodGet, "/session", ""))["error"]; got != "Incorrect email or password" {
		t.Fatalf("expected session error to be recorded, got %v", got)
	}
}

func TestRouter_SignedInUser(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	if tok, ok, _ := h.store.Get(context.Background(), ports.TokenKey); !ok || tok != "t1" {
		t.Fatalf("expected token t1 to be persisted, got %q", tok)
	}

	nav := body(t, h.do(t, http.MethodGet, "/navigation", ""))
	if nav["title"] != "My Panel" {
		t.Fatalf("unexpected navigation title: %v", nav["title"])
	}

	rec := h.do(t, http.MethodGet, "/api/pets", "")
	if rec.Code != http.StatusOK || rec.Body.String() != `[{"id":1,"name":"Luna"}]` {
		t.Fatalf("unexpected pets response: %d %s", rec.Code, rec.Body.String())
	}

	rec = h.do(t, http.MethodGet, "/api/users", "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected users to be forbidden for a client, got %d", rec.Code)
	}

	rec = h.do(t, http.MethodGet, "/api/shipments", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected unknown resource to be 404, got %d", rec.Code)
	}

	if got := body(t, h.do(t, http.MethodGet, "/access/routes/settings", ""))["allowed"]; got != false {
		t.Fatalf("client must not reach settings")
	}
	if got := body(t, h.do(t, http.MethodGet, "/access/permissions/read_pet", ""))["allowed"]; got != true {
		t.Fatalf("client must hold read_pet")
	}
}

func TestRouter_RevokedTokenEndsSession(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	h.api.revoked.Store(true)

	rec := h.do(t, http.MethodGet, "/api/pets", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if got := body(t, rec)["redirect"]; got != LoginPath {
		t.Fatalf("expected redirect to login, got %v", got)
	}
	if h.store.Len() != 0 {
		t.Fatalf("expected persisted session to be wiped")
	}
	if got := body(t, h.do(t, http.MethodGet, "/session", ""))["state"]; got != "unauthenticated" {
		t.Fatalf("expected unauthenticated session, got %v", got)
	}
}

func TestRouter_ProfileAndLogout(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	rec := h.do(t, http.MethodPatch, "/session/profile", `{"first_name":"Ana","last_name":"Ruiz"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("profile update failed: %d %s", rec.Code, rec.Body.String())
	}
	nav := body(t, h.do(t, http.MethodGet, "/navigation", ""))
	if user, _ := nav["user"].(map[string]any); user["display_name"] != "Ana Ruiz" {
		t.Fatalf("expected updated display name, got %v", nav["user"])
	}

	rec = h.do(t, http.MethodPatch, "/session/profile", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected empty update to be rejected, got %d", rec.Code)
	}

	rec = h.do(t, http.MethodPost, "/session/logout", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("logout failed: %d", rec.Code)
	}
	if h.store.Len() != 0 {
		t.Fatalf("expected logout to clear persisted entries")
	}
}

func TestRouter_OperationalEndpoints(t *testing.T) {
	h := newHarness(t)
	_ = h.session.Init(context.Background())

	for _, path := range []string{"/health", "/health/ready", "/metrics", "/swagger/doc.json"} {
		if rec := h.do(t, http.MethodGet, path, ""); rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
	}
}
