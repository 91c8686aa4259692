package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/petland/petcare-console/internal/core/domain"
	"github.com/petland/petcare-console/internal/core/ports"
	"github.com/petland/petcare-console/internal/pkg/metrics"
)

const (
	msgLoginFailed    = "login failed"
	msgRegisterFailed = "registration failed"
)

// SessionOption customizes a SessionService.
type SessionOption func(*SessionService)

// WithClock overrides the time source used to check token expiry.
func WithClock(now func() time.Time) SessionOption {
	return func(s *SessionService) { s.now = now }
}

// SessionService is the session store: the single owner of the current
// principal and the only writer of the persisted token/user entries.
//
// Remote calls run without holding any lock. State transitions, together with
// the storage writes that back them, are serialized by writeMu. Every
// transition bumps gen, which lets a restore that finishes late notice that a
// login or logout has already replaced the session it was validating.
type SessionService struct {
	identity ports.IdentityService
	store    ports.StateStore
	log      zerolog.Logger
	now      func() time.Time

	flight   singleflight.Group
	initOnce sync.Once
	initErr  error
	writeMu  sync.Mutex

	mu        sync.RWMutex
	state     domain.SessionState
	principal *domain.Principal
	token     string
	gen       uint64
	lastErr   string
	disposed  bool
	nextSub   int
	subs      map[int]func(domain.SessionEvent)
}

var _ ports.SessionService = (*SessionService)(nil)

// NewSessionService returns a session store in the loading state. Call Init
// before serving guarded content.
func NewSessionService(identity ports.IdentityService, store ports.StateStore, log zerolog.Logger, opts ...SessionOption) *SessionService {
	s := &SessionService{
		identity: identity,
		store:    store,
		log:      log,
		now:      time.Now,
		state:    domain.StateLoading,
		subs:     make(map[int]func(domain.SessionEvent)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init restores the persisted session. Only the first call does any work;
// later calls return the first result.
func (s *SessionService) Init(ctx context.Context) error {
	s.initOnce.Do(func() {
		s.initErr = s.RestoreSession(ctx)
	})
	return s.initErr
}

// Dispose detaches all subscribers. Mutating calls fail afterwards with
// ErrSessionDisposed; persisted state is left as is.
func (s *SessionService) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disposed = true
	s.subs = make(map[int]func(domain.SessionEvent))
}

// RestoreSession re-validates the persisted credential against the identity
// service. Whatever fails, the session ends unauthenticated with storage
// cleared; on success the server's view of the principal is adopted. A result
// that arrives after a login or logout is dropped.
func (s *SessionService) RestoreSession(ctx context.Context) error {
	if s.isDisposed() {
		return domain.ErrSessionDisposed
	}
	_, err, _ := s.flight.Do("restore", func() (any, error) {
		return nil, s.restore(ctx)
	})
	return err
}

func (s *SessionService) restore(ctx context.Context) error {
	s.mu.Lock()
	s.state = domain.StateLoading
	gen := s.gen
	s.mu.Unlock()

	token, hasToken, err := s.store.Get(ctx, ports.TokenKey)
	if err != nil {
		return s.failRestore(ctx, gen, fmt.Errorf("restore session: read token: %w", err))
	}
	raw, hasUser, err := s.store.Get(ctx, ports.UserKey)
	if err != nil {
		return s.failRestore(ctx, gen, fmt.Errorf("restore session: read user: %w", err))
	}

	if !hasToken || !hasUser || token == "" {
		s.writeMu.Lock()
		if s.superseded(gen) {
			s.writeMu.Unlock()
			return nil
		}
		s.transition(domain.StateUnauthenticated, "", nil)
		s.writeMu.Unlock()
		metrics.SessionOperationsTotal.WithLabelValues("restore", "empty").Inc()
		s.log.Debug().Msg("no persisted session")
		s.emit(domain.EventRestored)
		return nil
	}

	var cached domain.Principal
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		return s.failRestore(ctx, gen, fmt.Errorf("restore session: decode cached user: %w", err))
	}
	if tokenExpired(token, s.now()) {
		return s.failRestore(ctx, gen, fmt.Errorf("restore session: %w", domain.ErrSessionExpired))
	}

	p, err := s.identity.Me(ctx, token)
	if err != nil {
		return s.failRestore(ctx, gen, fmt.Errorf("restore session: %w", err))
	}
	if p == nil {
		return s.failRestore(ctx, gen, fmt.Errorf("restore session: identity service returned no user: %w", domain.ErrNotAuthenticated))
	}
	p = p.Clone()
	p.Normalize()

	s.writeMu.Lock()
	if s.superseded(gen) {
		s.writeMu.Unlock()
		return nil
	}
	if err := s.writeUser(ctx, p); err != nil {
		s.log.Warn().Err(err).Msg("could not refresh cached user")
	}
	s.transition(domain.StateAuthenticated, token, p)
	s.writeMu.Unlock()

	metrics.SessionOperationsTotal.WithLabelValues("restore", "success").Inc()
	s.log.Info().Str("user_id", p.ID).Str("role", string(p.Role)).Msg("session restored")
	s.emit(domain.EventRestored)
	return nil
}

func (s *SessionService) failRestore(ctx context.Context, gen uint64, cause error) error {
	s.writeMu.Lock()
	if s.superseded(gen) {
		s.writeMu.Unlock()
		s.log.Debug().Err(cause).Msg("stale restore result ignored")
		return nil
	}
	if err := s.store.Delete(ctx, ports.TokenKey, ports.UserKey); err != nil {
		s.log.Error().Err(err).Msg("could not clear persisted session")
	}
	s.transition(domain.StateUnauthenticated, "", nil)
	s.writeMu.Unlock()

	metrics.SessionOperationsTotal.WithLabelValues("restore", resultLabel(cause)).Inc()
	s.log.Warn().Err(cause).Msg("persisted session rejected")
	s.emit(domain.EventRestoreFailed)
	return cause
}

// Login authenticates with email and password. Concurrent submissions of the
// same credentials share one remote call.
func (s *SessionService) Login(ctx context.Context, email, password string) error {
	key := "login\x00" + email + "\x00" + password
	return s.authenticate(ctx, "login", key, domain.EventLoggedIn, msgLoginFailed,
		func(ctx context.Context) (*ports.AuthResult, error) {
			return s.identity.Login(ctx, ports.Credentials{Email: email, Password: password})
		})
}

// Register creates an account and signs into it.
func (s *SessionService) Register(ctx context.Context, in ports.RegisterInput) error {
	key := fmt.Sprintf("register\x00%s\x00%s\x00%s\x00%s\x00%d\x00%s",
		in.Email, in.Password, in.FirstName, in.LastName, in.PhoneNumber, in.Address)
	return s.authenticate(ctx, "register", key, domain.EventRegistered, msgRegisterFailed,
		func(ctx context.Context) (*ports.AuthResult, error) {
			return s.identity.Register(ctx, in)
		})
}

func (s *SessionService) authenticate(
	ctx context.Context,
	op, key string,
	event domain.SessionEventType,
	fallback string,
	call func(context.Context) (*ports.AuthResult, error),
) error {
	if s.isDisposed() {
		return domain.ErrSessionDisposed
	}
	s.setError("")

	// Joined callers share the result, so one caller going away must not
	// cancel it for the others.
	ctx = context.WithoutCancel(ctx)
	_, err, shared := s.flight.Do(key, func() (any, error) {
		res, err := call(ctx)
		if err != nil {
			return nil, err
		}
		if res == nil || res.Token == "" || res.Principal == nil {
			return nil, &domain.APIError{Kind: domain.KindServer, Message: fallback}
		}
		p := res.Principal.Clone()
		p.Normalize()

		s.writeMu.Lock()
		defer s.writeMu.Unlock()
		if err := s.persist(ctx, res.Token, p); err != nil {
			return nil, err
		}
		s.transition(domain.StateAuthenticated, res.Token, p)
		s.log.Info().Str("operation", op).Str("user_id", p.ID).Str("role", string(p.Role)).Msg("signed in")
		return nil, nil
	})
	if shared {
		s.log.Debug().Str("operation", op).Msg("duplicate submission joined in-flight call")
	}

	if err != nil {
		s.setError(domain.UserMessage(err, fallback))
		if !shared {
			metrics.SessionOperationsTotal.WithLabelValues(op, resultLabel(err)).Inc()
		}
		s.log.Warn().Err(err).Str("operation", op).Msg("authentication failed")
		return err
	}
	if !shared {
		metrics.SessionOperationsTotal.WithLabelValues(op, "success").Inc()
		s.emit(event)
	}
	return nil
}

// Logout forgets the principal and deletes the persisted entries. No server
// call is made.
func (s *SessionService) Logout(ctx context.Context) error {
	if s.isDisposed() {
		return domain.ErrSessionDisposed
	}
	s.writeMu.Lock()
	s.transition(domain.StateUnauthenticated, "", nil)
	s.setError("")
	err := s.store.Delete(ctx, ports.TokenKey, ports.UserKey)
	s.writeMu.Unlock()

	s.emit(domain.EventLoggedOut)
	if err != nil {
		metrics.SessionOperationsTotal.WithLabelValues("logout", "error").Inc()
		return fmt.Errorf("logout: clear persisted session: %w", err)
	}
	metrics.SessionOperationsTotal.WithLabelValues("logout", "success").Inc()
	s.log.Info().Msg("signed out")
	return nil
}

// HandleUnauthorized wipes the session after the API rejected token. It is a
// no-op unless token is still the current one, so a late 401 for a request
// sent before a logout or a new login leaves the newer session alone.
func (s *SessionService) HandleUnauthorized(ctx context.Context, token string) {
	s.writeMu.Lock()
	s.mu.RLock()
	current := s.token
	s.mu.RUnlock()
	if token == "" || token != current {
		s.writeMu.Unlock()
		s.log.Debug().Msg("401 for a token that is no longer in use")
		return
	}
	s.transition(domain.StateUnauthenticated, "", nil)
	s.setError(domain.MsgUnauthenticated)
	if err := s.store.Delete(ctx, ports.TokenKey, ports.UserKey); err != nil {
		s.log.Error().Err(err).Msg("could not clear persisted session")
	}
	s.writeMu.Unlock()

	metrics.SessionForcedLogoutsTotal.Inc()
	s.log.Warn().Msg("token rejected by the API, session cleared")
	s.emit(domain.EventExpired)
}

// UpdatePrincipal applies a local profile edit without re-validating it
// against the server.
func (s *SessionService) UpdatePrincipal(ctx context.Context, upd domain.ProfileUpdate) (*domain.Principal, error) {
	if s.isDisposed() {
		return nil, domain.ErrSessionDisposed
	}
	if upd.Empty() {
		return nil, fmt.Errorf("update principal: %w: nothing to change", domain.ErrInvalidProfile)
	}

	s.writeMu.Lock()
	s.mu.RLock()
	current := s.principal
	s.mu.RUnlock()
	if current == nil {
		s.writeMu.Unlock()
		return nil, domain.ErrNotAuthenticated
	}
	next := current.Clone()
	upd.Apply(next)
	if err := s.writeUser(ctx, next); err != nil {
		s.writeMu.Unlock()
		metrics.SessionOperationsTotal.WithLabelValues("update_profile", "error").Inc()
		return nil, fmt.Errorf("update principal: %w", err)
	}
	s.mu.Lock()
	s.principal = next
	s.mu.Unlock()
	s.writeMu.Unlock()

	metrics.SessionOperationsTotal.WithLabelValues("update_profile", "success").Inc()
	s.emit(domain.EventUpdated)
	return next.Clone(), nil
}

// ClearError drops the last user-facing error message.
func (s *SessionService) ClearError() {
	s.setError("")
}

// Token returns the current bearer token, or "" when unauthenticated.
func (s *SessionService) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Snapshot returns a copy of the current session.
func (s *SessionService) Snapshot() domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.Session{
		State:     s.state,
		Principal: s.principal.Clone(),
		Error:     s.lastErr,
	}
}

// Authorizer returns the predicate set for the current principal.
func (s *SessionService) Authorizer() domain.Authorizer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.NewAuthorizer(s.principal.Clone())
}

// Subscribe registers fn for session events. fn runs synchronously after
// each mutation, outside the service's locks.
func (s *SessionService) Subscribe(fn func(domain.SessionEvent)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// --- internals ---

func (s *SessionService) isDisposed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.disposed
}

func (s *SessionService) setError(msg string) {
	s.mu.Lock()
	s.lastErr = msg
	s.mu.Unlock()
}

// superseded reports whether a transition happened since gen was read. It
// must be called with writeMu held.
func (s *SessionService) superseded(gen uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen != gen
}

// transition must be called with writeMu held.
func (s *SessionService) transition(state domain.SessionState, token string, p *domain.Principal) {
	s.mu.Lock()
	s.gen++
	s.state = state
	s.token = token
	s.principal = p
	s.mu.Unlock()

	if state == domain.StateAuthenticated {
		metrics.SessionAuthenticated.Set(1)
	} else {
		metrics.SessionAuthenticated.Set(0)
	}
}

// persist writes token then user; on failure neither entry is left behind.
func (s *SessionService) persist(ctx context.Context, token string, p *domain.Principal) error {
	if err := s.store.Set(ctx, ports.TokenKey, token); err != nil {
		return fmt.Errorf("persist session: write token: %w", err)
	}
	if err := s.writeUser(ctx, p); err != nil {
		if delErr := s.store.Delete(ctx, ports.TokenKey, ports.UserKey); delErr != nil {
			s.log.Error().Err(delErr).Msg("could not roll back persisted token")
		}
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}

func (s *SessionService) writeUser(ctx context.Context, p *domain.Principal) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	if err := s.store.Set(ctx, ports.UserKey, string(raw)); err != nil {
		return fmt.Errorf("write user: %w", err)
	}
	return nil
}

func (s *SessionService) emit(t domain.SessionEventType) {
	s.mu.RLock()
	ev := domain.SessionEvent{Type: t, State: s.state, Principal: s.principal.Clone()}
	subs := make([]func(domain.SessionEvent), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.RUnlock()

	for _, fn := range subs {
		fn(ev)
	}
}

// resultLabel turns an error into a low-cardinality metric label.
func resultLabel(err error) string {
	var apiErr *domain.APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Kind.String()
	case errors.Is(err, domain.ErrSessionExpired):
		return "expired"
	default:
		return "error"
	}
}
