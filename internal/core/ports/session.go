package ports

import (
	"context"

	"github.com/petland/petcare-console/internal/core/domain"
)

// TokenSource is how outbound API clients obtain the bearer token and report
// that the server rejected it. HandleUnauthorized receives the token the
// rejected request carried.
type TokenSource interface {
	Token() string
	HandleUnauthorized(ctx context.Context, token string)
}

// SessionService owns the current principal.
type SessionService interface {
	TokenSource

	Init(ctx context.Context) error
	Dispose()
	RestoreSession(ctx context.Context) error
	Login(ctx context.Context, email, password string) error
	Register(ctx context.Context, in RegisterInput) error
	Logout(ctx context.Context) error
	UpdatePrincipal(ctx context.Context, upd domain.ProfileUpdate) (*domain.Principal, error)
	ClearError()

	Snapshot() domain.Session
	Authorizer() domain.Authorizer
	Subscribe(fn func(domain.SessionEvent)) (unsubscribe func())
}
