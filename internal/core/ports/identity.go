package ports

import (
	"context"

	"github.com/petland/petcare-console/internal/core/domain"
)

// Credentials is the login payload.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterInput is the self-registration payload.
type RegisterInput struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber int64  `json:"phone_number"`
	Address     string `json:"address"`
}

// AuthResult is what the identity service hands back on login/register.
type AuthResult struct {
	Token     string
	Principal *domain.Principal
}

// IdentityService is the remote authentication/identity API.
// Failures are returned as *domain.APIError.
type IdentityService interface {
	Login(ctx context.Context, creds Credentials) (*AuthResult, error)
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Me(ctx context.Context, token string) (*domain.Principal, error)
}
