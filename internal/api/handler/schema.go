package handler

import (
	"reflect"
	"strings"

	"github.com/petland/petcare-console/internal/core/domain"
	"github.com/petland/petcare-console/internal/core/ports"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error    string `json:"error"`
	Redirect string `json:"redirect,omitempty"`
}

// --- Request / Response types ---

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type registerRequest struct {
	Email       string `json:"email"        validate:"required,email"`
	Password    string `json:"password"     validate:"required,min=6"`
	FirstName   string `json:"first_name"   validate:"required"`
	LastName    string `json:"last_name"    validate:"required"`
	PhoneNumber int64  `json:"phone_number" validate:"required,gt=0"`
	Address     string `json:"address"      validate:"required"`
}

func (r registerRequest) toInput() ports.RegisterInput {
	return ports.RegisterInput{
		Email:       r.Email,
		Password:    r.Password,
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		PhoneNumber: r.PhoneNumber,
		Address:     r.Address,
	}
}

type profileRequest struct {
	FirstName   *string `json:"first_name"   validate:"omitempty,max=100"`
	LastName    *string `json:"last_name"    validate:"omitempty,max=100"`
	Email       *string `json:"email"        validate:"omitempty,email"`
	PhoneNumber *int64  `json:"phone_number" validate:"omitempty,gt=0"`
	Address     *string `json:"address"      validate:"omitempty,max=255"`
	Specialty   *string `json:"specialty"    validate:"omitempty,max=100"`
}

func (r profileRequest) toUpdate() domain.ProfileUpdate {
	return domain.ProfileUpdate{
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		Email:       r.Email,
		PhoneNumber: r.PhoneNumber,
		Address:     r.Address,
		Specialty:   r.Specialty,
	}
}

type sessionResponse struct {
	State     string            `json:"state"`
	Principal *domain.Principal `json:"principal,omitempty"`
	Error     string            `json:"error,omitempty"`
}

func toSessionResponse(s domain.Session) sessionResponse {
	return sessionResponse{State: s.State.String(), Principal: s.Principal, Error: s.Error}
}

type navUser struct {
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	RoleLabel   string `json:"role_label"`
}

type navigationResponse struct {
	Title   string            `json:"title"`
	User    navUser           `json:"user"`
	Entries []domain.NavEntry `json:"entries"`
}

type routeAccessResponse struct {
	Route   string `json:"route"`
	Allowed bool   `json:"allowed"`
}

type permissionResponse struct {
	Permission string `json:"permission"`
	Allowed    bool   `json:"allowed"`
}

// jsonFieldName makes validation messages name the JSON field.
func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" || name == "" {
		return f.Name
	}
	return name
}
