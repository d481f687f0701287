package dto

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/spec-kit/course-auth-service/internal/domain"
)

// RegisterRequest payload for new accounts.
type RegisterRequest struct {
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     domain.Role `json:"role,omitempty"`
}

// Validate checks field shapes; role is optional.
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.RuneLength(2, 100)),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 50)),
		validation.Field(&r.Role, validation.In(roleValues()...)),
	)
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks field shapes.
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

// ChangeRoleRequest payload for admin role assignment.
type ChangeRoleRequest struct {
	Role domain.Role `json:"role"`
}

// Validate checks field shapes.
func (r ChangeRoleRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Role, validation.Required, validation.In(roleValues()...)),
	)
}

// AuthResponse standard response for login, register and refresh.
type AuthResponse struct {
	Token     string            `json:"token"`
	User      domain.PublicUser `json:"user"`
	ExpiresAt time.Time         `json:"expires_at"`
}

// LogoutResponse acknowledges a client-side logout.
type LogoutResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func roleValues() []interface{} {
	roles := domain.Roles()
	out := make([]interface{}, len(roles))
	for i, r := range roles {
		out[i] = r
	}
	return out
}
