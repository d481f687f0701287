package events

import (
	"time"

	"github.com/spec-kit/course-auth-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered EventType = "user_registered"
	EventUserLoggedIn   EventType = "user_logged_in"
	EventLoginFailed    EventType = "login_failed"
	EventTokenRefreshed EventType = "token_refreshed"
	EventUserLoggedOut  EventType = "user_logged_out"
	EventRoleChanged    EventType = "role_changed"
)

// Event represents an authentication event emitted by services.
// Payloads never carry passwords, hashes or tokens.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	UserID    int64       `json:"user_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

// LoginFailedPayload payload. Reason is internal only and never returned to clients.
type LoginFailedPayload struct {
	Email  string `json:"email"`
	Reason string `json:"reason"`
}

// TokenIssuedPayload payload for login and refresh.
type TokenIssuedPayload struct {
	ExpiresAt time.Time `json:"expires_at"`
}

// RoleChangedPayload payload.
type RoleChangedPayload struct {
	ActorID int64       `json:"actor_id"`
	OldRole domain.Role `json:"old_role"`
	NewRole domain.Role `json:"new_role"`
}
