package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/course-auth-service/internal/auth"
	"github.com/spec-kit/course-auth-service/internal/domain"
	"github.com/spec-kit/course-auth-service/internal/events"
	"github.com/spec-kit/course-auth-service/internal/repository"
	apperrors "github.com/spec-kit/course-auth-service/pkg/util/errorutil"
)

// UserService serves the privileged account endpoints. Route guards decide
// who may call it; the service re-checks the actor for role changes.
type UserService struct {
	users      repository.UserRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewUserService constructs the service.
func NewUserService(users repository.UserRepository, dispatcher events.Dispatcher, logger *zap.Logger) *UserService {
	if dispatcher == nil {
		dispatcher = events.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{users: users, dispatcher: dispatcher, logger: logger}
}

// GetUser returns the live profile of a user.
func (s *UserService) GetUser(ctx context.Context, id int64) (*domain.PublicUser, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, mapLookupError(err, "find user by id")
	}
	public := user.Public()
	return &public, nil
}

// ChangeRole assigns a new role. Tokens already issued to the target keep
// their embedded role until the target refreshes or logs in again.
func (s *UserService) ChangeRole(ctx context.Context, actor *auth.Claims, id int64, role domain.Role) (*domain.PublicUser, error) {
	if !auth.Allowed(actor, domain.RoleAdmin) {
		return nil, apperrors.NewInsufficientPermissions()
	}
	if !role.Valid() {
		return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": string(role)})
	}

	current, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, mapLookupError(err, "find user by id")
	}

	updated, err := s.users.Update(ctx, id, domain.UserUpdate{Role: &role})
	if err != nil {
		return nil, mapLookupError(err, "update user role")
	}

	event := events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventRoleChanged,
		UserID:    id,
		Timestamp: time.Now().UTC(),
		Payload:   events.RoleChangedPayload{ActorID: actor.UserID, OldRole: current.Role, NewRole: updated.Role},
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish role change", zap.Int64("user_id", id), zap.Error(err))
	}

	public := updated.Public()
	return &public, nil
}

func mapLookupError(err error, op string) error {
	if errors.Is(err, repository.ErrUserNotFound) {
		return apperrors.NewNotFound("user", nil)
	}
	return apperrors.NewInternalError(fmt.Errorf("%s: %w", op, err))
}
