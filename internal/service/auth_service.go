package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/course-auth-service/internal/auth"
	"github.com/spec-kit/course-auth-service/internal/config"
	"github.com/spec-kit/course-auth-service/internal/domain"
	"github.com/spec-kit/course-auth-service/internal/events"
	"github.com/spec-kit/course-auth-service/internal/repository"
	apperrors "github.com/spec-kit/course-auth-service/pkg/util/errorutil"
)

// LoginResult is returned by every flow that issues a token.
type LoginResult struct {
	Token     string
	User      domain.PublicUser
	ExpiresAt time.Time
}

// RegisterInput carries the fields of a new account. An empty Role means DefaultRole.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
}

// AuthService coordinates registration, login and token refresh.
type AuthService struct {
	users      repository.UserRepository
	hasher     *auth.PasswordHasher
	tokenMgr   *auth.TokenManager
	dispatcher events.Dispatcher
	logger     *zap.Logger

	dummyOnce sync.Once
	dummyHash string
}

// AuthDependencies encapsulates collaborators of the auth service.
type AuthDependencies struct {
	UserRepo     repository.UserRepository
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
	TokenOptions []auth.TokenOption
}

// NewAuthService builds the service from immutable auth configuration.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	dispatcher := deps.Dispatcher
	if dispatcher == nil {
		dispatcher = events.Nop{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:      deps.UserRepo,
		hasher:     auth.NewPasswordHasher(cfg.BcryptCost),
		tokenMgr:   auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL(), deps.TokenOptions...),
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Login authenticates by email and password. Unknown emails and wrong
// passwords fail with the same InvalidCredentials error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		s.equalizeTiming(password)
		s.publish(ctx, events.EventLoginFailed, 0, events.LoginFailedPayload{Email: email, Reason: "unknown email"})
		return nil, apperrors.NewInvalidCredentials()
	}
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("find user by email: %w", err))
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("verify password for user %d: %w", user.ID, err))
	}
	if !ok {
		s.publish(ctx, events.EventLoginFailed, user.ID, events.LoginFailedPayload{Email: email, Reason: "wrong password"})
		return nil, apperrors.NewInvalidCredentials()
	}

	result, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.EventUserLoggedIn, user.ID, events.TokenIssuedPayload{ExpiresAt: result.ExpiresAt})
	return result, nil
}

// Register creates an account and logs it in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*LoginResult, error) {
	role := in.Role
	if role == "" {
		role = domain.DefaultRole
	}
	if !role.Valid() {
		return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": string(in.Role)})
	}

	// Fast path only; the store's unique constraint decides concurrent races.
	if _, err := s.users.FindByEmail(ctx, in.Email); err == nil {
		return nil, emailTaken()
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, apperrors.NewInternalError(fmt.Errorf("find user by email: %w", err))
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("hash password: %w", err))
	}

	user := &domain.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, emailTaken()
		}
		return nil, apperrors.NewInternalError(fmt.Errorf("create user: %w", err))
	}

	result, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.EventUserRegistered, user.ID, events.UserRegisteredPayload{Email: user.Email, Role: user.Role})
	return result, nil
}

// Refresh re-reads the account behind already-verified claims and issues a
// fresh token with a re-snapshotted profile. Previously issued tokens stay
// valid until their own expiration.
func (s *AuthService) Refresh(ctx context.Context, claims *auth.Claims) (*LoginResult, error) {
	if claims == nil {
		return nil, apperrors.NewInvalidToken(errors.New("no claims presented"))
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, apperrors.NewNotFound("user", nil)
	}
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("find user by id: %w", err))
	}

	token, newClaims, err := s.tokenMgr.Reissue(user, claims)
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("reissue token for user %d: %w", user.ID, err))
	}
	result := &LoginResult{Token: token, User: user.Public(), ExpiresAt: newClaims.ExpiresAt.Time}
	s.publish(ctx, events.EventTokenRefreshed, user.ID, events.TokenIssuedPayload{ExpiresAt: result.ExpiresAt})
	return result, nil
}

// Verify decodes and validates a raw token.
func (s *AuthService) Verify(token string) (*auth.Claims, error) {
	claims, err := s.tokenMgr.Decode(token)
	if err != nil {
		return nil, apperrors.NewInvalidToken(err)
	}
	return claims, nil
}

// Logout currently no-ops for stateless JWT approach; the client discards its token.
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims != nil {
		s.publish(ctx, events.EventUserLoggedOut, claims.UserID, nil)
	}
	return nil
}

func (s *AuthService) issue(user *domain.User) (*LoginResult, error) {
	token, claims, err := s.tokenMgr.Issue(user)
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("issue token for user %d: %w", user.ID, err))
	}
	return &LoginResult{
		Token:     token,
		User:      user.Public(),
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// equalizeTiming runs one bcrypt comparison so unknown emails cost about as
// much as a wrong password.
func (s *AuthService) equalizeTiming(password string) {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash(uuid.NewString())
		if err != nil {
			s.logger.Warn("unable to prepare dummy password hash", zap.Error(err))
			return
		}
		s.dummyHash = hash
	})
	if s.dummyHash != "" {
		_, _ = s.hasher.Verify(password, s.dummyHash)
	}
}

func (s *AuthService) publish(ctx context.Context, eventType events.EventType, userID int64, payload any) {
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish auth event", zap.String("event_type", string(eventType)), zap.Error(err))
	}
}

func emailTaken() error {
	return apperrors.NewAlreadyExists("email address already registered")
}
