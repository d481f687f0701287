package handlers

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/course-auth-service/internal/api/dto"
	"github.com/spec-kit/course-auth-service/internal/auth"
	"github.com/spec-kit/course-auth-service/internal/service"
	apperrors "github.com/spec-kit/course-auth-service/pkg/util/errorutil"
)

// AuthHandler exposes credential and token endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := parseAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(authResponse(result))
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := parseAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.auth.Register(c.UserContext(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		return err
	}
	return c.JSON(authResponse(result))
}

// Logout handles POST /auth/logout. Tokens are stateless, so the client
// discards its copy; a valid bearer token only feeds the audit trail.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var claims *auth.Claims
	if token, ok := auth.BearerToken(c.Get(fiber.HeaderAuthorization)); ok {
		// Logout always succeeds; an invalid token just skips the audit event.
		claims, _ = h.auth.Verify(token)
	}
	if err := h.auth.Logout(c.UserContext(), claims); err != nil {
		return err
	}
	return c.JSON(dto.LogoutResponse{Success: true, Message: "logged out successfully"})
}

// Verify handles GET /auth/verify and echoes the identity embedded in the token.
func (h *AuthHandler) Verify(c *fiber.Ctx) error {
	claims, ok := auth.ClaimsFromContext(c)
	if !ok {
		return apperrors.NewMissingAuthHeader("missing authentication token")
	}
	return c.JSON(claims.Identity())
}

// Refresh handles GET /auth/refresh.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	claims, ok := auth.ClaimsFromContext(c)
	if !ok {
		return apperrors.NewMissingAuthHeader("missing authentication token")
	}

	result, err := h.auth.Refresh(c.UserContext(), claims)
	if err != nil {
		return err
	}
	return c.JSON(authResponse(result))
}

func authResponse(result *service.LoginResult) dto.AuthResponse {
	return dto.AuthResponse{Token: result.Token, User: result.User, ExpiresAt: result.ExpiresAt}
}

type validatable interface {
	Validate() error
}

// parseAndValidate decodes the body into dst and validates the result.
func parseAndValidate(c *fiber.Ctx, dst validatable) error {
	if err := c.BodyParser(dst); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return validationError(dst.Validate())
}

func validationError(err error) error {
	if err == nil {
		return nil
	}
	var errs validation.Errors
	if !errors.As(err, &errs) {
		return apperrors.NewValidationError(err.Error(), nil)
	}
	details := make(map[string]any, len(errs))
	for field, fieldErr := range errs {
		details[field] = fieldErr.Error()
	}
	return apperrors.NewValidationError("validation failed", details)
}
