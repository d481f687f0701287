package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/course-auth-service/internal/api/dto"
	"github.com/spec-kit/course-auth-service/internal/auth"
	"github.com/spec-kit/course-auth-service/internal/service"
	apperrors "github.com/spec-kit/course-auth-service/pkg/util/errorutil"
)

// UserHandler exposes privileged account endpoints.
type UserHandler struct {
	users *service.UserService
}

// NewUserHandler constructs handler.
func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// GetUser handles GET /users/:id.
func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	id, err := userID(c)
	if err != nil {
		return err
	}
	user, err := h.users.GetUser(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(user)
}

// ChangeRole handles PATCH /admin/users/:id/role.
func (h *UserHandler) ChangeRole(c *fiber.Ctx) error {
	id, err := userID(c)
	if err != nil {
		return err
	}
	var req dto.ChangeRoleRequest
	if err := parseAndValidate(c, &req); err != nil {
		return err
	}

	actor, _ := auth.ClaimsFromContext(c)
	user, err := h.users.ChangeRole(c.UserContext(), actor, id, req.Role)
	if err != nil {
		return err
	}
	return c.JSON(user)
}

func userID(c *fiber.Ctx) (int64, error) {
	raw := c.Params("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid user id", map[string]any{"id": raw})
	}
	return id, nil
}
