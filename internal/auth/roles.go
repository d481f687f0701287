package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/course-auth-service/internal/domain"
	apperrors "github.com/spec-kit/course-auth-service/pkg/util/errorutil"
)

// Allowed reports whether the claims' role is in the allowed set.
func Allowed(claims *Claims, allowed ...domain.Role) bool {
	if claims == nil {
		return false
	}
	return claims.Role.In(allowed...)
}

// RequireRoles ensures the authenticated caller has one of the allowed roles.
// It must run after AuthMiddleware.Handle.
func RequireRoles(allowed ...domain.Role) fiber.Handler {
	roles := append([]domain.Role(nil), allowed...)

	return func(c *fiber.Ctx) error {
		claims, ok := ClaimsFromContext(c)
		if !ok {
			return apperrors.NewMissingAuthHeader("missing authentication token")
		}
		if !Allowed(claims, roles...) {
			return apperrors.NewInsufficientPermissions()
		}
		return c.Next()
	}
}

// RequireAdmin admits admins only.
func RequireAdmin() fiber.Handler {
	return RequireRoles(domain.RoleAdmin)
}

// RequireInstructor admits instructors and admins.
func RequireInstructor() fiber.Handler {
	return RequireRoles(domain.RoleAdmin, domain.RoleInstructor)
}
