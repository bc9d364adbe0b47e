package auth

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/learning-platform/internal/domain"
	apperrors "github.com/spec-kit/learning-platform/pkg/util"
)

// RequireRoles rejects callers whose role is not in allowed. It must run
// after AuthMiddleware.Handle.
func RequireRoles(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		user, ok := CurrentUser(c)
		if !ok {
			return apperrors.NewUnauthorized("Not authorized, no token")
		}
		if _, exists := allowedSet[user.Role]; !exists {
			return apperrors.NewForbidden(fmt.Sprintf("User role %s is not authorized to access this route", user.Role))
		}
		return c.Next()
	}
}
