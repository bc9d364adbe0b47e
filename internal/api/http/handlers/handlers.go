package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/learning-platform/internal/auth"
	"github.com/spec-kit/learning-platform/internal/domain"
	"github.com/spec-kit/learning-platform/internal/validator"
	apperrors "github.com/spec-kit/learning-platform/pkg/util"
)

func respond(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(fiber.Map{"success": true, "data": data})
}

func respondPage(c *fiber.Ctx, data any, pagination any) error {
	return c.JSON(fiber.Map{"success": true, "data": data, "pagination": pagination})
}

// bindBody decodes the JSON body into dst and validates it.
func bindBody(c *fiber.Ctx, v *validator.Validator, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return v.Struct(dst)
}

func currentUser(c *fiber.Ctx) (*domain.User, error) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("Not authorized")
	}
	return user, nil
}
