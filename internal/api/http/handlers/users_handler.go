package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/learning-platform/internal/api/dto"
	"github.com/spec-kit/learning-platform/internal/domain"
	"github.com/spec-kit/learning-platform/internal/service"
	"github.com/spec-kit/learning-platform/internal/validator"
)

// UsersHandler exposes profile endpoints and user administration.
type UsersHandler struct {
	users    *service.UserService
	validate *validator.Validator
}

// NewUsersHandler constructs handler.
func NewUsersHandler(users *service.UserService, v *validator.Validator) *UsersHandler {
	return &UsersHandler{users: users, validate: v}
}

// Profile GET /api/users/profile.
func (h *UsersHandler) Profile(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	profile, err := h.users.Profile(c.UserContext(), user.ID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, dto.NewProfileResponse(profile))
}

// UpdateProfile PUT /api/users/profile.
func (h *UsersHandler) UpdateProfile(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.UpdateProfileRequest
	if err := bindBody(c, h.validate, &req); err != nil {
		return err
	}

	updated, err := h.users.UpdateProfile(c.UserContext(), user.ID, req.ToInput())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, dto.NewUserResponse(updated))
}

// ChangePassword PUT /api/users/password.
func (h *UsersHandler) ChangePassword(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.ChangePasswordRequest
	if err := bindBody(c, h.validate, &req); err != nil {
		return err
	}

	if err := h.users.ChangePassword(c.UserContext(), user.ID, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "message": "Password updated successfully"})
}

// Courses GET /api/users/courses.
func (h *UsersHandler) Courses(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	list, err := h.users.Courses(c.UserContext(), user.ID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, dto.NewEnrollmentResponses(list))
}

// Activities GET /api/users/activities.
func (h *UsersHandler) Activities(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	list, err := h.users.Activities(c.UserContext(), user.ID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, dto.NewActivityResponses(list))
}

// List GET /api/users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	users, page, err := h.users.List(c.UserContext(), service.UserQuery{
		Role:   domain.Role(c.Query("role")),
		Search: c.Query("search"),
		Page:   c.QueryInt("page", 1),
		Limit:  c.QueryInt("limit", 0),
	})
	if err != nil {
		return err
	}
	return respondPage(c, dto.NewUserResponses(users), page)
}

// Get GET /api/users/:id.
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	user, err := h.users.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, dto.NewUserResponse(user))
}

// Update PUT /api/users/:id.
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	var req dto.AdminUpdateUserRequest
	if err := bindBody(c, h.validate, &req); err != nil {
		return err
	}
	user, err := h.users.AdminUpdate(c.UserContext(), c.Params("id"), req.ToInput())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, dto.NewUserResponse(user))
}

// Delete DELETE /api/users/:id.
func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	if err := h.users.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "message": "User removed"})
}
