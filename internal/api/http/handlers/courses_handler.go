package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/learning-platform/internal/api/dto"
	"github.com/spec-kit/learning-platform/internal/auth"
	"github.com/spec-kit/learning-platform/internal/service"
	"github.com/spec-kit/learning-platform/internal/validator"
	apperrors "github.com/spec-kit/learning-platform/pkg/util"
)

// CoursesHandler serves the catalog and the enrollment, progress and rating
// workflows.
type CoursesHandler struct {
	courses     *service.CourseService
	enrollments *service.EnrollmentService
	ratings     *service.RatingService
	validate    *validator.Validator
}

// NewCoursesHandler constructs handler.
func NewCoursesHandler(courses *service.CourseService, enrollments *service.EnrollmentService, ratings *service.RatingService, v *validator.Validator) *CoursesHandler {
	return &CoursesHandler{courses: courses, enrollments: enrollments, ratings: ratings, validate: v}
}

// List GET /api/courses.
func (h *CoursesHandler) List(c *fiber.Ctx) error {
	var q dto.CourseListQuery
	if err := c.QueryParser(&q); err != nil {
		return apperrors.NewValidationError("invalid query", nil)
	}
	viewer, _ := auth.CurrentUser(c)

	courses, page, err := h.courses.List(c.UserContext(), viewer, q.ToQuery())
	if err != nil {
		return err
	}
	return respondPage(c, dto.NewCourseResponses(courses), page)
}

// Get GET /api/courses/:id.
func (h *CoursesHandler) Get(c *fiber.Ctx) error {
	detail, err := h.courses.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, dto.NewCourseDetailResponse(detail))
}

// Create POST /api/courses.
func (h *CoursesHandler) Create(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.CreateCourseRequest
	if err := bindBody(c, h.validate, &req); err != nil {
		return err
	}

	course, err := h.courses.Create(c.UserContext(), user, req.ToInput())
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, dto.NewCourseResponse(course))
}

// Update PUT /api/courses/:id.
func (h *CoursesHandler) Update(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.UpdateCourseRequest
	if err := bindBody(c, h.validate, &req); err != nil {
		return err
	}

	course, err := h.courses.Update(c.UserContext(), user, c.Params("id"), req.ToInput())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, dto.NewCourseResponse(course))
}

// Delete DELETE /api/courses/:id.
func (h *CoursesHandler) Delete(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.courses.Delete(c.UserContext(), user, c.Params("id")); err != nil {
		return err
	}
	return respond(c, http.StatusOK, fiber.Map{})
}

// Enroll POST /api/courses/:id/enroll.
func (h *CoursesHandler) Enroll(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	enrollment, err := h.enrollments.Enroll(c.UserContext(), user, c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, dto.NewEnrollmentResponse(enrollment))
}

// UpdateProgress PUT /api/courses/:id/progress.
func (h *CoursesHandler) UpdateProgress(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.ProgressRequest
	if err := bindBody(c, h.validate, &req); err != nil {
		return err
	}

	enrollment, err := h.enrollments.UpdateProgress(c.UserContext(), user, c.Params("id"), *req.Progress)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, dto.NewEnrollmentResponse(enrollment))
}

// Rate POST /api/courses/:id/ratings.
func (h *CoursesHandler) Rate(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.RatingRequest
	if err := bindBody(c, h.validate, &req); err != nil {
		return err
	}

	detail, err := h.ratings.Rate(c.UserContext(), user, c.Params("id"), *req.Rating, req.Review)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, dto.NewCourseDetailResponse(detail))
}
