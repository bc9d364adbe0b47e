package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/learning-platform/internal/api/dto"
	"github.com/spec-kit/learning-platform/internal/service"
)

// AnalyticsHandler serves the dashboard.
type AnalyticsHandler struct {
	analytics *service.AnalyticsService
}

// NewAnalyticsHandler constructs handler.
func NewAnalyticsHandler(analytics *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// Dashboard GET /api/analytics/dashboard.
func (h *AnalyticsHandler) Dashboard(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	d, err := h.analytics.Dashboard(c.UserContext(), user.ID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, fiber.Map{
		"overview": fiber.Map{
			"totalUsers":       d.TotalUsers,
			"newUsers":         d.NewUsers,
			"userGrowth":       d.UserGrowth,
			"totalCourses":     d.TotalCourses,
			"publishedCourses": d.PublishedCourses,
			"totalEnrollments": d.TotalEnrollments,
			"totalCompletions": d.TotalCompletions,
			"completionRate":   d.CompletionRate,
			"averageRating":    d.AverageRating,
		},
		"recentActivity": dto.NewActivityResponses(d.RecentActivity),
	})
}
