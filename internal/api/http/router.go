package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"go.uber.org/zap"

	"github.com/spec-kit/learning-platform/internal/api/http/handlers"
	"github.com/spec-kit/learning-platform/internal/auth"
	"github.com/spec-kit/learning-platform/internal/config"
	"github.com/spec-kit/learning-platform/internal/domain"
	"github.com/spec-kit/learning-platform/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	HTTP           config.HTTPConfig
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Courses        *handlers.CoursesHandler
	Users          *handlers.UsersHandler
	Analytics      *handlers.AnalyticsHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
	Logger         *zap.Logger
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler(cfg.Logger)))
	}

	api := app.Group("/api")
	if cfg.HTTP.RateLimitMax > 0 {
		api.Use(rateLimiter(cfg.HTTP))
	}
	requireAuth := cfg.AuthMiddleware.Handle

	authGroup := api.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Get("/me", requireAuth, cfg.Auth.Me)

	courses := api.Group("/courses")
	courses.Get("/", cfg.AuthMiddleware.Optional, cfg.Courses.List)
	courses.Get("/:id", cfg.Courses.Get)
	courses.Post("/", requireAuth, auth.RequireRoles(domain.RoleInstructor, domain.RoleAdmin), cfg.Courses.Create)
	courses.Put("/:id", requireAuth, cfg.Courses.Update)
	courses.Delete("/:id", requireAuth, cfg.Courses.Delete)
	courses.Post("/:id/enroll", requireAuth, cfg.Courses.Enroll)
	courses.Put("/:id/progress", requireAuth, cfg.Courses.UpdateProgress)
	courses.Post("/:id/ratings", requireAuth, cfg.Courses.Rate)
	courses.Post("/:id/rate", requireAuth, cfg.Courses.Rate)

	users := api.Group("/users", requireAuth)
	users.Get("/profile", cfg.Users.Profile)
	users.Put("/profile", cfg.Users.UpdateProfile)
	users.Put("/password", cfg.Users.ChangePassword)
	users.Get("/courses", cfg.Users.Courses)
	users.Get("/activities", cfg.Users.Activities)

	admin := users.Group("", auth.RequireRoles(domain.RoleAdmin))
	admin.Get("/", cfg.Users.List)
	admin.Get("/:id", cfg.Users.Get)
	admin.Put("/:id", cfg.Users.Update)
	admin.Delete("/:id", cfg.Users.Delete)

	api.Get("/analytics/dashboard", requireAuth, cfg.Analytics.Dashboard)
}
