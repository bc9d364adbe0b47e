package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/learning-platform/internal/api/http"
	"github.com/spec-kit/learning-platform/internal/api/http/handlers"
	"github.com/spec-kit/learning-platform/internal/auth"
	"github.com/spec-kit/learning-platform/internal/config"
	"github.com/spec-kit/learning-platform/internal/domain"
	"github.com/spec-kit/learning-platform/internal/observability"
	"github.com/spec-kit/learning-platform/internal/repository/memory"
	"github.com/spec-kit/learning-platform/internal/service"
	"github.com/spec-kit/learning-platform/internal/validator"
)

var testAuth = config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 60, BcryptCost: 4}

type testServer struct {
	app   *fiber.App
	store *memory.Store
}

func newTestServer(t *testing.T, httpCfg config.HTTPConfig) *testServer {
	t.Helper()
	store := memory.NewStore()
	logger := zap.NewNop()
	metrics := observability.NewMetrics()

	authService := service.NewAuthService(testAuth, service.AuthDependencies{UserRepo: store.Users()})
	workflow := service.WorkflowDependencies{Store: store, Metrics: metrics}
	v := validator.New()

	app := fiber.New(fiber.Config{ErrorHandler: httptransport.ErrorHandler})
	httptransport.RegisterMiddlewares(app, httpCfg, logger, metrics)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		HTTP:           httpCfg,
		Health:         handlers.NewHealthHandler("learning-platform", "test", store, nil),
		Auth:           handlers.NewAuthHandler(authService, v),
		Courses:        handlers.NewCoursesHandler(service.NewCourseService(service.CourseDependencies{Store: store}), service.NewEnrollmentService(workflow), service.NewRatingService(workflow), v),
		Users:          handlers.NewUsersHandler(service.NewUserService(testAuth, service.UserDependencies{Store: store}), v),
		Analytics:      handlers.NewAnalyticsHandler(service.NewAnalyticsService(store, nil)),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), store.Users()),
		Metrics:        metrics,
		Logger:         logger,
	})
	return &testServer{app: app, store: store}
}

type envelope struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	Pagination *struct {
		Page  int `json:"page"`
		Limit int `json:"limit"`
		Total int `json:"total"`
		Pages int `json:"pages"`
	} `json:"pagination"`
	Error *struct {
		Code    string         `json:"code"`
		Details map[string]any `json:"details"`
	} `json:"error"`
	Token string `json:"token"`
}

func (s *testServer) call(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

// seedUser stores a user with password "secret1" and returns a login token.
func (s *testServer) seedUser(t *testing.T, name, email string, role domain.Role) string {
	t.Helper()
	hash, err := auth.HashPassword("secret1", 4)
	require.NoError(t, err)
	require.NoError(t, s.store.Users().Create(context.Background(), &domain.User{
		Name: name, Email: email, PasswordHash: hash, Role: role,
	}))

	status, env := s.call(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": email, "password": "secret1"})
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, env.Token)
	return env.Token
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func TestRegisterAndMe(t *testing.T) {
	s := newTestServer(t, config.HTTPConfig{})

	status, env := s.call(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Ada", "email": "ada@example.com", "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, status)
	assert.True(t, env.Success)
	require.NotEmpty(t, env.Token)

	status, env = s.call(t, http.MethodGet, "/api/auth/me", env.Token, nil)
	require.Equal(t, http.StatusOK, status)
	me := decode[map[string]any](t, env.Data)
	assert.Equal(t, "ada@example.com", me["email"])
	assert.Equal(t, "user", me["role"])
	assert.NotContains(t, me, "password")

	status, env = s.call(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Ada", "email": "ada@example.com", "password": "secret1",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.False(t, env.Success)

	status, _ = s.call(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ada@example.com", "password": "nope12"})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestValidationEnvelope(t *testing.T) {
	s := newTestServer(t, config.HTTPConfig{})

	status, env := s.call(t, http.MethodPost, "/api/auth/register", "", map[string]string{"name": "Ada", "email": "nope", "password": "123"})
	require.Equal(t, http.StatusBadRequest, status)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)
	assert.NotEmpty(t, env.Message)
	assert.Contains(t, env.Error.Details, "fields")
}

func TestAuthGating(t *testing.T) {
	s := newTestServer(t, config.HTTPConfig{})
	member := s.seedUser(t, "Mel", "mel@example.com", domain.RoleUser)

	status, env := s.call(t, http.MethodGet, "/api/users/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)

	status, _ = s.call(t, http.MethodGet, "/api/users/profile", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = s.call(t, http.MethodGet, "/api/users", member, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = s.call(t, http.MethodPost, "/api/courses", member, map[string]any{"title": "x"})
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = s.call(t, http.MethodGet, "/api/users/profile", member, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestCourseWorkflow(t *testing.T) {
	s := newTestServer(t, config.HTTPConfig{})
	instructor := s.seedUser(t, "Ian", "ian@example.com", domain.RoleInstructor)
	student := s.seedUser(t, "Sam", "sam@example.com", domain.RoleUser)

	status, env := s.call(t, http.MethodPost, "/api/courses", instructor, map[string]any{
		"title":       "Go in Practice",
		"description": "Services in Go",
		"category":    "Web Development",
		"level":       "Beginner",
		"duration":    12,
		"status":      "published",
	})
	require.Equal(t, http.StatusCreated, status, env.Message)
	course := decode[map[string]any](t, env.Data)
	courseID := course["id"].(string)
	assert.Equal(t, "go-in-practice", course["slug"])

	status, env = s.call(t, http.MethodGet, "/api/courses?category=Web%20Development", "", nil)
	require.Equal(t, http.StatusOK, status)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, 1, env.Pagination.Total)

	status, env = s.call(t, http.MethodGet, "/api/courses?category=Cooking", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = s.call(t, http.MethodPut, "/api/courses/"+courseID, student, map[string]any{"title": "Mine now"})
	assert.Equal(t, http.StatusForbidden, status)

	status, env = s.call(t, http.MethodPost, "/api/courses/"+courseID+"/ratings", student, map[string]any{"rating": 5})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "You must complete the course before rating it", env.Message)

	status, env = s.call(t, http.MethodPost, "/api/courses/"+courseID+"/enroll", student, nil)
	require.Equal(t, http.StatusOK, status, env.Message)
	status, env = s.call(t, http.MethodPost, "/api/courses/"+courseID+"/enroll", student, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Already enrolled in this course", env.Message)

	status, _ = s.call(t, http.MethodPut, "/api/courses/"+courseID+"/progress", student, map[string]any{"progress": 101})
	assert.Equal(t, http.StatusBadRequest, status)

	status, env = s.call(t, http.MethodPut, "/api/courses/"+courseID+"/progress", student, map[string]any{"progress": 100})
	require.Equal(t, http.StatusOK, status, env.Message)
	enrollment := decode[map[string]any](t, env.Data)
	assert.Equal(t, "completed", enrollment["status"])

	status, env = s.call(t, http.MethodPost, "/api/courses/"+courseID+"/rate", student, map[string]any{"rating": 4, "review": "solid"})
	require.Equal(t, http.StatusOK, status, env.Message)
	detail := decode[map[string]any](t, env.Data)
	stats := detail["statistics"].(map[string]any)
	assert.EqualValues(t, 4, stats["averageRating"])
	assert.EqualValues(t, 1, stats["totalRatings"])
	assert.EqualValues(t, 1, stats["totalCompleted"])

	status, env = s.call(t, http.MethodGet, "/api/users/courses", student, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]map[string]any](t, env.Data), 1)

	status, env = s.call(t, http.MethodGet, "/api/analytics/dashboard", student, nil)
	require.Equal(t, http.StatusOK, status)
	dash := decode[map[string]any](t, env.Data)
	overview := dash["overview"].(map[string]any)
	assert.EqualValues(t, 2, overview["totalUsers"])
	assert.EqualValues(t, 100, overview["completionRate"])
}

func TestUnknownRouteUsesEnvelope(t *testing.T) {
	s := newTestServer(t, config.HTTPConfig{})

	status, env := s.call(t, http.MethodGet, "/api/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)

	status, env = s.call(t, http.MethodGet, "/api/courses/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Course not found", env.Message)
}

func TestRateLimiter(t *testing.T) {
	s := newTestServer(t, config.HTTPConfig{RateLimitMax: 2, RateLimitWindowSec: 60})

	for i := 0; i < 2; i++ {
		status, _ := s.call(t, http.MethodGet, "/api/courses", "", nil)
		require.Equal(t, http.StatusOK, status)
	}
	status, env := s.call(t, http.MethodGet, "/api/courses", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "Too many requests from this IP, please try again later", env.Message)

	status, _ = s.call(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestHealthReady(t *testing.T) {
	s := newTestServer(t, config.HTTPConfig{})

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	deps := body["dependencies"].(map[string]any)
	assert.Equal(t, "ok", deps["store"])
	assert.Equal(t, "disabled", deps["redis"])
}
