package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/learning-platform/internal/auth"
	"github.com/spec-kit/learning-platform/internal/config"
	"github.com/spec-kit/learning-platform/internal/domain"
	"github.com/spec-kit/learning-platform/internal/events"
	"github.com/spec-kit/learning-platform/internal/repository/memory"
	apperrors "github.com/spec-kit/learning-platform/pkg/util"
)

var testAuthConfig = config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 60, BcryptCost: 4}

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFixedClock() *fixedClock {
	return &fixedClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (d *recordingDispatcher) Publish(_ context.Context, e events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.events = append(d.events, e)
	return nil
}

func (d *recordingDispatcher) types() []events.EventType {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]events.EventType, 0, len(d.events))
	for _, e := range d.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	store      *memory.Store
	clock      *fixedClock
	dispatcher *recordingDispatcher
	courses    *CourseService
	enroll     *EnrollmentService
	ratings    *RatingService
	users      *UserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	clock := newFixedClock()
	store.SetClock(clock.Now)
	dispatcher := &recordingDispatcher{}

	deps := WorkflowDependencies{Store: store, Dispatcher: dispatcher, Clock: clock.Now}
	return &fixture{
		store:      store,
		clock:      clock,
		dispatcher: dispatcher,
		courses:    NewCourseService(CourseDependencies{Store: store}),
		enroll:     NewEnrollmentService(deps),
		ratings:    NewRatingService(deps),
		users:      NewUserService(testAuthConfig, UserDependencies{Store: store}),
	}
}

func (f *fixture) user(t *testing.T, name string, role domain.Role) *domain.User {
	t.Helper()
	hash, err := auth.HashPassword("secret1", testAuthConfig.BcryptCost)
	require.NoError(t, err)
	u := &domain.User{Name: name, Email: name + "@example.com", PasswordHash: hash, Role: role}
	require.NoError(t, f.store.Users().Create(context.Background(), u))
	return u
}

func (f *fixture) course(t *testing.T, owner *domain.User, title string, status domain.CourseStatus) *domain.Course {
	t.Helper()
	c, err := f.courses.Create(context.Background(), owner, CourseInput{
		Title:    title,
		Category: domain.CategoryWebDevelopment,
		Level:    domain.LevelBeginner,
		Status:   status,
	})
	require.NoError(t, err)
	return c
}

func (f *fixture) complete(t *testing.T, u *domain.User, courseID string) {
	t.Helper()
	ctx := context.Background()
	_, err := f.enroll.Enroll(ctx, u, courseID)
	require.NoError(t, err)
	_, err = f.enroll.UpdateProgress(ctx, u, courseID, 100)
	require.NoError(t, err)
}

func requireDomainError(t *testing.T, err error, status int, message string) *apperrors.DomainError {
	t.Helper()
	require.Error(t, err)
	var de *apperrors.DomainError
	require.True(t, errors.As(err, &de), "expected DomainError, got %T: %v", err, err)
	require.Equal(t, status, de.HTTPStatus)
	if message != "" {
		require.Equal(t, message, de.Message)
	}
	return de
}
