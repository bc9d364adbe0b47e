package repository_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/learning-platform/internal/config"
	"github.com/spec-kit/learning-platform/internal/domain"
	"github.com/spec-kit/learning-platform/internal/persistence"
	"github.com/spec-kit/learning-platform/internal/repository"
)

func newPostgresStore(t *testing.T) repository.Store {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()

	pg, err := persistence.NewPostgres(ctx, config.PostgresConfig{DSN: dsn}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(pg.Close)
	require.NoError(t, persistence.RunMigrations(ctx, pg.Pool, "../../migrations", zap.NewNop()))
	return repository.NewPostgresStore(pg.Pool)
}

func TestPostgresEnrollmentWorkflow(t *testing.T) {
	store := newPostgresStore(t)
	ctx := context.Background()
	suffix := uuid.NewString()

	inst := &domain.User{Name: "Inst", Email: "inst-" + suffix + "@example.com", PasswordHash: "x", Role: domain.RoleInstructor}
	require.NoError(t, store.Users().Create(ctx, inst))
	student := &domain.User{Name: "Student", Email: "s-" + suffix + "@example.com", PasswordHash: "x", Role: domain.RoleUser}
	require.NoError(t, store.Users().Create(ctx, student))

	course := &domain.Course{
		InstructorID: inst.ID,
		Category:     domain.CategoryDevOps,
		Level:        domain.LevelBeginner,
		Status:       domain.CourseStatusPublished,
		Description:  "pg",
		Modules:      []domain.Module{{Title: "M1", Lessons: []domain.Lesson{{Title: "L1", Type: domain.LessonTypeVideo}}}},
	}
	course.SetTitle("Postgres Workflow " + suffix)
	require.NoError(t, store.Courses().Create(ctx, course))
	t.Cleanup(func() {
		_ = store.Courses().Delete(ctx, course.ID)
		_ = store.Users().Delete(ctx, student.ID)
		_ = store.Users().Delete(ctx, inst.ID)
	})

	now := time.Now().UTC()
	require.NoError(t, store.Enrollments().Create(ctx, domain.NewEnrollment(student.ID, course.ID, now)))
	err := store.Enrollments().Create(ctx, domain.NewEnrollment(student.ID, course.ID, now))
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	boom := errors.New("boom")
	err = store.WithinTx(ctx, func(tx repository.Store) error {
		require.NoError(t, tx.Courses().IncrementEnrolled(ctx, course.ID))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	created, err := store.Ratings().Upsert(ctx, &domain.Rating{CourseID: course.ID, UserID: student.ID, Score: 3, RatedAt: now})
	require.NoError(t, err)
	assert.True(t, created)
	created, err = store.Ratings().Upsert(ctx, &domain.Rating{CourseID: course.ID, UserID: student.ID, Score: 5, RatedAt: now})
	require.NoError(t, err)
	assert.False(t, created)

	ratings, err := store.Ratings().ListByCourse(ctx, course.ID)
	require.NoError(t, err)
	require.Len(t, ratings, 1)
	assert.Equal(t, 5, ratings[0].Score)

	got, err := store.Courses().GetByID(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Statistics.TotalEnrolled)
	assert.Equal(t, "Inst", got.InstructorName)
	require.Len(t, got.Modules, 1)

	_, err = store.Courses().GetByID(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, store.Users().Delete(ctx, inst.ID), repository.ErrReferenced)
}
