package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/learning-platform/internal/domain"
	"github.com/spec-kit/learning-platform/internal/repository"
)

func seedUser(t *testing.T, s *Store, email string, role domain.Role) *domain.User {
	t.Helper()
	u := &domain.User{Name: "User " + email, Email: email, PasswordHash: "x", Role: role}
	require.NoError(t, s.Users().Create(context.Background(), u))
	return u
}

func seedCourse(t *testing.T, s *Store, instructorID, title string, status domain.CourseStatus) *domain.Course {
	t.Helper()
	c := &domain.Course{
		InstructorID: instructorID,
		Category:     domain.CategoryDevOps,
		Level:        domain.LevelBeginner,
		Status:       status,
	}
	c.SetTitle(title)
	require.NoError(t, s.Courses().Create(context.Background(), c))
	return c
}

func TestUserEmailUniqueCaseInsensitive(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedUser(t, s, "Ada@Example.com", domain.RoleUser)

	err := s.Users().Create(ctx, &domain.User{Name: "dup", Email: "ada@example.COM", PasswordHash: "x"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	got, err := s.Users().GetByEmail(ctx, "ADA@example.com")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", got.Email)
}

func TestEnrollmentPairIsUnique(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	inst := seedUser(t, s, "inst@example.com", domain.RoleInstructor)
	u := seedUser(t, s, "u@example.com", domain.RoleUser)
	c := seedCourse(t, s, inst.ID, "Kubernetes 101", domain.CourseStatusPublished)

	now := time.Now()
	require.NoError(t, s.Enrollments().Create(ctx, domain.NewEnrollment(u.ID, c.ID, now)))
	err := s.Enrollments().Create(ctx, domain.NewEnrollment(u.ID, c.ID, now))
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	list, err := s.Enrollments().ListByUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Kubernetes 101", list[0].CourseTitle)
}

func TestWithinTxRollsBack(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	inst := seedUser(t, s, "inst@example.com", domain.RoleInstructor)
	c := seedCourse(t, s, inst.ID, "Terraform", domain.CourseStatusPublished)

	boom := errors.New("boom")
	err := s.WithinTx(ctx, func(tx repository.Store) error {
		require.NoError(t, tx.Courses().IncrementEnrolled(ctx, c.ID))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.Courses().GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Statistics.TotalEnrolled)

	require.NoError(t, s.WithinTx(ctx, func(tx repository.Store) error {
		return tx.Courses().IncrementEnrolled(ctx, c.ID)
	}))
	got, err = s.Courses().GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Statistics.TotalEnrolled)
}

func TestDeleteRules(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	inst := seedUser(t, s, "inst@example.com", domain.RoleInstructor)
	u := seedUser(t, s, "u@example.com", domain.RoleUser)
	c := seedCourse(t, s, inst.ID, "Go Basics", domain.CourseStatusPublished)
	require.NoError(t, s.Enrollments().Create(ctx, domain.NewEnrollment(u.ID, c.ID, time.Now())))

	assert.ErrorIs(t, s.Users().Delete(ctx, inst.ID), repository.ErrReferenced)

	require.NoError(t, s.Courses().Delete(ctx, c.ID))
	_, err := s.Enrollments().Get(ctx, u.ID, c.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, s.Users().Delete(ctx, inst.ID))
}

func TestCourseListFiltersAndSorts(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	inst := seedUser(t, s, "inst@example.com", domain.RoleInstructor)

	a := seedCourse(t, s, inst.ID, "Alpha Docker", domain.CourseStatusPublished)
	b := seedCourse(t, s, inst.ID, "Beta Docker", domain.CourseStatusPublished)
	seedCourse(t, s, inst.ID, "Gamma Draft", domain.CourseStatusDraft)
	require.NoError(t, s.Courses().SetRatingStats(ctx, a.ID, 3.5, 2))
	require.NoError(t, s.Courses().SetRatingStats(ctx, b.ID, 4.5, 2))

	list, total, err := s.Courses().List(ctx, repository.CourseFilter{
		Search:   "docker",
		Statuses: []domain.CourseStatus{domain.CourseStatusPublished},
		Sort:     []repository.SortField{{Field: repository.SortRating, Desc: true}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, list, 2)
	assert.Equal(t, b.ID, list[0].ID)
	assert.Equal(t, inst.Name, list[0].InstructorName)

	list, total, err = s.Courses().List(ctx, repository.CourseFilter{Limit: 1, Offset: 5})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Empty(t, list)
}

func TestSlugUnique(t *testing.T) {
	s := NewStore()
	inst := seedUser(t, s, "inst@example.com", domain.RoleInstructor)
	seedCourse(t, s, inst.ID, "Rust!", domain.CourseStatusDraft)

	c := &domain.Course{InstructorID: inst.ID}
	c.SetTitle("Rust?")
	assert.ErrorIs(t, s.Courses().Create(context.Background(), c), repository.ErrDuplicate)
}

func TestReconcileStatistics(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	inst := seedUser(t, s, "inst@example.com", domain.RoleInstructor)
	u := seedUser(t, s, "u@example.com", domain.RoleUser)
	c := seedCourse(t, s, inst.ID, "Ansible", domain.CourseStatusPublished)

	now := time.Now()
	e := domain.NewEnrollment(u.ID, c.ID, now)
	e.ApplyProgress(100, now)
	require.NoError(t, s.Enrollments().Create(ctx, e))
	_, err := s.Ratings().Upsert(ctx, &domain.Rating{CourseID: c.ID, UserID: u.ID, Score: 4, RatedAt: now})
	require.NoError(t, err)

	changed, err := s.Courses().ReconcileStatistics(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, changed)

	got, err := s.Courses().GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CourseStatistics{TotalEnrolled: 1, TotalCompleted: 1, AverageRating: 4, TotalRatings: 1}, got.Statistics)

	changed, err = s.Users().ReconcileStatistics(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, changed)

	changed, err = s.Courses().ReconcileStatistics(ctx)
	require.NoError(t, err)
	assert.Zero(t, changed)
}

func TestActivitiesNewestFirst(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	u := seedUser(t, s, "u@example.com", domain.RoleUser)

	for i := 0; i < 12; i++ {
		require.NoError(t, s.Activities().Append(ctx, &domain.Activity{
			UserID:  u.ID,
			Type:    domain.ActivityPost,
			Content: string(rune('a' + i)),
		}))
	}
	list, err := s.Activities().ListByUser(ctx, u.ID, 10)
	require.NoError(t, err)
	require.Len(t, list, 10)
	assert.Equal(t, "l", list[0].Content)
}
