package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/learning-platform/internal/domain"
	"github.com/spec-kit/learning-platform/internal/events"
)

func TestEnroll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	instructor := f.user(t, "ines", domain.RoleInstructor)
	student := f.user(t, "sam", domain.RoleUser)
	course := f.course(t, instructor, "Go Basics", domain.CourseStatusPublished)

	enrollment, err := f.enroll.Enroll(ctx, student, course.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EnrollmentStatusEnrolled, enrollment.Status)
	assert.Equal(t, 0, enrollment.Progress)
	assert.Equal(t, "Go Basics", enrollment.CourseTitle)

	stored, err := f.store.Courses().GetByID(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Statistics.TotalEnrolled)

	activities, err := f.store.Activities().ListByUser(ctx, student.ID, 10)
	require.NoError(t, err)
	require.Len(t, activities, 1)
	assert.Equal(t, domain.ActivityEnroll, activities[0].Type)
	assert.Equal(t, "Enrolled in Go Basics", activities[0].Content)

	_, err = f.enroll.Enroll(ctx, student, course.ID)
	requireDomainError(t, err, http.StatusBadRequest, "Already enrolled in this course")

	stored, err = f.store.Courses().GetByID(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Statistics.TotalEnrolled, "rejected duplicate must not move the counter")

	_, err = f.enroll.Enroll(ctx, student, "missing")
	requireDomainError(t, err, http.StatusNotFound, "Course not found")

	assert.Equal(t, []events.EventType{events.EventCourseEnrolled}, f.dispatcher.types())
}

func TestUpdateProgress(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	instructor := f.user(t, "ines", domain.RoleInstructor)
	student := f.user(t, "sam", domain.RoleUser)
	course := f.course(t, instructor, "Go Basics", domain.CourseStatusPublished)

	_, err := f.enroll.UpdateProgress(ctx, student, course.ID, 10)
	requireDomainError(t, err, http.StatusNotFound, "Course not found in user's enrolled courses")

	_, err = f.enroll.Enroll(ctx, student, course.ID)
	require.NoError(t, err)

	for _, bad := range []int{-1, 101} {
		_, err = f.enroll.UpdateProgress(ctx, student, course.ID, bad)
		requireDomainError(t, err, http.StatusBadRequest, "")
	}

	e, err := f.enroll.UpdateProgress(ctx, student, course.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, domain.EnrollmentStatusEnrolled, e.Status)

	e, err = f.enroll.UpdateProgress(ctx, student, course.ID, 40)
	require.NoError(t, err)
	assert.Equal(t, domain.EnrollmentStatusInProgress, e.Status)
	assert.Nil(t, e.CompletedAt)

	e, err = f.enroll.UpdateProgress(ctx, student, course.ID, 100)
	require.NoError(t, err)
	assert.Equal(t, domain.EnrollmentStatusCompleted, e.Status)
	require.NotNil(t, e.CompletedAt)
	firstCompletion := *e.CompletedAt

	// Repeating the completion must not count twice.
	f.clock.Advance(time.Hour)
	e, err = f.enroll.UpdateProgress(ctx, student, course.ID, 100)
	require.NoError(t, err)
	assert.Equal(t, firstCompletion, *e.CompletedAt)

	u, err := f.store.Users().GetByID(ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, u.Statistics.TotalCoursesCompleted)

	c, err := f.store.Courses().GetByID(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Statistics.TotalCompleted)

	assert.Equal(t, []events.EventType{events.EventCourseEnrolled, events.EventCourseCompleted}, f.dispatcher.types())

	var payload events.CourseCompletedPayload
	require.NoError(t, f.dispatcher.events[1].DecodePayload(&payload))
	assert.Equal(t, "sam@example.com", payload.UserEmail)
	assert.Equal(t, "Go Basics", payload.CourseTitle)
}

func TestPublishFailureDoesNotFailWorkflow(t *testing.T) {
	f := newFixture(t)
	f.dispatcher.err = errors.New("broker down")
	instructor := f.user(t, "ines", domain.RoleInstructor)
	student := f.user(t, "sam", domain.RoleUser)
	course := f.course(t, instructor, "Go Basics", domain.CourseStatusPublished)

	_, err := f.enroll.Enroll(context.Background(), student, course.ID)
	assert.NoError(t, err)
}

func TestRate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	instructor := f.user(t, "ines", domain.RoleInstructor)
	alice := f.user(t, "alice", domain.RoleUser)
	bob := f.user(t, "bob", domain.RoleUser)
	course := f.course(t, instructor, "Go Basics", domain.CourseStatusPublished)

	_, err := f.ratings.Rate(ctx, alice, "missing", 5, "")
	requireDomainError(t, err, http.StatusNotFound, "Course not found")

	_, err = f.ratings.Rate(ctx, alice, course.ID, 5, "")
	requireDomainError(t, err, http.StatusBadRequest, "You must complete the course before rating it")

	_, err = f.enroll.Enroll(ctx, alice, course.ID)
	require.NoError(t, err)
	_, err = f.ratings.Rate(ctx, alice, course.ID, 5, "")
	requireDomainError(t, err, http.StatusBadRequest, "You must complete the course before rating it")

	_, err = f.enroll.UpdateProgress(ctx, alice, course.ID, 100)
	require.NoError(t, err)
	f.complete(t, bob, course.ID)

	_, err = f.ratings.Rate(ctx, alice, course.ID, 6, "")
	requireDomainError(t, err, http.StatusBadRequest, "")

	detail, err := f.ratings.Rate(ctx, alice, course.ID, 5, "great")
	require.NoError(t, err)
	assert.InDelta(t, 5.0, detail.Course.Statistics.AverageRating, 1e-9)
	assert.Equal(t, 1, detail.Course.Statistics.TotalRatings)

	detail, err = f.ratings.Rate(ctx, bob, course.ID, 4, "")
	require.NoError(t, err)
	assert.InDelta(t, 4.5, detail.Course.Statistics.AverageRating, 1e-9)
	assert.Equal(t, 2, detail.Course.Statistics.TotalRatings)

	// Resubmission overwrites instead of adding a second rating.
	detail, err = f.ratings.Rate(ctx, alice, course.ID, 3, "changed my mind")
	require.NoError(t, err)
	assert.InDelta(t, 3.5, detail.Course.Statistics.AverageRating, 1e-9)
	assert.Equal(t, 2, detail.Course.Statistics.TotalRatings)
	require.Len(t, detail.Ratings, 2)

	// Users who have not completed the course cannot move existing ratings.
	carol := f.user(t, "carol", domain.RoleUser)
	dave := f.user(t, "dave", domain.RoleUser)
	_, err = f.enroll.Enroll(ctx, carol, course.ID)
	require.NoError(t, err)
	_, err = f.enroll.UpdateProgress(ctx, carol, course.ID, 50)
	require.NoError(t, err)
	published := len(f.dispatcher.types())

	for _, u := range []*domain.User{carol, dave} {
		_, err = f.ratings.Rate(ctx, u, course.ID, 1, "")
		requireDomainError(t, err, http.StatusBadRequest, "You must complete the course before rating it")
	}

	unchanged, err := f.courses.Get(ctx, course.ID)
	require.NoError(t, err)
	assert.InDelta(t, 3.5, unchanged.Course.Statistics.AverageRating, 1e-9)
	assert.Equal(t, 2, unchanged.Course.Statistics.TotalRatings)
	assert.Len(t, unchanged.Ratings, 2)
	assert.Len(t, f.dispatcher.types(), published)

	var rated []events.Event
	for _, e := range f.dispatcher.events {
		if e.Type == events.EventCourseRated {
			rated = append(rated, e)
		}
	}
	require.Len(t, rated, 3)
	var last events.CourseRatedPayload
	require.NoError(t, rated[len(rated)-1].DecodePayload(&last))
	assert.False(t, last.Created)
	assert.Equal(t, 3, last.Score)
}

func TestReconcileRepairsDrift(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	instructor := f.user(t, "ines", domain.RoleInstructor)
	student := f.user(t, "sam", domain.RoleUser)
	course := f.course(t, instructor, "Go Basics", domain.CourseStatusPublished)
	f.complete(t, student, course.ID)

	require.NoError(t, f.store.Courses().IncrementEnrolled(ctx, course.ID))
	require.NoError(t, f.store.Users().IncrementCoursesCompleted(ctx, student.ID))

	_, err := NewReconcileService(f.store, nil).Run(ctx)
	require.NoError(t, err)

	c, err := f.store.Courses().GetByID(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Statistics.TotalEnrolled)
	assert.Equal(t, 1, c.Statistics.TotalCompleted)

	u, err := f.store.Users().GetByID(ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, u.Statistics.TotalCoursesCompleted)
}
