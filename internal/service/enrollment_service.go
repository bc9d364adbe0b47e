package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/learning-platform/internal/cache"
	"github.com/spec-kit/learning-platform/internal/domain"
	"github.com/spec-kit/learning-platform/internal/events"
	"github.com/spec-kit/learning-platform/internal/observability"
	"github.com/spec-kit/learning-platform/internal/repository"
	apperrors "github.com/spec-kit/learning-platform/pkg/util"
)

var errEnrollmentNotFound = apperrors.NewNotFoundMessage("Course not found in user's enrolled courses")

// EnrollmentService runs the enrollment and progress workflow.
type EnrollmentService struct {
	store  repository.Store
	cache  *cache.Helper
	events eventSink
	logger *zap.Logger
	now    Clock
}

// WorkflowDependencies bundles the collaborators shared by the enrollment
// and rating workflows.
type WorkflowDependencies struct {
	Store      repository.Store
	Cache      *cache.Helper
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	Clock      Clock
}

func (d WorkflowDependencies) sink() eventSink {
	return eventSink{dispatcher: d.Dispatcher, metrics: d.Metrics, logger: loggerOrNop(d.Logger)}
}

// NewEnrollmentService constructs the service.
func NewEnrollmentService(deps WorkflowDependencies) *EnrollmentService {
	return &EnrollmentService{
		store:  deps.Store,
		cache:  deps.Cache,
		events: deps.sink(),
		logger: loggerOrNop(deps.Logger),
		now:    clockOrDefault(deps.Clock),
	}
}

// Enroll adds the course to the user's enrollments and bumps the course
// enrollment counter in the same transaction.
func (s *EnrollmentService) Enroll(ctx context.Context, user *domain.User, courseID string) (*domain.Enrollment, error) {
	now := s.now()
	var (
		enrollment *domain.Enrollment
		course     *domain.Course
	)

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		course, err = tx.Courses().GetForUpdate(ctx, courseID)
		if err != nil {
			return repoError(err, errCourseNotFound)
		}

		enrollment = domain.NewEnrollment(user.ID, course.ID, now)
		if err := tx.Enrollments().Create(ctx, enrollment); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return apperrors.NewValidationError("Already enrolled in this course", map[string]any{"courseId": course.ID})
			}
			return repoError(err, errCourseNotFound)
		}
		if err := tx.Courses().IncrementEnrolled(ctx, course.ID); err != nil {
			return repoError(err, errCourseNotFound)
		}
		activity := domain.CourseActivity(user.ID, domain.ActivityEnroll, fmt.Sprintf("Enrolled in %s", course.Title), course.ID, now)
		return repoError(tx.Activities().Append(ctx, activity), nil)
	})
	if err != nil {
		return nil, err
	}

	enrollment.CourseTitle = course.Title
	invalidateCourse(ctx, s.cache, s.logger, course.ID)
	s.events.publish(ctx, events.EventCourseEnrolled, course.ID, user.ID, events.CourseEnrolledPayload{
		CourseTitle: course.Title,
	}, now)
	s.logger.Info("user enrolled", zap.String("user_id", user.ID), zap.String("course_id", course.ID))
	return enrollment, nil
}

// UpdateProgress records progress for an enrolled course. The first time an
// enrollment reaches 100 the user and course completion counters move once.
func (s *EnrollmentService) UpdateProgress(ctx context.Context, user *domain.User, courseID string, progress int) (*domain.Enrollment, error) {
	if !domain.ValidProgress(progress) {
		return nil, apperrors.NewValidationError("Progress must be between 0 and 100", map[string]any{"progress": progress})
	}

	now := s.now()
	var (
		enrollment     *domain.Enrollment
		firstCompleted bool
	)

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		enrollment, err = tx.Enrollments().GetForUpdate(ctx, user.ID, courseID)
		if err != nil {
			return repoError(err, errEnrollmentNotFound)
		}

		firstCompleted = enrollment.ApplyProgress(progress, now)
		if err := tx.Enrollments().Update(ctx, enrollment); err != nil {
			return repoError(err, errEnrollmentNotFound)
		}
		if !firstCompleted {
			return nil
		}

		if err := tx.Users().IncrementCoursesCompleted(ctx, user.ID); err != nil {
			return repoError(err, nil)
		}
		if err := tx.Courses().IncrementCompleted(ctx, courseID); err != nil {
			return repoError(err, errCourseNotFound)
		}
		activity := domain.CourseActivity(user.ID, domain.ActivityComplete,
			fmt.Sprintf("Completed %s", enrollment.CourseTitle), courseID, now)
		return repoError(tx.Activities().Append(ctx, activity), nil)
	})
	if err != nil {
		return nil, err
	}

	if firstCompleted {
		invalidateCourse(ctx, s.cache, s.logger, courseID)
		s.events.publish(ctx, events.EventCourseCompleted, courseID, user.ID, events.CourseCompletedPayload{
			CourseTitle: enrollment.CourseTitle,
			UserName:    user.Name,
			UserEmail:   user.Email,
		}, now)
		s.logger.Info("course completed", zap.String("user_id", user.ID), zap.String("course_id", courseID))
	}
	return enrollment, nil
}
