package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/learning-platform/internal/cache"
	"github.com/spec-kit/learning-platform/internal/domain"
	"github.com/spec-kit/learning-platform/internal/events"
	"github.com/spec-kit/learning-platform/internal/repository"
	apperrors "github.com/spec-kit/learning-platform/pkg/util"
)

const maxReviewLength = 2000

// RatingService records course ratings from users who completed the course.
type RatingService struct {
	store  repository.Store
	cache  *cache.Helper
	events eventSink
	logger *zap.Logger
	now    Clock
}

// NewRatingService constructs the service.
func NewRatingService(deps WorkflowDependencies) *RatingService {
	return &RatingService{
		store:  deps.Store,
		cache:  deps.Cache,
		events: deps.sink(),
		logger: loggerOrNop(deps.Logger),
		now:    clockOrDefault(deps.Clock),
	}
}

// Rate creates or overwrites the caller's rating and recomputes the course
// average. It returns the course with its ratings after the change.
func (s *RatingService) Rate(ctx context.Context, user *domain.User, courseID string, score int, review string) (*CourseDetail, error) {
	if score < domain.MinRatingScore || score > domain.MaxRatingScore {
		return nil, apperrors.NewValidationError("Rating must be between 1 and 5", map[string]any{"rating": score})
	}
	review = strings.TrimSpace(review)
	if len([]rune(review)) > maxReviewLength {
		return nil, apperrors.NewValidationError("Review cannot be more than 2000 characters", nil)
	}

	now := s.now()
	var (
		detail  *CourseDetail
		created bool
	)

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		if _, err := tx.Courses().GetForUpdate(ctx, courseID); err != nil {
			return repoError(err, errCourseNotFound)
		}

		enrollment, err := tx.Enrollments().Get(ctx, user.ID, courseID)
		if err != nil && !isNotFound(err) {
			return repoError(err, nil)
		}
		if !enrollment.IsCompleted() {
			return apperrors.NewValidationError("You must complete the course before rating it", map[string]any{"courseId": courseID})
		}

		created, err = tx.Ratings().Upsert(ctx, &domain.Rating{
			CourseID: courseID,
			UserID:   user.ID,
			Score:    score,
			Review:   review,
			RatedAt:  now,
		})
		if err != nil {
			return repoError(err, errCourseNotFound)
		}

		ratings, err := tx.Ratings().ListByCourse(ctx, courseID)
		if err != nil {
			return repoError(err, nil)
		}
		avg := domain.RoundedAverage(domain.Scores(ratings))
		if err := tx.Courses().SetRatingStats(ctx, courseID, avg, len(ratings)); err != nil {
			return repoError(err, errCourseNotFound)
		}

		detail, err = loadCourseDetail(ctx, tx, courseID)
		return err
	})
	if err != nil {
		return nil, err
	}

	invalidateCourse(ctx, s.cache, s.logger, courseID)
	stats := detail.Course.Statistics
	s.events.publish(ctx, events.EventCourseRated, courseID, user.ID, events.CourseRatedPayload{
		Score:         score,
		Created:       created,
		AverageRating: stats.AverageRating,
		TotalRatings:  stats.TotalRatings,
	}, now)
	return detail, nil
}
