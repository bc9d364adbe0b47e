package service

import (
	"context"
	"errors"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/learning-platform/internal/cache"
	"github.com/spec-kit/learning-platform/internal/domain"
	"github.com/spec-kit/learning-platform/internal/events"
	"github.com/spec-kit/learning-platform/internal/observability"
	"github.com/spec-kit/learning-platform/internal/repository"
	apperrors "github.com/spec-kit/learning-platform/pkg/util"
)

// Clock returns the current time. Services default to UTC wall time.
type Clock func() time.Time

func systemClock() time.Time { return time.Now().UTC() }

func clockOrDefault(c Clock) Clock {
	if c == nil {
		return systemClock
	}
	return c
}

func loggerOrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

// repoError converts a repository error: ErrNotFound becomes notFound when
// given, everything else a storage error.
func repoError(err error, notFound error) error {
	if err == nil {
		return nil
	}
	var de *apperrors.DomainError
	if errors.As(err, &de) {
		return de
	}
	if notFound != nil && errors.Is(err, repository.ErrNotFound) {
		return notFound
	}
	return apperrors.NewStorageError(err)
}

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}

var errCourseNotFound = apperrors.NewNotFoundMessage("Course not found")

// eventSink publishes committed transitions and counts them.
type eventSink struct {
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// publish never fails the caller; the transition is already committed.
func (s eventSink) publish(ctx context.Context, kind events.EventType, courseID, userID string, payload any, at time.Time) {
	s.metrics.RecordWorkflow(string(kind))
	if s.dispatcher == nil {
		return
	}
	event, err := events.NewEvent(kind, courseID, userID, payload, at)
	if err == nil {
		err = s.dispatcher.Publish(context.WithoutCancel(ctx), event)
	}
	if err != nil {
		loggerOrNop(s.logger).Warn("publish event failed",
			zap.String("event_type", string(kind)),
			zap.String("course_id", courseID),
			zap.Error(err))
	}
}

func invalidateCourse(ctx context.Context, h *cache.Helper, logger *zap.Logger, courseID string) {
	if err := h.Delete(ctx, courseID); err != nil {
		loggerOrNop(logger).Warn("course cache invalidation failed", zap.String("course_id", courseID), zap.Error(err))
	}
}

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// Pagination describes one page of a listing.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// pageWindow normalizes 1-based page numbers and clamps the limit. Pages
// whose offset would not fit a 32-bit OFFSET are rejected.
func pageWindow(page, limit int) (int, int, int, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	if page-1 > math.MaxInt32/limit {
		return 0, 0, 0, apperrors.NewValidationError("Invalid page", map[string]any{"page": page})
	}
	return page, limit, (page - 1) * limit, nil
}

func newPagination(page, limit, total int) Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}

func sanitizeUsers(users []domain.User) []domain.User {
	out := make([]domain.User, 0, len(users))
	for _, u := range users {
		out = append(out, *u.Sanitized())
	}
	return out
}
