package memory

import (
	"context"

	"github.com/spec-kit/learning-platform/internal/domain"
	"github.com/spec-kit/learning-platform/internal/repository"
)

type activityRepository struct {
	s *Store
}

func (r *activityRepository) Append(ctx context.Context, a *domain.Activity) error {
	defer r.s.lock()()

	if _, ok := r.s.data.users[a.UserID]; !ok {
		return repository.ErrReferenced
	}
	a.ID = newID()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = r.s.now()
	}
	r.s.data.activities = append(r.s.data.activities, *a)
	return nil
}

// ListByUser returns the newest entries first.
func (r *activityRepository) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Activity, error) {
	defer r.s.lock()()

	if limit <= 0 {
		limit = 10
	}
	var result []domain.Activity
	for i := len(r.s.data.activities) - 1; i >= 0 && len(result) < limit; i-- {
		if a := r.s.data.activities[i]; a.UserID == userID {
			result = append(result, a)
		}
	}
	return result, nil
}
