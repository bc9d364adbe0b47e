package memory

import (
	"context"
	"sort"

	"github.com/spec-kit/learning-platform/internal/domain"
	"github.com/spec-kit/learning-platform/internal/repository"
)

type ratingRepository struct {
	s *Store
}

func (r *ratingRepository) Upsert(ctx context.Context, rating *domain.Rating) (bool, error) {
	defer r.s.lock()()

	if _, ok := r.s.data.courses[rating.CourseID]; !ok {
		return false, repository.ErrReferenced
	}
	if _, ok := r.s.data.users[rating.UserID]; !ok {
		return false, repository.ErrReferenced
	}

	key := pairKey{rating.CourseID, rating.UserID}
	current, exists := r.s.data.ratings[key]
	if exists {
		current.Score = rating.Score
		current.Review = rating.Review
		current.RatedAt = rating.RatedAt
		r.s.data.ratings[key] = current
		return false, nil
	}
	r.s.data.ratings[key] = *rating
	return true, nil
}

func (r *ratingRepository) ListByCourse(ctx context.Context, courseID string) ([]domain.Rating, error) {
	defer r.s.lock()()

	var result []domain.Rating
	for k, rt := range r.s.data.ratings {
		if k.a != courseID {
			continue
		}
		if u, ok := r.s.data.users[rt.UserID]; ok {
			rt.UserName = u.Name
		}
		result = append(result, rt)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].RatedAt.Equal(result[j].RatedAt) {
			return result[i].RatedAt.After(result[j].RatedAt)
		}
		return result[i].UserID < result[j].UserID
	})
	return result, nil
}
