package memory

import (
	"context"
	"sort"

	"github.com/spec-kit/learning-platform/internal/domain"
	"github.com/spec-kit/learning-platform/internal/repository"
)

type enrollmentRepository struct {
	s *Store
}

func (r *enrollmentRepository) withTitle(e domain.Enrollment) *domain.Enrollment {
	if c, ok := r.s.data.courses[e.CourseID]; ok {
		e.CourseTitle = c.Title
	}
	return &e
}

func (r *enrollmentRepository) Create(ctx context.Context, e *domain.Enrollment) error {
	defer r.s.lock()()

	if _, ok := r.s.data.users[e.UserID]; !ok {
		return repository.ErrReferenced
	}
	if _, ok := r.s.data.courses[e.CourseID]; !ok {
		return repository.ErrReferenced
	}
	key := pairKey{e.UserID, e.CourseID}
	if _, exists := r.s.data.enrollments[key]; exists {
		return repository.ErrDuplicate
	}
	r.s.data.enrollments[key] = *e
	return nil
}

func (r *enrollmentRepository) Get(ctx context.Context, userID, courseID string) (*domain.Enrollment, error) {
	defer r.s.lock()()

	e, ok := r.s.data.enrollments[pairKey{userID, courseID}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.withTitle(e), nil
}

func (r *enrollmentRepository) GetForUpdate(ctx context.Context, userID, courseID string) (*domain.Enrollment, error) {
	return r.Get(ctx, userID, courseID)
}

func (r *enrollmentRepository) Update(ctx context.Context, e *domain.Enrollment) error {
	defer r.s.lock()()

	key := pairKey{e.UserID, e.CourseID}
	current, ok := r.s.data.enrollments[key]
	if !ok {
		return repository.ErrNotFound
	}
	current.Progress = e.Progress
	current.Status = e.Status
	current.CompletedAt = e.CompletedAt
	current.UpdatedAt = e.UpdatedAt
	r.s.data.enrollments[key] = current
	return nil
}

func (r *enrollmentRepository) ListByUser(ctx context.Context, userID string) ([]domain.Enrollment, error) {
	defer r.s.lock()()

	var result []domain.Enrollment
	for k, e := range r.s.data.enrollments {
		if k.a == userID {
			result = append(result, *r.withTitle(e))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].EnrolledAt.Equal(result[j].EnrolledAt) {
			return result[i].EnrolledAt.After(result[j].EnrolledAt)
		}
		return result[i].CourseID < result[j].CourseID
	})
	return result, nil
}

func (r *enrollmentRepository) Stats(ctx context.Context) (repository.EnrollmentStats, error) {
	defer r.s.lock()()

	var s repository.EnrollmentStats
	for _, e := range r.s.data.enrollments {
		s.Total++
		if e.CompletedAt != nil {
			s.Completed++
		}
	}
	return s, nil
}
