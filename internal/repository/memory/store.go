// Package memory provides an in-process repository.Store with the same
// uniqueness and referential rules as the Postgres schema.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/learning-platform/internal/domain"
	"github.com/spec-kit/learning-platform/internal/repository"
)

var _ repository.Store = (*Store)(nil)

type pairKey struct {
	a string
	b string
}

type state struct {
	users       map[string]domain.User
	courses     map[string]domain.Course
	enrollments map[pairKey]domain.Enrollment // (user, course)
	ratings     map[pairKey]domain.Rating     // (course, user)
	activities  []domain.Activity
}

func newState() *state {
	return &state{
		users:       make(map[string]domain.User),
		courses:     make(map[string]domain.Course),
		enrollments: make(map[pairKey]domain.Enrollment),
		ratings:     make(map[pairKey]domain.Rating),
	}
}

func (s *state) clone() *state {
	out := newState()
	for k, v := range s.users {
		out.users[k] = v
	}
	for k, v := range s.courses {
		out.courses[k] = v
	}
	for k, v := range s.enrollments {
		out.enrollments[k] = v
	}
	for k, v := range s.ratings {
		out.ratings[k] = v
	}
	out.activities = append([]domain.Activity(nil), s.activities...)
	return out
}

// Store is a mutex-guarded repository.Store. Transactions hold the lock for
// their whole duration and restore a snapshot on failure.
type Store struct {
	mu   *sync.Mutex
	data *state
	now  func() time.Time
	inTx bool
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		mu:   &sync.Mutex{},
		data: newState(),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the time source used for generated timestamps.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) Users() repository.UserRepository             { return &userRepository{s} }
func (s *Store) Courses() repository.CourseRepository         { return &courseRepository{s} }
func (s *Store) Enrollments() repository.EnrollmentRepository { return &enrollmentRepository{s} }
func (s *Store) Ratings() repository.RatingRepository         { return &ratingRepository{s} }
func (s *Store) Activities() repository.ActivityRepository    { return &activityRepository{s} }

func (s *Store) WithinTx(ctx context.Context, fn func(repository.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	tx := &Store{mu: s.mu, data: s.data, now: s.now, inTx: true}
	if err := fn(tx); err != nil {
		*s.data = *snapshot
		return err
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func newID() string {
	return uuid.NewString()
}

func page[T any](items []T, limit, offset, def int) []T {
	if limit <= 0 {
		limit = def
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
