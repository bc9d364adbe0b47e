package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/spec-kit/learning-platform/internal/domain"
	"github.com/spec-kit/learning-platform/internal/repository"
)

type userRepository struct {
	s *Store
}

func (r *userRepository) emailTaken(email, exceptID string) bool {
	for id, u := range r.s.data.users {
		if id != exceptID && u.Email == email {
			return true
		}
	}
	return false
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	defer r.s.lock()()

	email := domain.NormalizeEmail(user.Email)
	if r.emailTaken(email, "") {
		return repository.ErrDuplicate
	}

	now := r.s.now()
	user.ID = newID()
	user.Email = email
	user.CreatedAt = now
	user.UpdatedAt = now
	r.s.data.users[user.ID] = *user
	return nil
}

func (r *userRepository) Patch(ctx context.Context, id string, patch repository.UserPatch) (*domain.User, error) {
	defer r.s.lock()()

	current, ok := r.s.data.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if patch.Email != nil {
		email := domain.NormalizeEmail(*patch.Email)
		if r.emailTaken(email, id) {
			return nil, repository.ErrDuplicate
		}
		current.Email = email
	}
	setIf(&current.Name, patch.Name)
	setIf(&current.Role, patch.Role)
	setIf(&current.Avatar, patch.Avatar)
	setIf(&current.Title, patch.Title)
	setIf(&current.Bio, patch.Bio)
	setIf(&current.Skills, patch.Skills)
	setIf(&current.Certifications, patch.Certifications)
	current.UpdatedAt = r.s.now()
	r.s.data.users[id] = current

	out := current
	return &out, nil
}

func (r *userRepository) SetPassword(ctx context.Context, id, hash string) error {
	defer r.s.lock()()

	current, ok := r.s.data.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	current.PasswordHash = hash
	current.UpdatedAt = r.s.now()
	r.s.data.users[id] = current
	return nil
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	defer r.s.lock()()

	if _, ok := r.s.data.users[id]; !ok {
		return repository.ErrNotFound
	}
	for _, c := range r.s.data.courses {
		if c.InstructorID == id {
			return repository.ErrReferenced
		}
	}

	delete(r.s.data.users, id)
	for k := range r.s.data.enrollments {
		if k.a == id {
			delete(r.s.data.enrollments, k)
		}
	}
	for k := range r.s.data.ratings {
		if k.b == id {
			delete(r.s.data.ratings, k)
		}
	}
	kept := r.s.data.activities[:0]
	for _, a := range r.s.data.activities {
		if a.UserID != id {
			kept = append(kept, a)
		}
	}
	r.s.data.activities = kept
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	defer r.s.lock()()

	u, ok := r.s.data.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	defer r.s.lock()()

	email = domain.NormalizeEmail(email)
	for _, u := range r.s.data.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepository) List(ctx context.Context, filter repository.UserFilter) ([]domain.User, int, error) {
	defer r.s.lock()()

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	var matched []domain.User
	for _, u := range r.s.data.users {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(u.Name), search) && !strings.Contains(u.Email, search) {
			continue
		}
		matched = append(matched, u)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})
	return page(matched, filter.Limit, filter.Offset, 20), len(matched), nil
}

func (r *userRepository) TouchLogin(ctx context.Context, id string, at time.Time) error {
	defer r.s.lock()()

	u, ok := r.s.data.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.LastLoginAt = &at
	r.s.data.users[id] = u
	return nil
}

func (r *userRepository) IncrementCoursesCompleted(ctx context.Context, id string) error {
	defer r.s.lock()()

	u, ok := r.s.data.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Statistics.TotalCoursesCompleted++
	u.UpdatedAt = r.s.now()
	r.s.data.users[id] = u
	return nil
}

func (r *userRepository) Count(ctx context.Context) (int, error) {
	defer r.s.lock()()
	return len(r.s.data.users), nil
}

func (r *userRepository) CountCreatedSince(ctx context.Context, since time.Time) (int, error) {
	defer r.s.lock()()

	n := 0
	for _, u := range r.s.data.users {
		if !u.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (r *userRepository) ReconcileStatistics(ctx context.Context) (int64, error) {
	defer r.s.lock()()

	completed := make(map[string]int)
	for k, e := range r.s.data.enrollments {
		if e.CompletedAt != nil {
			completed[k.a]++
		}
	}

	var changed int64
	for id, u := range r.s.data.users {
		if u.Statistics.TotalCoursesCompleted != completed[id] {
			u.Statistics.TotalCoursesCompleted = completed[id]
			u.UpdatedAt = r.s.now()
			r.s.data.users[id] = u
			changed++
		}
	}
	return changed, nil
}
