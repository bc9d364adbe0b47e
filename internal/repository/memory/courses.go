package memory

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/spec-kit/learning-platform/internal/domain"
	"github.com/spec-kit/learning-platform/internal/repository"
)

type courseRepository struct {
	s *Store
}

func (r *courseRepository) slugTaken(slug, exceptID string) bool {
	for id, c := range r.s.data.courses {
		if id != exceptID && c.Slug == slug {
			return true
		}
	}
	return false
}

func (r *courseRepository) withInstructor(c domain.Course) *domain.Course {
	if u, ok := r.s.data.users[c.InstructorID]; ok {
		c.InstructorName = u.Name
	}
	return &c
}

func (r *courseRepository) Create(ctx context.Context, course *domain.Course) error {
	defer r.s.lock()()

	if _, ok := r.s.data.users[course.InstructorID]; !ok {
		return repository.ErrReferenced
	}
	if r.slugTaken(course.Slug, "") {
		return repository.ErrDuplicate
	}

	now := r.s.now()
	course.ID = newID()
	course.CreatedAt = now
	course.UpdatedAt = now
	r.s.data.courses[course.ID] = *course
	return nil
}

func (r *courseRepository) Update(ctx context.Context, course *domain.Course) error {
	defer r.s.lock()()

	current, ok := r.s.data.courses[course.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if r.slugTaken(course.Slug, course.ID) {
		return repository.ErrDuplicate
	}

	updated := *course
	updated.InstructorID = current.InstructorID
	updated.Statistics = current.Statistics
	updated.CreatedAt = current.CreatedAt
	updated.UpdatedAt = r.s.now()
	r.s.data.courses[course.ID] = updated

	course.UpdatedAt = updated.UpdatedAt
	return nil
}

func (r *courseRepository) Delete(ctx context.Context, id string) error {
	defer r.s.lock()()

	if _, ok := r.s.data.courses[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.data.courses, id)
	for k := range r.s.data.enrollments {
		if k.b == id {
			delete(r.s.data.enrollments, k)
		}
	}
	for k := range r.s.data.ratings {
		if k.a == id {
			delete(r.s.data.ratings, k)
		}
	}
	return nil
}

func (r *courseRepository) GetByID(ctx context.Context, id string) (*domain.Course, error) {
	defer r.s.lock()()

	c, ok := r.s.data.courses[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.withInstructor(c), nil
}

// GetForUpdate is GetByID; the transaction already holds the store lock.
func (r *courseRepository) GetForUpdate(ctx context.Context, id string) (*domain.Course, error) {
	return r.GetByID(ctx, id)
}

func (r *courseRepository) List(ctx context.Context, filter repository.CourseFilter) ([]domain.Course, int, error) {
	defer r.s.lock()()

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	var matched []domain.Course
	for _, c := range r.s.data.courses {
		if filter.Category != "" && c.Category != filter.Category {
			continue
		}
		if filter.Level != "" && c.Level != filter.Level {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, c.Status) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(c.Title), search) &&
			!strings.Contains(strings.ToLower(c.Description), search) {
			continue
		}
		matched = append(matched, *r.withInstructor(c))
	}

	sortCourses(matched, filter.Sort)
	return page(matched, filter.Limit, filter.Offset, 10), len(matched), nil
}

func containsStatus(statuses []domain.CourseStatus, s domain.CourseStatus) bool {
	for _, v := range statuses {
		if v == s {
			return true
		}
	}
	return false
}

func compareCourses(a, b *domain.Course, field string) int {
	cmpFloat := func(x, y float64) int {
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	}
	switch field {
	case repository.SortTitle:
		return strings.Compare(a.Title, b.Title)
	case repository.SortPrice:
		return cmpFloat(a.Price, b.Price)
	case repository.SortDuration:
		return cmpFloat(a.DurationHours, b.DurationHours)
	case repository.SortRating:
		return cmpFloat(a.Statistics.AverageRating, b.Statistics.AverageRating)
	case repository.SortEnrolled:
		return a.Statistics.TotalEnrolled - b.Statistics.TotalEnrolled
	case repository.SortCreatedAt:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
	return 0
}

func sortCourses(courses []domain.Course, fields []repository.SortField) {
	var order []repository.SortField
	for _, f := range fields {
		if repository.IsSortField(f.Field) {
			order = append(order, f)
		}
	}
	if len(order) == 0 {
		order = []repository.SortField{{Field: repository.SortCreatedAt, Desc: true}}
	}

	sort.SliceStable(courses, func(i, j int) bool {
		for _, f := range order {
			c := compareCourses(&courses[i], &courses[j], f.Field)
			if c == 0 {
				continue
			}
			if f.Desc {
				return c > 0
			}
			return c < 0
		}
		return courses[i].ID < courses[j].ID
	})
}

func (r *courseRepository) CountByInstructor(ctx context.Context, instructorID string) (int, error) {
	defer r.s.lock()()

	n := 0
	for _, c := range r.s.data.courses {
		if c.InstructorID == instructorID {
			n++
		}
	}
	return n, nil
}

func (r *courseRepository) mutate(id string, fn func(c *domain.Course)) error {
	defer r.s.lock()()

	c, ok := r.s.data.courses[id]
	if !ok {
		return repository.ErrNotFound
	}
	fn(&c)
	c.UpdatedAt = r.s.now()
	r.s.data.courses[id] = c
	return nil
}

func (r *courseRepository) IncrementEnrolled(ctx context.Context, id string) error {
	return r.mutate(id, func(c *domain.Course) { c.Statistics.TotalEnrolled++ })
}

func (r *courseRepository) IncrementCompleted(ctx context.Context, id string) error {
	return r.mutate(id, func(c *domain.Course) { c.Statistics.TotalCompleted++ })
}

func (r *courseRepository) SetRatingStats(ctx context.Context, id string, average float64, total int) error {
	return r.mutate(id, func(c *domain.Course) {
		c.Statistics.AverageRating = average
		c.Statistics.TotalRatings = total
	})
}

func (r *courseRepository) Summary(ctx context.Context) (repository.CourseSummary, error) {
	defer r.s.lock()()

	var s repository.CourseSummary
	var rated []float64
	for _, c := range r.s.data.courses {
		s.Total++
		if c.Status == domain.CourseStatusPublished {
			s.Published++
		}
		s.TotalEnrolled += c.Statistics.TotalEnrolled
		s.TotalCompleted += c.Statistics.TotalCompleted
		if c.Statistics.TotalRatings > 0 {
			rated = append(rated, c.Statistics.AverageRating)
		}
	}
	if len(rated) > 0 {
		sum := 0.0
		for _, v := range rated {
			sum += v
		}
		s.AverageRating = roundTenth(sum / float64(len(rated)))
	}
	return s, nil
}

func (r *courseRepository) ReconcileStatistics(ctx context.Context) (int64, error) {
	defer r.s.lock()()

	type totals struct {
		enrolled, completed int
		scores              []int
	}
	byCourse := make(map[string]*totals, len(r.s.data.courses))
	for id := range r.s.data.courses {
		byCourse[id] = &totals{}
	}
	for k, e := range r.s.data.enrollments {
		t := byCourse[k.b]
		if t == nil {
			continue
		}
		t.enrolled++
		if e.CompletedAt != nil {
			t.completed++
		}
	}
	for k, rt := range r.s.data.ratings {
		if t := byCourse[k.a]; t != nil {
			t.scores = append(t.scores, rt.Score)
		}
	}

	var changed int64
	for id, t := range byCourse {
		c := r.s.data.courses[id]
		want := domain.CourseStatistics{
			TotalEnrolled:  t.enrolled,
			TotalCompleted: t.completed,
			AverageRating:  domain.RoundedAverage(t.scores),
			TotalRatings:   len(t.scores),
		}
		if c.Statistics != want {
			c.Statistics = want
			c.UpdatedAt = r.s.now()
			r.s.data.courses[id] = c
			changed++
		}
	}
	return changed, nil
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
