package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/spec-kit/learning-platform/internal/domain"
)

// Sortable course fields accepted by CourseFilter.
const (
	SortCreatedAt = "createdAt"
	SortTitle     = "title"
	SortPrice     = "price"
	SortDuration  = "duration"
	SortRating    = "rating"
	SortEnrolled  = "enrolled"
)

var courseSortColumns = map[string]string{
	SortCreatedAt: "c.created_at",
	SortTitle:     "c.title",
	SortPrice:     "c.price",
	SortDuration:  "c.duration_hours",
	SortRating:    "c.average_rating",
	SortEnrolled:  "c.total_enrolled",
}

// IsSortField reports whether field can be used in a SortField.
func IsSortField(field string) bool {
	_, ok := courseSortColumns[field]
	return ok
}

// SortField orders a course listing.
type SortField struct {
	Field string
	Desc  bool
}

// CourseFilter captures catalog search parameters.
type CourseFilter struct {
	Category domain.Category
	Level    domain.Level
	Search   string
	Statuses []domain.CourseStatus
	Sort     []SortField
	Limit    int
	Offset   int
}

// CourseSummary aggregates catalog-wide numbers for the dashboard.
type CourseSummary struct {
	Total          int
	Published      int
	TotalEnrolled  int
	TotalCompleted int
	AverageRating  float64
}

// CourseRepository encapsulates course persistence.
type CourseRepository interface {
	Create(ctx context.Context, course *domain.Course) error
	Update(ctx context.Context, course *domain.Course) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Course, error)
	// GetForUpdate loads the course and holds a row lock until the
	// enclosing transaction ends.
	GetForUpdate(ctx context.Context, id string) (*domain.Course, error)
	List(ctx context.Context, filter CourseFilter) ([]domain.Course, int, error)
	CountByInstructor(ctx context.Context, instructorID string) (int, error)
	IncrementEnrolled(ctx context.Context, id string) error
	IncrementCompleted(ctx context.Context, id string) error
	SetRatingStats(ctx context.Context, id string, average float64, total int) error
	Summary(ctx context.Context) (CourseSummary, error)
	ReconcileStatistics(ctx context.Context) (int64, error)
}

type courseRepository struct {
	q querier
}

const courseSelect = `
        SELECT c.id, c.title, c.slug, c.description, c.instructor_id, u.name, c.thumbnail, c.category, c.level,
               c.duration_hours, c.price, c.modules, c.requirements, c.objectives, c.tags,
               c.total_enrolled, c.total_completed, c.average_rating, c.total_ratings,
               c.status, c.featured, c.start_date, c.end_date, c.created_at, c.updated_at
        FROM courses c JOIN users u ON u.id = c.instructor_id`

func (r *courseRepository) Create(ctx context.Context, course *domain.Course) error {
	const query = `
        INSERT INTO courses (title, slug, description, instructor_id, thumbnail, category, level, duration_hours,
            price, modules, requirements, objectives, tags, status, featured, start_date, end_date)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
        RETURNING id, created_at, updated_at`

	err := r.q.QueryRow(ctx, query,
		course.Title,
		course.Slug,
		course.Description,
		course.InstructorID,
		course.Thumbnail,
		course.Category,
		course.Level,
		course.DurationHours,
		course.Price,
		nonNilModules(course.Modules),
		nonNilStrings(course.Requirements),
		nonNilStrings(course.Objectives),
		nonNilStrings(course.Tags),
		course.Status,
		course.Featured,
		course.StartDate,
		course.EndDate,
	).Scan(&course.ID, &course.CreatedAt, &course.UpdatedAt)
	return translateError(err)
}

// Update writes the editable fields. Statistics are only changed through
// the counter methods.
func (r *courseRepository) Update(ctx context.Context, course *domain.Course) error {
	const query = `
        UPDATE courses SET title=$1, slug=$2, description=$3, thumbnail=$4, category=$5, level=$6,
            duration_hours=$7, price=$8, modules=$9, requirements=$10, objectives=$11, tags=$12,
            status=$13, featured=$14, start_date=$15, end_date=$16, updated_at=NOW()
        WHERE id=$17
        RETURNING updated_at`

	err := r.q.QueryRow(ctx, query,
		course.Title,
		course.Slug,
		course.Description,
		course.Thumbnail,
		course.Category,
		course.Level,
		course.DurationHours,
		course.Price,
		nonNilModules(course.Modules),
		nonNilStrings(course.Requirements),
		nonNilStrings(course.Objectives),
		nonNilStrings(course.Tags),
		course.Status,
		course.Featured,
		course.StartDate,
		course.EndDate,
		course.ID,
	).Scan(&course.UpdatedAt)
	return translateError(err)
}

func (r *courseRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM courses WHERE id=$1`, id)
	if err != nil {
		return translateError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *courseRepository) GetByID(ctx context.Context, id string) (*domain.Course, error) {
	course, err := scanCourse(r.q.QueryRow(ctx, courseSelect+` WHERE c.id=$1`, id))
	if err != nil {
		return nil, translateError(err)
	}
	return course, nil
}

func (r *courseRepository) GetForUpdate(ctx context.Context, id string) (*domain.Course, error) {
	course, err := scanCourse(r.q.QueryRow(ctx, courseSelect+` WHERE c.id=$1 FOR UPDATE OF c`, id))
	if err != nil {
		return nil, translateError(err)
	}
	return course, nil
}

func (r *courseRepository) List(ctx context.Context, filter CourseFilter) ([]domain.Course, int, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Category != "" {
		args = append(args, filter.Category)
		clauses = append(clauses, fmt.Sprintf("c.category=$%d", len(args)))
	}
	if filter.Level != "" {
		args = append(args, filter.Level)
		clauses = append(clauses, fmt.Sprintf("c.level=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("c.status IN (%s)", strings.Join(placeholders, ",")))
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		args = append(args, "%"+strings.ToLower(s)+"%")
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(lower(c.title) LIKE %s OR lower(c.description) LIKE %s)", placeholder, placeholder))
	}
	where := strings.Join(clauses, " AND ")

	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM courses c WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, translateError(err)
	}

	limit, offset := normalizePage(filter.Limit, filter.Offset, 10)
	query := fmt.Sprintf(`%s WHERE %s ORDER BY %s LIMIT %d OFFSET %d`,
		courseSelect, where, orderBy(filter.Sort), limit, offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, translateError(err)
	}
	defer rows.Close()

	var courses []domain.Course
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, 0, err
		}
		courses = append(courses, *course)
	}
	return courses, total, rows.Err()
}

func orderBy(fields []SortField) string {
	parts := make([]string, 0, len(fields)+1)
	for _, f := range fields {
		column, ok := courseSortColumns[f.Field]
		if !ok {
			continue
		}
		dir := "ASC"
		if f.Desc {
			dir = "DESC"
		}
		parts = append(parts, column+" "+dir)
	}
	if len(parts) == 0 {
		parts = append(parts, "c.created_at DESC")
	}
	return strings.Join(append(parts, "c.id"), ", ")
}

func (r *courseRepository) CountByInstructor(ctx context.Context, instructorID string) (int, error) {
	var n int
	err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM courses WHERE instructor_id=$1`, instructorID).Scan(&n)
	return n, translateError(err)
}

func (r *courseRepository) IncrementEnrolled(ctx context.Context, id string) error {
	return r.exec(ctx, `UPDATE courses SET total_enrolled = total_enrolled + 1, updated_at=NOW() WHERE id=$1`, id)
}

func (r *courseRepository) IncrementCompleted(ctx context.Context, id string) error {
	return r.exec(ctx, `UPDATE courses SET total_completed = total_completed + 1, updated_at=NOW() WHERE id=$1`, id)
}

func (r *courseRepository) SetRatingStats(ctx context.Context, id string, average float64, total int) error {
	return r.exec(ctx, `
        UPDATE courses SET average_rating=$1, total_ratings=$2, updated_at=NOW()
        WHERE id=$3`, average, total, id)
}

func (r *courseRepository) exec(ctx context.Context, query string, args ...any) error {
	cmd, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		return translateError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *courseRepository) Summary(ctx context.Context) (CourseSummary, error) {
	const query = `
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE status = 'published'),
               COALESCE(SUM(total_enrolled), 0),
               COALESCE(SUM(total_completed), 0),
               COALESCE(ROUND(AVG(average_rating) FILTER (WHERE total_ratings > 0)::numeric, 1), 0)::float8
        FROM courses`

	var s CourseSummary
	err := r.q.QueryRow(ctx, query).Scan(&s.Total, &s.Published, &s.TotalEnrolled, &s.TotalCompleted, &s.AverageRating)
	return s, translateError(err)
}

// ReconcileStatistics recomputes the denormalized counters of every course
// from its enrollments and ratings, returning how many rows changed.
func (r *courseRepository) ReconcileStatistics(ctx context.Context) (int64, error) {
	const query = `
        UPDATE courses c SET
            total_enrolled = s.enrolled,
            total_completed = s.completed,
            average_rating = s.average,
            total_ratings = s.ratings,
            updated_at = NOW()
        FROM (
            SELECT c2.id,
                   (SELECT COUNT(*) FROM enrollments e WHERE e.course_id = c2.id) AS enrolled,
                   (SELECT COUNT(*) FROM enrollments e WHERE e.course_id = c2.id AND e.completed_at IS NOT NULL) AS completed,
                   (SELECT COALESCE(ROUND(AVG(score)::numeric, 1), 0)::float8 FROM course_ratings cr WHERE cr.course_id = c2.id) AS average,
                   (SELECT COUNT(*) FROM course_ratings cr WHERE cr.course_id = c2.id) AS ratings
            FROM courses c2
        ) s
        WHERE c.id = s.id
          AND (c.total_enrolled, c.total_completed, c.average_rating, c.total_ratings)
              IS DISTINCT FROM (s.enrolled, s.completed, s.average, s.ratings)`
	cmd, err := r.q.Exec(ctx, query)
	if err != nil {
		return 0, translateError(err)
	}
	return cmd.RowsAffected(), nil
}

func scanCourse(row rowScanner) (*domain.Course, error) {
	var c domain.Course
	if err := row.Scan(
		&c.ID,
		&c.Title,
		&c.Slug,
		&c.Description,
		&c.InstructorID,
		&c.InstructorName,
		&c.Thumbnail,
		&c.Category,
		&c.Level,
		&c.DurationHours,
		&c.Price,
		&c.Modules,
		&c.Requirements,
		&c.Objectives,
		&c.Tags,
		&c.Statistics.TotalEnrolled,
		&c.Statistics.TotalCompleted,
		&c.Statistics.AverageRating,
		&c.Statistics.TotalRatings,
		&c.Status,
		&c.Featured,
		&c.StartDate,
		&c.EndDate,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &c, nil
}

func nonNilModules(m []domain.Module) []domain.Module {
	if m == nil {
		return []domain.Module{}
	}
	return m
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
