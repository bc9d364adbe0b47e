package repository

import (
	"context"

	"github.com/spec-kit/learning-platform/internal/domain"
)

// EnrollmentStats counts enrollments across the platform.
type EnrollmentStats struct {
	Total     int
	Completed int
}

// EnrollmentRepository persists the enrollments owned by users. The
// (user, course) primary key makes Create the uniqueness check.
type EnrollmentRepository interface {
	// Create inserts the entry or returns ErrDuplicate when the pair exists.
	Create(ctx context.Context, e *domain.Enrollment) error
	Get(ctx context.Context, userID, courseID string) (*domain.Enrollment, error)
	GetForUpdate(ctx context.Context, userID, courseID string) (*domain.Enrollment, error)
	Update(ctx context.Context, e *domain.Enrollment) error
	ListByUser(ctx context.Context, userID string) ([]domain.Enrollment, error)
	Stats(ctx context.Context) (EnrollmentStats, error)
}

type enrollmentRepository struct {
	q querier
}

func (r *enrollmentRepository) Create(ctx context.Context, e *domain.Enrollment) error {
	const query = `
        INSERT INTO enrollments (user_id, course_id, progress, status, enrolled_at, completed_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $5)`
	_, err := r.q.Exec(ctx, query, e.UserID, e.CourseID, e.Progress, e.Status, e.EnrolledAt, e.CompletedAt)
	return translateError(err)
}

const enrollmentSelect = `
        SELECT e.user_id, e.course_id, c.title, e.progress, e.status, e.enrolled_at, e.completed_at, e.updated_at
        FROM enrollments e JOIN courses c ON c.id = e.course_id`

func (r *enrollmentRepository) Get(ctx context.Context, userID, courseID string) (*domain.Enrollment, error) {
	e, err := scanEnrollment(r.q.QueryRow(ctx, enrollmentSelect+` WHERE e.user_id=$1 AND e.course_id=$2`, userID, courseID))
	if err != nil {
		return nil, translateError(err)
	}
	return e, nil
}

func (r *enrollmentRepository) GetForUpdate(ctx context.Context, userID, courseID string) (*domain.Enrollment, error) {
	e, err := scanEnrollment(r.q.QueryRow(ctx,
		enrollmentSelect+` WHERE e.user_id=$1 AND e.course_id=$2 FOR UPDATE OF e`, userID, courseID))
	if err != nil {
		return nil, translateError(err)
	}
	return e, nil
}

func (r *enrollmentRepository) Update(ctx context.Context, e *domain.Enrollment) error {
	const query = `
        UPDATE enrollments SET progress=$1, status=$2, completed_at=$3, updated_at=$4
        WHERE user_id=$5 AND course_id=$6`
	cmd, err := r.q.Exec(ctx, query, e.Progress, e.Status, e.CompletedAt, e.UpdatedAt, e.UserID, e.CourseID)
	if err != nil {
		return translateError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *enrollmentRepository) ListByUser(ctx context.Context, userID string) ([]domain.Enrollment, error) {
	rows, err := r.q.Query(ctx, enrollmentSelect+` WHERE e.user_id=$1 ORDER BY e.enrolled_at DESC`, userID)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()

	var result []domain.Enrollment
	for rows.Next() {
		e, err := scanEnrollment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *e)
	}
	return result, rows.Err()
}

func (r *enrollmentRepository) Stats(ctx context.Context) (EnrollmentStats, error) {
	var s EnrollmentStats
	err := r.q.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE completed_at IS NOT NULL) FROM enrollments`,
	).Scan(&s.Total, &s.Completed)
	return s, translateError(err)
}

func scanEnrollment(row rowScanner) (*domain.Enrollment, error) {
	var e domain.Enrollment
	if err := row.Scan(
		&e.UserID,
		&e.CourseID,
		&e.CourseTitle,
		&e.Progress,
		&e.Status,
		&e.EnrolledAt,
		&e.CompletedAt,
		&e.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &e, nil
}
