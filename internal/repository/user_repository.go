package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spec-kit/learning-platform/internal/domain"
)

// UserFilter narrows administrative user listings.
type UserFilter struct {
	Role   domain.Role
	Search string
	Limit  int
	Offset int
}

// UserPatch lists the user columns to overwrite. Nil fields keep their
// stored value, so concurrent edits of different fields never undo each
// other.
type UserPatch struct {
	Name           *string
	Email          *string
	Role           *domain.Role
	Avatar         *string
	Title          *string
	Bio            *string
	Skills         *[]domain.Skill
	Certifications *[]domain.Certification
}

// UserRepository defines persistence access for users.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Patch(ctx context.Context, id string, patch UserPatch) (*domain.User, error)
	SetPassword(ctx context.Context, id, hash string) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, filter UserFilter) ([]domain.User, int, error)
	TouchLogin(ctx context.Context, id string, at time.Time) error
	IncrementCoursesCompleted(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
	CountCreatedSince(ctx context.Context, since time.Time) (int, error)
	ReconcileStatistics(ctx context.Context) (int64, error)
}

type userRepository struct {
	q querier
}

const userColumns = `id, name, email, password_hash, role, avatar, title, bio, skills, certifications,
               total_courses_completed, average_rating, projects_completed, last_login_at, created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (name, email, password_hash, role, avatar, title, bio, skills, certifications)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id, created_at, updated_at`

	err := r.q.QueryRow(ctx, query,
		user.Name,
		domain.NormalizeEmail(user.Email),
		user.PasswordHash,
		user.Role,
		user.Avatar,
		user.Title,
		user.Bio,
		nonNilSkills(user.Skills),
		nonNilCertifications(user.Certifications),
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	return translateError(err)
}

// Patch writes only the non-nil fields of patch in a single statement and
// returns the stored row.
func (r *userRepository) Patch(ctx context.Context, id string, patch UserPatch) (*domain.User, error) {
	query := `
        UPDATE users SET
            name = COALESCE($2::text, name),
            email = COALESCE($3::text, email),
            role = COALESCE($4::text, role),
            avatar = COALESCE($5::text, avatar),
            title = COALESCE($6::text, title),
            bio = COALESCE($7::text, bio),
            skills = COALESCE($8::jsonb, skills),
            certifications = COALESCE($9::jsonb, certifications),
            updated_at = NOW()
        WHERE id=$1
        RETURNING ` + userColumns

	var email, role *string
	if patch.Email != nil {
		normalized := domain.NormalizeEmail(*patch.Email)
		email = &normalized
	}
	if patch.Role != nil {
		value := string(*patch.Role)
		role = &value
	}
	var skills, certifications any
	if patch.Skills != nil {
		skills = nonNilSkills(*patch.Skills)
	}
	if patch.Certifications != nil {
		certifications = nonNilCertifications(*patch.Certifications)
	}

	user, err := scanUser(r.q.QueryRow(ctx, query,
		id, patch.Name, email, role, patch.Avatar, patch.Title, patch.Bio, skills, certifications))
	if err != nil {
		return nil, translateError(err)
	}
	return user, nil
}

func (r *userRepository) SetPassword(ctx context.Context, id, hash string) error {
	return r.exec(ctx, `UPDATE users SET password_hash=$1, updated_at=NOW() WHERE id=$2`, hash, id)
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return translateError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.fetchSingle(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.fetchSingle(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email)=$1`, domain.NormalizeEmail(email))
}

func (r *userRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.User, error) {
	user, err := scanUser(r.q.QueryRow(ctx, query, arg))
	if err != nil {
		return nil, translateError(err)
	}
	return user, nil
}

func (r *userRepository) List(ctx context.Context, filter UserFilter) ([]domain.User, int, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Role != "" {
		args = append(args, filter.Role)
		clauses = append(clauses, fmt.Sprintf("role=$%d", len(args)))
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		args = append(args, "%"+strings.ToLower(s)+"%")
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(lower(name) LIKE %s OR lower(email) LIKE %s)", placeholder, placeholder))
	}
	where := strings.Join(clauses, " AND ")

	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, translateError(err)
	}

	limit, offset := normalizePage(filter.Limit, filter.Offset, 20)
	query := fmt.Sprintf(`SELECT %s FROM users WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		userColumns, where, limit, offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, translateError(err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, *user)
	}
	return users, total, rows.Err()
}

func (r *userRepository) TouchLogin(ctx context.Context, id string, at time.Time) error {
	return r.exec(ctx, `UPDATE users SET last_login_at=$1 WHERE id=$2`, at, id)
}

func (r *userRepository) IncrementCoursesCompleted(ctx context.Context, id string) error {
	return r.exec(ctx, `
        UPDATE users SET total_courses_completed = total_courses_completed + 1, updated_at=NOW()
        WHERE id=$1`, id)
}

func (r *userRepository) exec(ctx context.Context, query string, args ...any) error {
	cmd, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		return translateError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, translateError(err)
}

func (r *userRepository) CountCreatedSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE created_at >= $1`, since).Scan(&n)
	return n, translateError(err)
}

// ReconcileStatistics recomputes completed-course counters from enrollments.
func (r *userRepository) ReconcileStatistics(ctx context.Context) (int64, error) {
	const query = `
        UPDATE users u SET total_courses_completed = s.completed, updated_at = NOW()
        FROM (
            SELECT u2.id, COUNT(e.course_id) FILTER (WHERE e.completed_at IS NOT NULL) AS completed
            FROM users u2 LEFT JOIN enrollments e ON e.user_id = u2.id
            GROUP BY u2.id
        ) s
        WHERE u.id = s.id AND u.total_courses_completed <> s.completed`
	cmd, err := r.q.Exec(ctx, query)
	if err != nil {
		return 0, translateError(err)
	}
	return cmd.RowsAffected(), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.Avatar,
		&user.Title,
		&user.Bio,
		&user.Skills,
		&user.Certifications,
		&user.Statistics.TotalCoursesCompleted,
		&user.Statistics.AverageRating,
		&user.Statistics.ProjectsCompleted,
		&user.LastLoginAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

func nonNilSkills(s []domain.Skill) []domain.Skill {
	if s == nil {
		return []domain.Skill{}
	}
	return s
}

func nonNilCertifications(c []domain.Certification) []domain.Certification {
	if c == nil {
		return []domain.Certification{}
	}
	return c
}
