package repository

import (
	"context"

	"github.com/spec-kit/learning-platform/internal/domain"
)

// RatingRepository persists the ratings owned by courses.
type RatingRepository interface {
	// Upsert writes the rating for (CourseID, UserID), overwriting score,
	// review and timestamp of an existing one. created reports an insert.
	Upsert(ctx context.Context, rating *domain.Rating) (created bool, err error)
	ListByCourse(ctx context.Context, courseID string) ([]domain.Rating, error)
}

type ratingRepository struct {
	q querier
}

func (r *ratingRepository) Upsert(ctx context.Context, rating *domain.Rating) (bool, error) {
	const query = `
        INSERT INTO course_ratings (course_id, user_id, score, review, rated_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (course_id, user_id)
        DO UPDATE SET score = EXCLUDED.score, review = EXCLUDED.review, rated_at = EXCLUDED.rated_at
        RETURNING (xmax = 0)`

	var created bool
	err := r.q.QueryRow(ctx, query,
		rating.CourseID,
		rating.UserID,
		rating.Score,
		rating.Review,
		rating.RatedAt,
	).Scan(&created)
	if err != nil {
		return false, translateError(err)
	}
	return created, nil
}

func (r *ratingRepository) ListByCourse(ctx context.Context, courseID string) ([]domain.Rating, error) {
	const query = `
        SELECT r.course_id, r.user_id, u.name, r.score, r.review, r.rated_at
        FROM course_ratings r JOIN users u ON u.id = r.user_id
        WHERE r.course_id=$1
        ORDER BY r.rated_at DESC`

	rows, err := r.q.Query(ctx, query, courseID)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()

	var result []domain.Rating
	for rows.Next() {
		var rating domain.Rating
		if err := rows.Scan(
			&rating.CourseID,
			&rating.UserID,
			&rating.UserName,
			&rating.Score,
			&rating.Review,
			&rating.RatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, rating)
	}
	return result, rows.Err()
}
