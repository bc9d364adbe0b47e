package repository

import (
	"context"

	"github.com/spec-kit/learning-platform/internal/domain"
)

// ActivityRepository appends to and reads a user's activity log.
type ActivityRepository interface {
	Append(ctx context.Context, activity *domain.Activity) error
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.Activity, error)
}

type activityRepository struct {
	q querier
}

func (r *activityRepository) Append(ctx context.Context, a *domain.Activity) error {
	const query = `
        INSERT INTO activities (user_id, type, content, reference_id, reference_model, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id`
	err := r.q.QueryRow(ctx, query,
		a.UserID,
		a.Type,
		a.Content,
		a.ReferenceID,
		a.ReferenceModel,
		a.CreatedAt,
	).Scan(&a.ID)
	return translateError(err)
}

func (r *activityRepository) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Activity, error) {
	limit, _ = normalizePage(limit, 0, 10)
	const query = `
        SELECT id, user_id, type, content, reference_id, reference_model, created_at
        FROM activities WHERE user_id=$1
        ORDER BY created_at DESC, id
        LIMIT $2`

	rows, err := r.q.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()

	var result []domain.Activity
	for rows.Next() {
		var a domain.Activity
		if err := rows.Scan(
			&a.ID,
			&a.UserID,
			&a.Type,
			&a.Content,
			&a.ReferenceID,
			&a.ReferenceModel,
			&a.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}
