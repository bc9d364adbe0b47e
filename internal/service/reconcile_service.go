package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/learning-platform/internal/repository"
)

// ReconcileResult counts the rows whose statistics were rewritten.
type ReconcileResult struct {
	Courses int64
	Users   int64
}

// ReconcileService recomputes denormalized counters from the owned collections.
type ReconcileService struct {
	store  repository.Store
	logger *zap.Logger
}

// NewReconcileService constructs the service.
func NewReconcileService(store repository.Store, logger *zap.Logger) *ReconcileService {
	return &ReconcileService{store: store, logger: loggerOrNop(logger)}
}

// Run rewrites course and user statistics in one transaction.
func (s *ReconcileService) Run(ctx context.Context) (ReconcileResult, error) {
	var res ReconcileResult
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		if res.Courses, err = tx.Courses().ReconcileStatistics(ctx); err != nil {
			return err
		}
		res.Users, err = tx.Users().ReconcileStatistics(ctx)
		return err
	})
	if err != nil {
		return ReconcileResult{}, repoError(err, nil)
	}
	s.logger.Info("statistics reconciled", zap.Int64("courses", res.Courses), zap.Int64("users", res.Users))
	return res, nil
}
