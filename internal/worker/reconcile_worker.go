package worker

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/spec-kit/learning-platform/internal/observability"
	"github.com/spec-kit/learning-platform/internal/service"
)

const reconcileTimeout = 5 * time.Minute

// Reconciler recomputes denormalized statistics.
type Reconciler interface {
	Run(ctx context.Context) (service.ReconcileResult, error)
}

// ReconcileScheduler runs a Reconciler on a cron schedule. Overlapping runs
// are skipped.
type ReconcileScheduler struct {
	cron       *cron.Cron
	reconciler Reconciler
	logger     *zap.Logger
}

// NewReconcileScheduler parses spec and registers the job. Call Start to begin.
func NewReconcileScheduler(spec string, reconciler Reconciler, logger *zap.Logger) (*ReconcileScheduler, error) {
	cronLogger := observability.NewCronLogger(logger)
	s := &ReconcileScheduler{
		cron:       cron.New(cron.WithLogger(cronLogger), cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger))),
		reconciler: reconciler,
		logger:     logger,
	}
	if _, err := s.cron.AddFunc(spec, s.runOnce); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *ReconcileScheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), reconcileTimeout)
	defer cancel()

	start := time.Now()
	res, err := s.reconciler.Run(ctx)
	if err != nil {
		s.logger.Error("statistics reconciliation failed", zap.Error(err))
		return
	}
	s.logger.Debug("statistics reconciliation finished",
		zap.Int64("courses", res.Courses),
		zap.Int64("users", res.Users),
		zap.Duration("took", time.Since(start)))
}

// Start runs the scheduler in its own goroutine.
func (s *ReconcileScheduler) Start() {
	s.cron.Start()
}

// Stop prevents new runs; the returned context is done when a running job finishes.
func (s *ReconcileScheduler) Stop() context.Context {
	return s.cron.Stop()
}
