package services

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	apperrors "task-market.com/task-market/internal/errors"
	repository "task-market.com/task-market/internal/repositories"
)

// SweepService is the periodic reconciliation pass: it pays out completed
// but unpaid tasks whose first submission passed the grace window, and
// expires open tasks past their deadline. Ticks are safe to run
// concurrently with each other and with accept-triggered payouts because
// mutual exclusion lives in the per-task conditional-update lock.
type SweepService struct {
	taskRepo  *repository.TaskRepository
	payout    *PayoutService
	cron      *cron.Cron
	grace     time.Duration
	batchSize int
}

func NewSweepService(
	taskRepo *repository.TaskRepository,
	payout *PayoutService,
	grace time.Duration,
	batchSize int,
) *SweepService {
	return &SweepService{
		taskRepo:  taskRepo,
		payout:    payout,
		cron:      cron.New(),
		grace:     grace,
		batchSize: batchSize,
	}
}

// Start schedules the payout sweep and task expiry jobs in-process.
func (s *SweepService) Start(sweepSpec, expirySpec string) error {
	if _, err := s.cron.AddFunc(sweepSpec, func() {
		if _, err := s.RunOnce(context.Background()); err != nil {
			log.Error().Err(err).Msg("payout sweep tick failed")
		}
	}); err != nil {
		return err
	}

	if _, err := s.cron.AddFunc(expirySpec, func() {
		s.expireOnce(context.Background())
	}); err != nil {
		return err
	}

	s.cron.Start()
	log.Info().Str("sweep", sweepSpec).Str("expiry", expirySpec).Msg("sweep scheduler started")
	return nil
}

// Stop halts the scheduler and waits for a running tick to finish.
func (s *SweepService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// RunOnce executes a single reconciliation tick and reports how many tasks
// were paid out. A database connectivity failure aborts the whole tick
// before any lock is taken; a payout failure releases that task's lock so
// the next run retries it.
func (s *SweepService) RunOnce(ctx context.Context) (int, error) {
	if err := s.taskRepo.Ping(ctx); err != nil {
		log.Error().Err(err).Msg("sweep aborted, database unreachable")
		return 0, err
	}

	threshold := time.Now().UTC().Add(-s.grace)

	candidates, err := s.taskRepo.ListPayoutCandidates(ctx, threshold, s.batchSize)
	if err != nil {
		return 0, err
	}

	processed := 0
	for i := range candidates {
		task := &candidates[i]

		if err := s.taskRepo.AcquirePayoutLock(ctx, task.ID); err != nil {
			if errors.Is(err, apperrors.ErrPayoutLockHeld) {
				// Another process is on it; not our candidate anymore.
				continue
			}
			log.Error().Err(err).Str("task_id", task.ID).Msg("sweep: lock acquisition failed")
			continue
		}

		if err := s.payout.Payout(ctx, task.ID, "sweep"); err != nil {
			log.Error().Err(err).Str("task_id", task.ID).Msg("sweep: payout failed, releasing lock")

			if relErr := s.taskRepo.ReleasePayoutLock(ctx, task.ID); relErr != nil {
				log.Error().Err(relErr).Str("task_id", task.ID).Msg("sweep: failed to release payout lock")
			}
			continue
		}

		processed++
	}

	if len(candidates) > 0 {
		log.Info().
			Int("candidates", len(candidates)).
			Int("processed", processed).
			Msg("payout sweep finished")
	}

	return processed, nil
}

func (s *SweepService) expireOnce(ctx context.Context) {
	expired, err := s.taskRepo.ExpireOpenTasks(ctx, time.Now().UTC())
	if err != nil {
		log.Error().Err(err).Msg("task expiry failed")
		return
	}
	if expired > 0 {
		log.Info().Int64("expired", expired).Msg("open tasks expired")
	}
}
