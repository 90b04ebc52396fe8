package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"task-market.com/task-market/internal/constants"
	apperrors "task-market.com/task-market/internal/errors"
	model "task-market.com/task-market/internal/models"
	"task-market.com/task-market/internal/notify"
	repository "task-market.com/task-market/internal/repositories"
)

// SubmissionService enforces the task/submission state machine:
// in_progress -> submitted -> accepted (completed) or revision_requested
// (back to in_progress, or revision_limit_reached once the bounded counter
// is exhausted).
type SubmissionService struct {
	taskRepo *repository.TaskRepository
	subRepo  *repository.SubmissionRepository
	payout   *PayoutService
	notifier notify.Notifier
}

func NewSubmissionService(
	taskRepo *repository.TaskRepository,
	subRepo *repository.SubmissionRepository,
	payout *PayoutService,
	notifier notify.Notifier,
) *SubmissionService {
	return &SubmissionService{
		taskRepo: taskRepo,
		subRepo:  subRepo,
		payout:   payout,
		notifier: notifier,
	}
}

// CreateSubmission records the next version of the assigned freelancer's
// work and moves the task to submitted. The first submission stamps
// firstSubmissionAt, the payout-eligibility clock.
func (s *SubmissionService) CreateSubmission(
	ctx context.Context,
	taskID, freelancerID, message string,
	attachments []model.Attachment,
) (*model.Submission, error) {
	task, err := s.findTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	switch task.Status {
	case constants.StatusInProgress:
		// proceed
	case constants.StatusSubmitted:
		return nil, apperrors.ErrAwaitingReview
	case constants.StatusRevisionLimitReached:
		return nil, apperrors.ErrAwaitingFinalDecision
	default:
		return nil, apperrors.ErrSubmissionsClosed
	}

	if task.AssignedTo != freelancerID {
		return nil, apperrors.ErrNotAuthorized
	}
	if message == "" && len(attachments) == 0 {
		return nil, apperrors.ErrEmptySubmission
	}

	version, err := s.subRepo.NextVersion(ctx, taskID)
	if err != nil {
		return nil, err
	}

	sub := &model.Submission{
		TaskID:       taskID,
		FreelancerID: freelancerID,
		Version:      version,
		Message:      message,
		Attachments:  attachments,
		Status:       constants.SubmissionSubmitted,
	}

	if err := s.subRepo.Create(ctx, sub); err != nil {
		return nil, err
	}

	task.Status = constants.StatusSubmitted
	if task.FirstSubmissionAt == nil {
		now := time.Now().UTC()
		task.FirstSubmissionAt = &now
	}

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, err
	}

	log.Info().
		Str("task_id", task.ID).
		Int("version", version).
		Msg("submission created")

	notify.Dispatch(func() { s.notifier.SubmissionReceived(task, sub) })
	return sub, nil
}

// AcceptSubmission marks the work accepted and the task completed, then
// triggers the payout as a best-effort side effect. Acceptance is never
// rolled back when the payout fails; the failed attempt releases the lock
// and is retried by the reconciliation sweep.
func (s *SubmissionService) AcceptSubmission(ctx context.Context, submissionID, uploaderID string) error {
	sub, task, err := s.findForReview(ctx, submissionID, uploaderID)
	if err != nil {
		return err
	}

	if sub.Status == constants.SubmissionAccepted {
		return apperrors.ErrAlreadyAccepted
	}

	sub.Status = constants.SubmissionAccepted
	if err := s.subRepo.UpdateStatus(ctx, sub); err != nil {
		return err
	}

	// A racing sweep bumps the task version through its lock and payout
	// writes; retry from a fresh read so the recorded acceptance always
	// reaches the completed transition.
	for attempt := 0; ; attempt++ {
		task.Status = constants.StatusCompleted
		err = s.taskRepo.Update(ctx, task)
		if err == nil || !errors.Is(err, apperrors.ErrOptimisticLock) || attempt == 3 {
			break
		}
		if task, err = s.findTask(ctx, sub.TaskID); err != nil {
			return err
		}
	}
	if err != nil {
		return err
	}

	log.Info().
		Str("task_id", task.ID).
		Int("version", sub.Version).
		Msg("submission accepted, task completed")

	notify.Dispatch(func() { s.notifier.SubmissionDecision(task, sub) })

	s.triggerPayout(ctx, task.ID)
	return nil
}

// triggerPayout attempts a payout under the per-task lock. Losing the lock
// to a concurrent sweep run is fine: whoever holds it pays out.
func (s *SubmissionService) triggerPayout(ctx context.Context, taskID string) {
	if err := s.taskRepo.AcquirePayoutLock(ctx, taskID); err != nil {
		if errors.Is(err, apperrors.ErrPayoutLockHeld) {
			log.Debug().Str("task_id", taskID).Msg("payout lock held elsewhere, skipping")
		} else {
			log.Error().Err(err).Str("task_id", taskID).Msg("payout lock acquisition failed")
		}
		return
	}

	if err := s.payout.Payout(ctx, taskID, "accept"); err != nil {
		log.Error().Err(err).
			Str("task_id", taskID).
			Msg("payout after acceptance failed, left for reconciliation sweep")

		if relErr := s.taskRepo.ReleasePayoutLock(ctx, taskID); relErr != nil {
			log.Error().Err(relErr).Str("task_id", taskID).Msg("failed to release payout lock")
		}
	}
}

// RequestRevision sends the latest submission back to the freelancer,
// consuming one of the bounded revision slots. Reaching the limit parks the
// task in revision_limit_reached, where only the uploader's acceptance can
// move it forward.
func (s *SubmissionService) RequestRevision(ctx context.Context, submissionID, uploaderID, note string) error {
	sub, task, err := s.findForReview(ctx, submissionID, uploaderID)
	if err != nil {
		return err
	}

	if sub.Status == constants.SubmissionAccepted {
		return apperrors.ErrAlreadyAccepted
	}
	if task.RevisionRequestsUsed >= task.MaxRevisionRequests {
		return apperrors.ErrRevisionLimitReached
	}
	if task.Status != constants.StatusSubmitted {
		return apperrors.ErrNotAwaitingReview
	}

	task.RevisionRequestsUsed++
	if task.RevisionRequestsUsed >= task.MaxRevisionRequests {
		task.Status = constants.StatusRevisionLimitReached
	} else {
		task.Status = constants.StatusInProgress
	}

	sub.Status = constants.SubmissionRevisionRequested
	sub.RevisionNote = note
	if err := s.subRepo.UpdateStatus(ctx, sub); err != nil {
		return err
	}

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return err
	}

	log.Info().
		Str("task_id", task.ID).
		Int("version", sub.Version).
		Int("revisions_used", task.RevisionRequestsUsed).
		Str("status", string(task.Status)).
		Msg("revision requested")

	notify.Dispatch(func() { s.notifier.SubmissionDecision(task, sub) })
	return nil
}

func (s *SubmissionService) ListSubmissions(ctx context.Context, taskID, userID string) ([]model.Submission, error) {
	task, err := s.findTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if task.UploadedBy != userID && task.AssignedTo != userID {
		return nil, apperrors.ErrNotAuthorized
	}

	return s.subRepo.ListByTask(ctx, taskID)
}

func (s *SubmissionService) findTask(ctx context.Context, taskID string) (*model.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTaskNotFound
		}
		return nil, err
	}
	return task, nil
}

func (s *SubmissionService) findForReview(ctx context.Context, submissionID, uploaderID string) (*model.Submission, *model.Task, error) {
	sub, err := s.subRepo.FindByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperrors.ErrSubmissionNotFound
		}
		return nil, nil, err
	}

	task, err := s.findTask(ctx, sub.TaskID)
	if err != nil {
		return nil, nil, err
	}

	if task.UploadedBy != uploaderID {
		return nil, nil, apperrors.ErrNotAuthorized
	}

	return sub, task, nil
}
