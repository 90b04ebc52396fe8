package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"task-market.com/task-market/internal/constants"
	apperrors "task-market.com/task-market/internal/errors"
	model "task-market.com/task-market/internal/models"
)

// TaskRepository owns all task mutations. Writes that race (state
// transitions, the payout lock) go through conditional updates whose
// RowsAffected result decides whether the caller won.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	task.Version = 1
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC()
	}

	return r.db.WithContext(ctx).Create(task).Error
}

func (r *TaskRepository) FindByID(ctx context.Context, id string) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).First(&task, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *TaskRepository) FindByOrderID(ctx context.Context, orderID string) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).First(&task, "payment_order_id = ?", orderID).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// Update persists every mutable field of the task under the optimistic
// version check. Callers must retry from a fresh read on ErrOptimisticLock.
func (r *TaskRepository) Update(ctx context.Context, task *model.Task) error {
	res := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ? AND version = ?", task.ID, task.Version).
		Updates(map[string]interface{}{
			"title":                        task.Title,
			"description":                  task.Description,
			"category":                     task.Category,
			"deadline":                     task.Deadline,
			"budget":                       task.Budget,
			"status":                       task.Status,
			"assigned_to":                  task.AssignedTo,
			"revision_requests_used":       task.RevisionRequestsUsed,
			"max_revision_requests":        task.MaxRevisionRequests,
			"first_submission_at":          task.FirstSubmissionAt,
			"payment_order_id":             task.Payment.OrderID,
			"payment_payment_id":           task.Payment.PaymentID,
			"payment_amount":               task.Payment.Amount,
			"payment_gateway_fee":          task.Payment.GatewayFee,
			"payment_platform_fee_percent": task.Payment.PlatformFeePercent,
			"payment_platform_fee_amount":  task.Payment.PlatformFeeAmount,
			"payment_net_payout_amount":    task.Payment.NetPayoutAmount,
			"payment_payout_id":            task.Payment.PayoutID,
			"payment_payout_done":          task.Payment.PayoutDone,
			"payment_payout_in_progress":   task.Payment.PayoutInProgress,
			"payment_payout_retries":       task.Payment.PayoutRetries,
			"payment_pending_assigned_to":  task.Payment.PendingAssignedTo,
			"payment_idempotency_key":      task.Payment.IdempotencyKey,
			"payment_paid_at":              task.Payment.PaidAt,
			"version":                      gorm.Expr("version + 1"),
		})

	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		return apperrors.ErrOptimisticLock
	}

	task.Version++
	return nil
}

// AcquirePayoutLock flips payout_in_progress false -> true with a single
// conditional update; the filter guarantees only one process can win even
// across server instances. The same statement moves the task to completed,
// so a payout only ever runs against a completed task. Returns
// ErrPayoutLockHeld when another process holds the lock or the payout is
// already done.
func (r *TaskRepository) AcquirePayoutLock(ctx context.Context, taskID string) error {
	res := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ? AND payment_payout_done = ? AND payment_payout_in_progress = ?", taskID, false, false).
		Updates(map[string]interface{}{
			"payment_payout_in_progress": true,
			"status":                     constants.StatusCompleted,
			"version":                    gorm.Expr("version + 1"),
		})

	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		return apperrors.ErrPayoutLockHeld
	}

	return nil
}

// ReleasePayoutLock unsets the advisory flag after a failed payout attempt
// so a future sweep run may retry, and counts the attempt.
func (r *TaskRepository) ReleasePayoutLock(ctx context.Context, taskID string) error {
	return r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ?", taskID).
		Updates(map[string]interface{}{
			"payment_payout_in_progress": false,
			"payment_payout_retries":     gorm.Expr("payment_payout_retries + 1"),
			"version":                    gorm.Expr("version + 1"),
		}).Error
}

// MarkPayoutDone records the gateway payout id and sets the terminal
// payout_done flag. The payout_done filter makes the transition monotonic:
// a second writer observes zero affected rows and gets ErrAlreadyPaid.
func (r *TaskRepository) MarkPayoutDone(ctx context.Context, taskID, payoutID string) error {
	res := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ? AND payment_payout_done = ?", taskID, false).
		Updates(map[string]interface{}{
			"payment_payout_id":          payoutID,
			"payment_payout_done":        true,
			"payment_payout_in_progress": false,
			"status":                     constants.StatusCompleted,
			"version":                    gorm.Expr("version + 1"),
		})

	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		return apperrors.ErrAlreadyPaid
	}

	return nil
}

// ListPayoutCandidates returns tasks whose first submission is older than
// the grace threshold, with payment captured, a freelancer assigned and no
// payout recorded. Completed tasks are included so a failed earlier attempt
// is retried on the next run.
func (r *TaskRepository) ListPayoutCandidates(ctx context.Context, threshold time.Time, limit int) ([]model.Task, error) {
	if limit <= 0 {
		return nil, apperrors.ErrInvalidLimit
	}

	var tasks []model.Task
	query := r.db.WithContext(ctx).
		Where(
			"status IN ? AND first_submission_at IS NOT NULL AND first_submission_at <= ? AND payment_payment_id <> '' AND payment_payout_done = ? AND assigned_to <> ''",
			[]constants.TaskStatus{constants.StatusSubmitted, constants.StatusCompleted},
			threshold,
			false,
		).
		Order("first_submission_at asc").Limit(limit)

	if err := query.Find(&tasks).Error; err != nil {
		return nil, err
	}

	return tasks, nil
}

// ExpireOpenTasks marks open tasks whose deadline passed as expired.
func (r *TaskRepository) ExpireOpenTasks(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("status = ? AND deadline <= ?", constants.StatusOpen, now).
		Updates(map[string]interface{}{
			"status":  constants.StatusExpired,
			"version": gorm.Expr("version + 1"),
		})

	return res.RowsAffected, res.Error
}

// Delete removes a task only while it is still open with no payment
// identifiers. The filter closes the race with a concurrent order
// creation: a task that gained an orderId after the caller's read survives
// and the caller sees ErrTaskNotDeletable.
func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND status = ? AND payment_order_id = '' AND payment_payment_id = ''", id, constants.StatusOpen).
		Delete(&model.Task{})

	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		return apperrors.ErrTaskNotDeletable
	}

	return nil
}
