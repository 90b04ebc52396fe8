package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	apperrors "task-market.com/task-market/internal/errors"
	"task-market.com/task-market/internal/gateway"
	"task-market.com/task-market/internal/money"
	model "task-market.com/task-market/internal/models"
	"task-market.com/task-market/internal/notify"
	repository "task-market.com/task-market/internal/repositories"
)

// PayoutService moves a task's net amount to the assigned freelancer.
// Callers must hold the task's payout lock (AcquirePayoutLock) before
// invoking Payout; on failure they release it so the sweep can retry.
type PayoutService struct {
	taskRepo *repository.TaskRepository
	userRepo *repository.UserRepository
	gateway  gateway.Client
	currency string
	notifier notify.Notifier
}

func NewPayoutService(
	taskRepo *repository.TaskRepository,
	userRepo *repository.UserRepository,
	gw gateway.Client,
	currency string,
	notifier notify.Notifier,
) *PayoutService {
	return &PayoutService{
		taskRepo: taskRepo,
		userRepo: userRepo,
		gateway:  gw,
		currency: currency,
		notifier: notifier,
	}
}

// Payout executes the gateway transfer for a task. The idempotency key is
// generated once and persisted before the gateway call, so a retry after an
// ambiguous timeout reuses the same key and cannot create a duplicate
// transfer. payoutDone is the terminal tombstone: already-paid is a quiet
// no-op, not an operator alarm.
//
// A concurrent status write (acceptance recording) can bump the task
// version between our read and the key store; that conflict is retried
// from a fresh read rather than surfaced to the caller.
func (s *PayoutService) Payout(ctx context.Context, taskID, triggeredBy string) error {
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		err = s.payoutOnce(ctx, taskID, triggeredBy)
		if !errors.Is(err, apperrors.ErrOptimisticLock) {
			return err
		}
	}
	return err
}

func (s *PayoutService) payoutOnce(ctx context.Context, taskID, triggeredBy string) error {
	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrTaskNotFound
		}
		return err
	}

	if task.Payment.PayoutDone {
		return apperrors.ErrAlreadyPaid
	}
	if task.AssignedTo == "" {
		return apperrors.ErrNoAssignedFreelancer
	}
	if task.Payment.PaymentID == "" || task.Payment.Amount <= 0 {
		return apperrors.ErrPaymentNotCaptured
	}

	// Derived deterministically from the order-time fee snapshot.
	feeAmount := money.Round2(task.Payment.Amount * task.Payment.PlatformFeePercent / 100)
	netAmount := money.Round2(task.Payment.Amount - feeAmount)

	freelancer, err := s.userRepo.FindByID(ctx, task.AssignedTo)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrUserNotFound
		}
		return err
	}

	fundAccountID, err := s.ensureFundAccount(ctx, freelancer)
	if err != nil {
		return err
	}

	if task.Payment.IdempotencyKey == "" {
		task.Payment.IdempotencyKey = uuid.NewString()
		task.Payment.PlatformFeeAmount = feeAmount
		task.Payment.NetPayoutAmount = netAmount
		if err := s.taskRepo.Update(ctx, task); err != nil {
			return fmt.Errorf("store idempotency key: %w", err)
		}
	}

	payout, err := s.gateway.CreatePayout(
		ctx,
		fundAccountID,
		money.MinorUnits(netAmount),
		s.currency,
		"Payout for task "+task.ID,
		"task_"+task.ID,
		task.Payment.IdempotencyKey,
	)
	if err != nil {
		return fmt.Errorf("create payout: %w", err)
	}

	if err := s.taskRepo.MarkPayoutDone(ctx, task.ID, payout.ID); err != nil {
		return err
	}

	task.Payment.PayoutID = payout.ID
	task.Payment.PayoutDone = true

	log.Info().
		Str("task_id", task.ID).
		Str("payout_id", payout.ID).
		Str("triggered_by", triggeredBy).
		Float64("net_amount", netAmount).
		Msg("payout completed")

	notify.Dispatch(func() { s.notifier.PayoutCompleted(task) })
	return nil
}

// ensureFundAccount resolves the freelancer's gateway fund account,
// provisioning contact + fund account on first use and persisting the
// linkage at most once per user. Losing the linkage race falls back to the
// ids the winner stored.
func (s *PayoutService) ensureFundAccount(ctx context.Context, freelancer *model.User) (string, error) {
	if freelancer.GatewayFundAccountID != "" {
		return freelancer.GatewayFundAccountID, nil
	}

	if freelancer.UpiID == "" {
		return "", apperrors.ErrNoPayoutDestination
	}

	contact, err := s.gateway.CreateContact(ctx, freelancer.Name, freelancer.Email, freelancer.Phone, "user_"+freelancer.ID)
	if err != nil {
		return "", fmt.Errorf("create contact: %w", err)
	}

	account, err := s.gateway.CreateFundAccount(ctx, contact.ID, freelancer.UpiID)
	if err != nil {
		return "", fmt.Errorf("create fund account: %w", err)
	}

	linked, err := s.userRepo.LinkFundAccount(ctx, freelancer.ID, contact.ID, account.ID)
	if err != nil {
		return "", err
	}
	if !linked {
		fresh, err := s.userRepo.FindByID(ctx, freelancer.ID)
		if err != nil {
			return "", err
		}
		return fresh.GatewayFundAccountID, nil
	}

	return account.ID, nil
}
