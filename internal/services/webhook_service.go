package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"task-market.com/task-market/internal/constants"
	apperrors "task-market.com/task-market/internal/errors"
	"task-market.com/task-market/internal/gateway"
	"task-market.com/task-market/internal/money"
	"task-market.com/task-market/internal/notify"
	repository "task-market.com/task-market/internal/repositories"
)

const (
	eventPaymentCaptured = "payment.captured"
	eventPaymentFailed   = "payment.failed"
)

// WebhookService applies the gateway's at-least-once event stream to the
// ledger. Signature verification happens over the raw body before any
// parsing; every branch after that acks so the gateway does not retry
// storms at us. The event-id cache is a fast path only, marked after the
// mutation committed; the paymentId check on the task is the authoritative
// idempotency guard.
type WebhookService struct {
	taskRepo *repository.TaskRepository
	events   EventCache
	secret   string
	notifier notify.Notifier
}

func NewWebhookService(
	taskRepo *repository.TaskRepository,
	events EventCache,
	secret string,
	notifier notify.Notifier,
) *WebhookService {
	return &WebhookService{
		taskRepo: taskRepo,
		events:   events,
		secret:   secret,
		notifier: notifier,
	}
}

type webhookEnvelope struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID        string `json:"id"`
				OrderID   string `json:"order_id"`
				Amount    int64  `json:"amount"`
				Fee       int64  `json:"fee"`
				CreatedAt int64  `json:"created_at"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

func (s *WebhookService) Handle(ctx context.Context, rawBody []byte, signature, eventID string) error {
	if !gateway.VerifyWebhookSignature(rawBody, signature, s.secret) {
		return apperrors.ErrInvalidSignature
	}

	if s.events != nil && s.events.Seen(ctx, eventID) {
		return nil
	}

	var envelope webhookEnvelope
	if err := json.Unmarshal(rawBody, &envelope); err != nil {
		// Signed but unparseable: ack, retrying cannot help.
		log.Warn().Err(err).Msg("webhook: unparseable payload")
		s.markApplied(ctx, eventID)
		return nil
	}

	var err error
	switch envelope.Event {
	case eventPaymentCaptured:
		err = s.applyCaptured(ctx, &envelope)
	case eventPaymentFailed:
		err = s.applyFailed(ctx, &envelope)
	default:
		// Unknown event kinds are acked for forward compatibility.
	}
	if err != nil {
		// Not marked: the gateway's redelivery must reach the task again.
		return err
	}

	s.markApplied(ctx, eventID)
	return nil
}

func (s *WebhookService) markApplied(ctx context.Context, eventID string) {
	if s.events != nil {
		s.events.Mark(ctx, eventID)
	}
}

func (s *WebhookService) applyCaptured(ctx context.Context, envelope *webhookEnvelope) error {
	entity := envelope.Payload.Payment.Entity

	task, err := s.taskRepo.FindByOrderID(ctx, entity.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Order may belong to a stale or foreign record; ack and move on.
			log.Warn().Str("order_id", entity.OrderID).Msg("webhook: no task for captured order")
			return nil
		}
		return fmt.Errorf("find task by order: %w", err)
	}

	// Captured events may be delivered more than once.
	if task.Payment.PaymentID != "" {
		return nil
	}

	if task.Payment.PendingAssignedTo != "" {
		task.AssignedTo = task.Payment.PendingAssignedTo
	}

	amount := money.FromMinorUnits(entity.Amount)
	paidAt := time.Unix(entity.CreatedAt, 0).UTC()

	task.Payment.PaymentID = entity.ID
	task.Payment.Amount = amount
	task.Payment.GatewayFee = money.FromMinorUnits(entity.Fee)
	task.Payment.PlatformFeeAmount = money.Round2(amount * task.Payment.PlatformFeePercent / 100)
	task.Payment.NetPayoutAmount = money.Round2(amount - task.Payment.PlatformFeeAmount)
	task.Payment.PaidAt = &paidAt
	task.Status = constants.StatusInProgress

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return fmt.Errorf("apply captured payment: %w", err)
	}

	log.Info().
		Str("task_id", task.ID).
		Str("payment_id", entity.ID).
		Str("freelancer_id", task.AssignedTo).
		Msg("payment captured, task assigned")

	notify.Dispatch(func() { s.notifier.TaskAssigned(task) })
	return nil
}

// applyFailed clears pending payment identifiers so the uploader can start
// a fresh order attempt. Task status is left unchanged and the event is
// always acked.
func (s *WebhookService) applyFailed(ctx context.Context, envelope *webhookEnvelope) error {
	entity := envelope.Payload.Payment.Entity

	task, err := s.taskRepo.FindByOrderID(ctx, entity.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("find task by order: %w", err)
	}

	// A capture already recorded for this task wins over a late failure.
	if task.Payment.PaymentID != "" {
		return nil
	}

	task.Payment.OrderID = ""
	task.Payment.PendingAssignedTo = ""

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return fmt.Errorf("apply failed payment: %w", err)
	}

	log.Info().Str("task_id", task.ID).Str("order_id", entity.OrderID).Msg("payment failed, order cleared")
	return nil
}
