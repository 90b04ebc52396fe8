package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"task-market.com/task-market/internal/constants"
	apperrors "task-market.com/task-market/internal/errors"
	"task-market.com/task-market/internal/gateway"
	"task-market.com/task-market/internal/money"
	repository "task-market.com/task-market/internal/repositories"
)

// PaymentService creates gateway orders for a task's budget and records the
// pending assignment. The platform fee percent is snapshotted on the task
// here, at order time, and is the only fee source for the rest of that
// task's lifecycle.
type PaymentService struct {
	taskRepo   *repository.TaskRepository
	userRepo   *repository.UserRepository
	gateway    gateway.Client
	feePercent float64
	currency   string
}

type OrderResult struct {
	OrderID     string `json:"order_id"`
	AmountMinor int64  `json:"amount"`
	Currency    string `json:"currency"`
}

func NewPaymentService(
	taskRepo *repository.TaskRepository,
	userRepo *repository.UserRepository,
	gw gateway.Client,
	feePercent float64,
	currency string,
) *PaymentService {
	return &PaymentService{
		taskRepo:   taskRepo,
		userRepo:   userRepo,
		gateway:    gw,
		feePercent: feePercent,
		currency:   currency,
	}
}

// CreateOrder issues a gateway order for the task budget and stores the
// chosen freelancer as the pending assignment, promoted to assignedTo only
// when the capture webhook confirms payment. Nothing is persisted unless
// the gateway call succeeded.
func (s *PaymentService) CreateOrder(ctx context.Context, taskID, uploaderID, freelancerID string) (*OrderResult, error) {
	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTaskNotFound
		}
		return nil, err
	}

	if task.UploadedBy != uploaderID {
		return nil, apperrors.ErrNotAuthorized
	}
	if task.Status != constants.StatusOpen {
		return nil, apperrors.ErrTaskNotOpen
	}
	if task.Budget <= 0 {
		return nil, apperrors.ErrInvalidBudget
	}

	if _, err := s.userRepo.FindByID(ctx, freelancerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, err
	}

	receipt := fmt.Sprintf("task_%s_%d", task.ID, time.Now().Unix())
	notes := map[string]string{
		"task_id":              task.ID,
		"freelancer_id":        freelancerID,
		"platform_fee_percent": fmt.Sprintf("%g", s.feePercent),
	}

	order, err := s.gateway.CreateOrder(ctx, money.MinorUnits(task.Budget), s.currency, receipt, notes)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	task.Payment.OrderID = order.ID
	task.Payment.Amount = task.Budget
	task.Payment.PlatformFeePercent = s.feePercent
	task.Payment.PendingAssignedTo = freelancerID

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, err
	}

	return &OrderResult{
		OrderID:     order.ID,
		AmountMinor: order.Amount,
		Currency:    order.Currency,
	}, nil
}

// GetPaymentDetail fetches the gateway's view of a task's captured payment,
// for reconciliation and debugging by the uploader.
func (s *PaymentService) GetPaymentDetail(ctx context.Context, taskID, uploaderID string) (*gateway.PaymentDetail, error) {
	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTaskNotFound
		}
		return nil, err
	}

	if task.UploadedBy != uploaderID {
		return nil, apperrors.ErrNotAuthorized
	}
	if task.Payment.PaymentID == "" {
		return nil, apperrors.ErrPaymentNotCaptured
	}

	detail, err := s.gateway.FetchPayment(ctx, task.Payment.PaymentID)
	if err != nil {
		return nil, fmt.Errorf("fetch payment: %w", err)
	}
	return detail, nil
}
