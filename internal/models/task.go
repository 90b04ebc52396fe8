package model

import (
	"time"

	"task-market.com/task-market/internal/constants"
)

// Payment is the durable checkpoint for a task's payment/payout lifecycle,
// embedded in the Task row. PayoutDone is terminal: once true, no further
// payout attempt may run. PayoutInProgress is the advisory lock flag flipped
// only through conditional updates in the repository.
type Payment struct {
	OrderID            string     `json:"order_id"`
	PaymentID          string     `json:"payment_id"`
	Amount             float64    `json:"amount"`
	GatewayFee         float64    `json:"gateway_fee"`
	PlatformFeePercent float64    `json:"platform_fee_percent"`
	PlatformFeeAmount  float64    `json:"platform_fee_amount"`
	NetPayoutAmount    float64    `json:"net_payout_amount"`
	PayoutID           string     `json:"payout_id"`
	PayoutDone         bool       `gorm:"not null;default:false" json:"payout_done"`
	PayoutInProgress   bool       `gorm:"not null;default:false" json:"payout_in_progress"`
	PayoutRetries      int        `gorm:"not null;default:0" json:"payout_retries"`
	PendingAssignedTo  string     `gorm:"size:36" json:"pending_assigned_to"`
	IdempotencyKey     string     `gorm:"size:36" json:"-"`
	PaidAt             *time.Time `json:"paid_at,omitempty"`
}

type Task struct {
	ID                   string               `gorm:"primaryKey;size:36" json:"id"`
	Title                string               `gorm:"not null" json:"title"`
	Description          string               `gorm:"not null" json:"description"`
	Category             string               `gorm:"not null" json:"category"`
	Deadline             time.Time            `gorm:"not null" json:"deadline"`
	Budget               float64              `gorm:"not null" json:"budget"`
	Status               constants.TaskStatus `gorm:"type:varchar(30);not null" json:"status"`
	UploadedBy           string               `gorm:"size:36;not null;index" json:"uploaded_by"`
	AssignedTo           string               `gorm:"size:36;index" json:"assigned_to"`
	RevisionRequestsUsed int                  `gorm:"not null;default:0" json:"revision_requests_used"`
	MaxRevisionRequests  int                  `gorm:"not null" json:"max_revision_requests"`
	FirstSubmissionAt    *time.Time           `json:"first_submission_at,omitempty"`
	Payment              Payment              `gorm:"embedded;embeddedPrefix:payment_" json:"payment"`
	Version              uint                 `gorm:"not null;default:1" json:"version"`
	CreatedAt            time.Time            `json:"created_at"`
	UpdatedAt            time.Time            `json:"updated_at"`
}
