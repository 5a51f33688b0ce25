package payment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Status string

const (
	StatusCreated    Status = "CREATED"
	StatusProcessing Status = "PROCESSING"
	StatusDone       Status = "DONE"
	StatusWithdrawn  Status = "WITHDRAWN"
	StatusError      Status = "ERROR"
	StatusCancelled  Status = "CANCELLED"
)

// HandledStatuses marks a receipt as already paid or in withdrawal.
var HandledStatuses = []Status{StatusDone, StatusWithdrawn}

// Payment is a gateway-level payment of one receipt. Payments registered
// together share a MultiPaymentID.
type Payment struct {
	ID             string          `gorm:"primaryKey;type:uuid"`
	ReceiptID      string          `gorm:"column:receipt_id;not null;index"`
	MultiPaymentID string          `gorm:"column:multi_payment_id;not null;index"`
	Status         Status          `gorm:"column:status;not null;index"`
	Amount         decimal.Decimal `gorm:"column:amount;type:numeric;not null"`
	CreatedAt      time.Time       `gorm:"column:created_at"`
	UpdatedAt      time.Time       `gorm:"column:updated_at"`
}

func (Payment) TableName() string {
	return "payments"
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
