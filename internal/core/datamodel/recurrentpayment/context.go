package recurrentpayment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PaymentContext is a payer's standing authorization to auto-pay their bills.
type PaymentContext struct {
	ID                string              `gorm:"primaryKey;type:uuid"`
	Enabled           bool                `gorm:"column:enabled;not null;default:false"`
	AutoPayReceipts   bool                `gorm:"column:auto_pay_receipts;not null;default:false"`
	PaymentDay        *int                `gorm:"column:payment_day"`
	Limit             decimal.NullDecimal `gorm:"column:limit;type:numeric"`
	Settings          datatypes.JSONMap   `gorm:"column:settings"`
	BillingCategoryID *string             `gorm:"column:billing_category_id"`
	ServiceConsumerID string              `gorm:"column:service_consumer_id;not null;index"`
	CreatedAt         time.Time           `gorm:"column:created_at"`
	UpdatedAt         time.Time           `gorm:"column:updated_at"`
	DeletedAt         gorm.DeletedAt      `gorm:"column:deleted_at;index"`
}

func (PaymentContext) TableName() string {
	return "recurrent_payment_contexts"
}

func (c *PaymentContext) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// CardID is the acquiring card token reference stored in settings.
func (c *PaymentContext) CardID() string {
	if c.Settings == nil {
		return ""
	}
	return cast.ToString(c.Settings["cardId"])
}

func (c *PaymentContext) HasLimit() bool {
	return c.Limit.Valid
}
