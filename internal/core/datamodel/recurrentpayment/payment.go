package recurrentpayment

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cast"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Status string

const (
	StatusInit           Status = "INIT"
	StatusProcessing     Status = "PROCESSING"
	StatusDone           Status = "DONE"
	StatusErrorNeedRetry Status = "ERROR_NEED_RETRY"
	StatusError          Status = "ERROR"
	StatusCancel         Status = "CANCEL"
)

const (
	StateKeyErrorCode    = "errorCode"
	StateKeyErrorMessage = "errorMessage"
)

// RecurrentPayment is one scheduled attempt to pay a batch of bills for a context.
type RecurrentPayment struct {
	ID                        string            `gorm:"primaryKey;type:uuid"`
	RecurrentPaymentContextID string            `gorm:"column:recurrent_payment_context_id;not null;index"`
	Status                    Status            `gorm:"column:status;not null;index"`
	TryCount                  int               `gorm:"column:try_count;not null;default:0"`
	PayAfter                  *time.Time        `gorm:"column:pay_after"`
	State                     datatypes.JSONMap `gorm:"column:state"`
	BillingReceipts           datatypes.JSON    `gorm:"column:billing_receipts"`
	CreatedAt                 time.Time         `gorm:"column:created_at;index"`
	UpdatedAt                 time.Time         `gorm:"column:updated_at"`
}

func (RecurrentPayment) TableName() string {
	return "recurrent_payments"
}

func (p *RecurrentPayment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// ReceiptIDs decodes the ordered bill id list captured at creation.
func (p *RecurrentPayment) ReceiptIDs() ([]string, error) {
	if len(p.BillingReceipts) == 0 {
		return nil, nil
	}
	var ids []string
	if err := json.Unmarshal(p.BillingReceipts, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func EncodeReceiptIDs(ids []string) (datatypes.JSON, error) {
	if ids == nil {
		ids = []string{}
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

func (p *RecurrentPayment) LastErrorCode() ErrorCode {
	if p.State == nil {
		return ""
	}
	return ErrorCode(cast.ToString(p.State[StateKeyErrorCode]))
}

func (p *RecurrentPayment) LastErrorMessage() string {
	if p.State == nil {
		return ""
	}
	return cast.ToString(p.State[StateKeyErrorMessage])
}
