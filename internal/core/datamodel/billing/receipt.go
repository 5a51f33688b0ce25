package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Receipt is one period's charge for one account.
type Receipt struct {
	ID                          string          `gorm:"primaryKey;type:uuid"`
	AccountNumber               string          `gorm:"column:account_number;not null;index:idx_receipt_lookup"`
	BillingIntegrationContextID string          `gorm:"column:billing_integration_context_id;not null;index:idx_receipt_lookup"`
	CategoryID                  *string         `gorm:"column:category_id"`
	Period                      time.Time       `gorm:"column:period;type:date;not null;index:idx_receipt_lookup"`
	ToPay                       decimal.Decimal `gorm:"column:to_pay;type:numeric;not null"`
	ReceiverID                  *string         `gorm:"column:receiver_id"`
	CreatedAt                   time.Time       `gorm:"column:created_at"`
	UpdatedAt                   time.Time       `gorm:"column:updated_at"`
	DeletedAt                   gorm.DeletedAt  `gorm:"column:deleted_at;index"`
}

func (Receipt) TableName() string {
	return "billing_receipts"
}

func (r *Receipt) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

func IDs(receipts []Receipt) []string {
	ids := make([]string, len(receipts))
	for i, r := range receipts {
		ids[i] = r.ID
	}
	return ids
}

func Total(receipts []Receipt) decimal.Decimal {
	total := decimal.Zero
	for _, r := range receipts {
		total = total.Add(r.ToPay)
	}
	return total
}

// CreatedAfter keeps the receipts created strictly after t, in order.
func CreatedAfter(receipts []Receipt, t time.Time) []Receipt {
	out := make([]Receipt, 0, len(receipts))
	for _, r := range receipts {
		if r.CreatedAt.After(t) {
			out = append(out, r)
		}
	}
	return out
}
