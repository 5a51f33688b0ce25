package billing

import (
	"context"
	"time"

	"github.com/frahmantamala/recurrent-payments/internal/core/datamodel/billing"
	"github.com/frahmantamala/recurrent-payments/internal/core/datamodel/consumer"
	"github.com/frahmantamala/recurrent-payments/internal/core/datamodel/payment"
)

// PeriodQuery addresses the receipts of one account for one month.
type PeriodQuery struct {
	AccountNumber               string
	BillingIntegrationContextID string
	Period                      time.Time
	CategoryID                  *string
}

type RepositoryAPI interface {
	FindForPeriod(ctx context.Context, q PeriodQuery) ([]billing.Receipt, error)
	GetByIDs(ctx context.Context, ids []string) ([]billing.Receipt, error)
}

type ConsumerLookup interface {
	GetByID(ctx context.Context, id string) (*consumer.ServiceConsumer, error)
}

type PaymentLookup interface {
	FindHandled(ctx context.Context, receiptIDs []string) ([]*payment.Payment, error)
}

// PeriodOf is the billing period containing t: the first day of its month.
func PeriodOf(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}
