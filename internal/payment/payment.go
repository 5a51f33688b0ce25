package payment

import (
	"context"

	"github.com/frahmantamala/recurrent-payments/internal/core/datamodel/payment"
)

type RepositoryAPI interface {
	FindByReceiptsAndStatuses(ctx context.Context, receiptIDs []string, statuses []payment.Status) ([]*payment.Payment, error)
	GetByMultiPaymentID(ctx context.Context, multiPaymentID string) ([]*payment.Payment, error)
	// CreateBatch inserts every payment or none.
	CreateBatch(ctx context.Context, payments []*payment.Payment) error
}
