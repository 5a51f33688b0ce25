package paymentcontext

import (
	"context"

	"gorm.io/gorm"

	"github.com/frahmantamala/recurrent-payments/internal/core/datamodel/recurrentpayment"
)

// Scope narrows a selection. It is always ANDed with the base predicate.
type Scope func(*gorm.DB) *gorm.DB

// DueQuery selects scheduled contexts for one calendar day. OrLater widens
// the match to every payment day >= Day.
type DueQuery struct {
	Day      int
	OrLater  bool
	PageSize int
	Offset   int
	Extra    Scope
}

type RepositoryAPI interface {
	FindDue(ctx context.Context, q DueQuery) ([]*recurrentpayment.PaymentContext, error)
	FindAutoPay(ctx context.Context, pageSize, offset int, extra Scope) ([]*recurrentpayment.PaymentContext, error)
	GetByID(ctx context.Context, id string) (*recurrentpayment.PaymentContext, error)
	GetByIDUnscoped(ctx context.Context, id string) (*recurrentpayment.PaymentContext, error)
}

func WithIDs(ids ...string) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("id IN ?", ids)
	}
}
