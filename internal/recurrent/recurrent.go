package recurrent

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/frahmantamala/recurrent-payments/internal/core/datamodel/recurrentpayment"
)

// Scope narrows the ready page. It is always ANDed with the base predicate.
type Scope func(*gorm.DB) *gorm.DB

type ReadyQuery struct {
	Now          time.Time
	CreatedAfter time.Time
	MaxTryCount  int
	PageSize     int
	Offset       int
	Extra        Scope
}

// Outcome is the persisted result of one try.
type Outcome struct {
	ID               string
	ExpectedTryCount int
	Status           recurrentpayment.Status
	TryCount         int
	State            datatypes.JSONMap
}

type RepositoryAPI interface {
	Create(ctx context.Context, p *recurrentpayment.RecurrentPayment) error
	GetByID(ctx context.Context, id string) (*recurrentpayment.RecurrentPayment, error)
	FindReady(ctx context.Context, q ReadyQuery) ([]*recurrentpayment.RecurrentPayment, error)
	// FindCreatedSince returns every attempt of a context created at or
	// after since, whatever its status.
	FindCreatedSince(ctx context.Context, contextID string, since time.Time) ([]*recurrentpayment.RecurrentPayment, error)
	// CompareAndSwapStatus moves id to status `to` only if it still has
	// status `from` and tryCount. It reports whether the row changed.
	CompareAndSwapStatus(ctx context.Context, id string, from recurrentpayment.Status, tryCount int, to recurrentpayment.Status) (bool, error)
	// SaveOutcome writes o only if the stored try count is o.ExpectedTryCount.
	SaveOutcome(ctx context.Context, o Outcome) (bool, error)
}

func WithIDs(ids ...string) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("id IN ?", ids)
	}
}
