package consumer

import (
	"context"

	"github.com/frahmantamala/recurrent-payments/internal/core/datamodel/consumer"
)

type RepositoryAPI interface {
	// GetByIDUnscoped also returns soft deleted consumers.
	GetByIDUnscoped(ctx context.Context, id string) (*consumer.ServiceConsumer, error)
	GetAcquiringContext(ctx context.Context, id string) (*consumer.AcquiringIntegrationContext, error)
}
