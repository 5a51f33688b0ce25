package notification

import (
	"context"

	"github.com/frahmantamala/recurrent-payments/internal/core/datamodel/consumer"
	"github.com/frahmantamala/recurrent-payments/internal/core/datamodel/notification"
	"github.com/frahmantamala/recurrent-payments/internal/core/datamodel/recurrentpayment"
)

type RepositoryAPI interface {
	FindByKey(ctx context.Context, messageType notification.MessageType, uniqKey string) (*notification.Message, error)
	// Create reports false when a message with the same type and key exists.
	Create(ctx context.Context, m *notification.Message) (bool, error)
}

type ContextLookup interface {
	GetByIDUnscoped(ctx context.Context, id string) (*recurrentpayment.PaymentContext, error)
}

type RecipientLookup interface {
	GetRecipient(ctx context.Context, id string) (*consumer.ServiceConsumer, error)
}
