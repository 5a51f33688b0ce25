package paymentgateway

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/frahmantamala/recurrent-payments/internal/core/datamodel/billing"
	"github.com/frahmantamala/recurrent-payments/internal/core/datamodel/consumer"
	paymentgatewaytypes "github.com/frahmantamala/recurrent-payments/internal/core/datamodel/paymentgateway"
)

type ConsumerResolver interface {
	GetByID(ctx context.Context, id string) (*consumer.ServiceConsumer, error)
	GetAcquiringIntegration(ctx context.Context, c *consumer.ServiceConsumer) (*consumer.AcquiringIntegrationContext, error)
}

type MultiPaymentCreator interface {
	CreateMultiPayment(ctx context.Context, receipts []billing.Receipt) (string, error)
}

// Registrar submits a batch of receipts as one multi payment.
type Registrar struct {
	consumers ConsumerResolver
	payments  MultiPaymentCreator
	logger    *slog.Logger
}

func NewRegistrar(consumers ConsumerResolver, payments MultiPaymentCreator, logger *slog.Logger) *Registrar {
	return &Registrar{
		consumers: consumers,
		payments:  payments,
		logger:    logger,
	}
}

// RegisterMultiPayment needs a live consumer with an enabled acquiring integration.
func (r *Registrar) RegisterMultiPayment(ctx context.Context, req paymentgatewaytypes.RegisterRequest) (*paymentgatewaytypes.Registration, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	sc, err := r.consumers.GetByID(ctx, req.ServiceConsumerID)
	if err != nil {
		return nil, err
	}

	acquiring, err := r.consumers.GetAcquiringIntegration(ctx, sc)
	if err != nil {
		return nil, err
	}

	multiPaymentID, err := r.payments.CreateMultiPayment(ctx, req.Receipts)
	if err != nil {
		return nil, err
	}

	r.logger.Info("multi payment registered",
		"multi_payment_id", multiPaymentID,
		"service_consumer_id", sc.ID,
		"receipts", len(req.Receipts))

	return &paymentgatewaytypes.Registration{
		MultiPaymentID:   multiPaymentID,
		DirectPaymentURL: DirectPaymentURL(acquiring.HostURL, multiPaymentID),
		GetCardTokensURL: CardTokensURL(acquiring.HostURL, multiPaymentID),
	}, nil
}

func DirectPaymentURL(host, multiPaymentID string) string {
	return fmt.Sprintf("%s/api/v1/multipayment/%s/direct", strings.TrimRight(host, "/"), multiPaymentID)
}

func CardTokensURL(host, multiPaymentID string) string {
	return fmt.Sprintf("%s/api/v1/multipayment/%s/card-tokens", strings.TrimRight(host, "/"), multiPaymentID)
}
