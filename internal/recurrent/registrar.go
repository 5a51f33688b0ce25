package recurrent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/frahmantamala/recurrent-payments/internal"
	billingsvc "github.com/frahmantamala/recurrent-payments/internal/billing"
	"github.com/frahmantamala/recurrent-payments/internal/core/datamodel/billing"
	paymentgatewaytypes "github.com/frahmantamala/recurrent-payments/internal/core/datamodel/paymentgateway"
	"github.com/frahmantamala/recurrent-payments/internal/core/datamodel/recurrentpayment"
)

type ContextLookup interface {
	GetByID(ctx context.Context, id string) (*recurrentpayment.PaymentContext, error)
}

type BillResolver interface {
	FilterUnpaid(ctx context.Context, receipts []billing.Receipt) ([]billing.Receipt, error)
	ReceiptsByIDs(ctx context.Context, ids []string) ([]billing.Receipt, error)
}

type MultiPaymentRegistrar interface {
	RegisterMultiPayment(ctx context.Context, req paymentgatewaytypes.RegisterRequest) (*paymentgatewaytypes.Registration, error)
}

// RegisterResult is the outcome of submitting an attempt's bills. A result
// that is not registered and has no ErrorCode means nothing was left to pay.
type RegisterResult struct {
	Registered       bool
	MultiPaymentID   string
	DirectPaymentURL string
	GetCardTokensURL string
	ErrorCode        ErrorCode
	ErrorMessage     string
	Context          *recurrentpayment.PaymentContext
	Receipts         []billing.Receipt
	Total            decimal.Decimal
}

type Registrar struct {
	contexts ContextLookup
	bills    BillResolver
	gateway  MultiPaymentRegistrar
	repo     RepositoryAPI
	logger   *slog.Logger
}

func NewRegistrar(contexts ContextLookup, bills BillResolver, gateway MultiPaymentRegistrar, repo RepositoryAPI, logger *slog.Logger) *Registrar {
	return &Registrar{
		contexts: contexts,
		bills:    bills,
		gateway:  gateway,
		repo:     repo,
		logger:   logger,
	}
}

// RegisterPayment submits the still unpaid bills of attempt to the
// acquiring gateway. Domain failures are reported in the result; only
// storage errors are returned. The attempt is never modified.
func (r *Registrar) RegisterPayment(ctx context.Context, attempt *recurrentpayment.RecurrentPayment) (*RegisterResult, error) {
	pc, err := r.contexts.GetByID(ctx, attempt.RecurrentPaymentContextID)
	if errors.Is(err, internal.ErrContextNotFound) {
		return &RegisterResult{
			ErrorCode:    ErrorCodeContextNotFound,
			ErrorMessage: fmt.Sprintf("RecurrentPaymentContext not found for RecurrentPayment(%s)", attempt.ID),
		}, nil
	}
	if err != nil {
		return nil, err
	}

	result := &RegisterResult{Context: pc}
	if !pc.Enabled {
		result.ErrorCode = ErrorCodeContextDisabled
		result.ErrorMessage = fmt.Sprintf("RecurrentPaymentContext (%s) is disabled", pc.ID)
		return result, nil
	}

	ids, err := attempt.ReceiptIDs()
	if err != nil {
		return nil, fmt.Errorf("decode billing receipts of %s: %w", attempt.ID, err)
	}
	receipts, err := r.bills.ReceiptsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	unpaid, err := r.bills.FilterUnpaid(ctx, receipts)
	if err != nil {
		return nil, err
	}
	if len(unpaid) == 0 {
		r.logger.Info("no receipts left to pay", "attempt_id", attempt.ID, "context_id", pc.ID)
		return result, nil
	}

	result.Receipts = unpaid
	result.Total = billing.Total(unpaid)
	if pc.HasLimit() && result.Total.GreaterThan(pc.Limit.Decimal) {
		result.ErrorCode = ErrorCodeLimitExceeded
		result.ErrorMessage = fmt.Sprintf("RecurrentPaymentContext limit exceeded: to pay %s, limit %s",
			result.Total.String(), pc.Limit.Decimal.String())
		return result, nil
	}

	registration, err := r.gateway.RegisterMultiPayment(ctx, paymentgatewaytypes.RegisterRequest{
		ServiceConsumerID: pc.ServiceConsumerID,
		CardID:            pc.CardID(),
		Receipts:          unpaid,
	})
	if err != nil {
		if errors.Is(err, internal.ErrConsumerNotFound) || errors.Is(err, internal.ErrConsumerDeleted) {
			result.ErrorCode = ErrorCodeServiceConsumerNotFound
			result.ErrorMessage = fmt.Sprintf("ServiceConsumer (%s) not found", pc.ServiceConsumerID)
			return result, nil
		}
		result.ErrorCode = ErrorCodeCanNotRegisterMultiPayment
		result.ErrorMessage = fmt.Sprintf("Can not register multi payment: %s", err.Error())
		return result, nil
	}

	result.Registered = true
	result.MultiPaymentID = registration.MultiPaymentID
	result.DirectPaymentURL = registration.DirectPaymentURL
	result.GetCardTokensURL = registration.GetCardTokensURL
	return result, nil
}

// CreateAttempt persists an INIT attempt for the unpaid bills of pc in
// the month of asOf. Bills held by any attempt of pc created in that month
// are left out, so a failed attempt is never rescheduled in its own period.
// It returns nil when nothing is left to schedule.
func (r *Registrar) CreateAttempt(ctx context.Context, pc *recurrentpayment.PaymentContext, asOf time.Time, unpaid []billing.Receipt, payAfter *time.Time) (*recurrentpayment.RecurrentPayment, error) {
	if len(unpaid) == 0 {
		return nil, nil
	}

	earlier, err := r.repo.FindCreatedSince(ctx, pc.ID, billingsvc.PeriodOf(asOf))
	if err != nil {
		return nil, err
	}
	taken := make(map[string]struct{})
	for _, a := range earlier {
		ids, err := a.ReceiptIDs()
		if err != nil {
			return nil, fmt.Errorf("decode billing receipts of %s: %w", a.ID, err)
		}
		for _, id := range ids {
			taken[id] = struct{}{}
		}
	}

	ids := make([]string, 0, len(unpaid))
	for _, rc := range unpaid {
		if _, ok := taken[rc.ID]; ok {
			continue
		}
		ids = append(ids, rc.ID)
	}
	if len(ids) == 0 {
		r.logger.Debug("receipts already scheduled", "context_id", pc.ID)
		return nil, nil
	}

	encoded, err := recurrentpayment.EncodeReceiptIDs(ids)
	if err != nil {
		return nil, err
	}
	attempt := &recurrentpayment.RecurrentPayment{
		RecurrentPaymentContextID: pc.ID,
		Status:                    recurrentpayment.StatusInit,
		TryCount:                  0,
		PayAfter:                  payAfter,
		BillingReceipts:           encoded,
	}
	if err := r.repo.Create(ctx, attempt); err != nil {
		r.logger.Error("failed to create recurrent payment", "error", err, "context_id", pc.ID)
		return nil, err
	}

	r.logger.Info("recurrent payment created",
		"attempt_id", attempt.ID,
		"context_id", pc.ID,
		"receipts", len(ids))
	return attempt, nil
}
