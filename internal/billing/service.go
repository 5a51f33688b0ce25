package billing

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/recurrent-payments/internal"
	"github.com/frahmantamala/recurrent-payments/internal/core/datamodel/billing"
	"github.com/frahmantamala/recurrent-payments/internal/core/datamodel/recurrentpayment"
)

// Service resolves a context's receipts and drops the ones already paid.
type Service struct {
	receipts  RepositoryAPI
	consumers ConsumerLookup
	payments  PaymentLookup
	logger    *slog.Logger
}

func NewService(receipts RepositoryAPI, consumers ConsumerLookup, payments PaymentLookup, logger *slog.Logger) *Service {
	return &Service{
		receipts:  receipts,
		consumers: consumers,
		payments:  payments,
		logger:    logger,
	}
}

// ResolveBillsForPeriod returns every receipt of the context's payer for the
// month of asOf, narrowed to the context's billing category when set.
func (s *Service) ResolveBillsForPeriod(ctx context.Context, pc *recurrentpayment.PaymentContext, asOf time.Time) ([]billing.Receipt, error) {
	sc, err := s.consumers.GetByID(ctx, pc.ServiceConsumerID)
	if err != nil {
		return nil, err
	}
	if sc.BillingIntegrationContextID == nil || *sc.BillingIntegrationContextID == "" {
		return nil, internal.ErrMissingBillingLink.Withf("service consumer %s has no billing integration context", sc.ID)
	}
	if !sc.HasAccountNumber() {
		return nil, internal.ErrMissingAccountNumber.Withf("service consumer %s has no account number", sc.ID)
	}

	q := PeriodQuery{
		AccountNumber:               sc.AccountNumber,
		BillingIntegrationContextID: *sc.BillingIntegrationContextID,
		Period:                      PeriodOf(asOf),
		CategoryID:                  pc.BillingCategoryID,
	}

	receipts, err := s.receipts.FindForPeriod(ctx, q)
	if err != nil {
		s.logger.Error("failed to fetch receipts",
			"error", err,
			"context_id", pc.ID,
			"period", q.Period.Format(time.DateOnly))
		return nil, err
	}
	return receipts, nil
}

// FilterUnpaid removes receipts that have a DONE or WITHDRAWN payment. Input
// order is preserved.
func (s *Service) FilterUnpaid(ctx context.Context, receipts []billing.Receipt) ([]billing.Receipt, error) {
	if len(receipts) == 0 {
		return []billing.Receipt{}, nil
	}

	handled, err := s.payments.FindHandled(ctx, billing.IDs(receipts))
	if err != nil {
		return nil, err
	}

	paid := make(map[string]struct{}, len(handled))
	for _, p := range handled {
		paid[p.ReceiptID] = struct{}{}
	}

	unpaid := make([]billing.Receipt, 0, len(receipts))
	for _, r := range receipts {
		if _, ok := paid[r.ID]; ok {
			continue
		}
		unpaid = append(unpaid, r)
	}
	return unpaid, nil
}

// ReceiptsByIDs loads receipts keeping the order of ids. Ids that no longer
// resolve are skipped.
func (s *Service) ReceiptsByIDs(ctx context.Context, ids []string) ([]billing.Receipt, error) {
	if len(ids) == 0 {
		return []billing.Receipt{}, nil
	}

	found, err := s.receipts.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]billing.Receipt, len(found))
	for _, r := range found {
		byID[r.ID] = r
	}

	ordered := make([]billing.Receipt, 0, len(ids))
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			ordered = append(ordered, r)
		}
	}
	return ordered, nil
}
