package payment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/frahmantamala/recurrent-payments/internal/core/datamodel/billing"
	"github.com/frahmantamala/recurrent-payments/internal/core/datamodel/payment"
)

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// FindHandled returns payments that already settle or withdraw any of the
// given receipts, in one lookup.
func (s *Service) FindHandled(ctx context.Context, receiptIDs []string) ([]*payment.Payment, error) {
	if len(receiptIDs) == 0 {
		return nil, nil
	}

	payments, err := s.repo.FindByReceiptsAndStatuses(ctx, receiptIDs, payment.HandledStatuses)
	if err != nil {
		s.logger.Error("failed to look up handled payments", "error", err, "receipts", len(receiptIDs))
		return nil, fmt.Errorf("failed to look up handled payments: %w", err)
	}
	return payments, nil
}

func (s *Service) GetByMultiPaymentID(ctx context.Context, multiPaymentID string) ([]*payment.Payment, error) {
	return s.repo.GetByMultiPaymentID(ctx, multiPaymentID)
}

// CreateMultiPayment records one CREATED payment per receipt under a new
// multi payment id, atomically.
func (s *Service) CreateMultiPayment(ctx context.Context, receipts []billing.Receipt) (string, error) {
	multiPaymentID := uuid.NewString()

	payments := make([]*payment.Payment, len(receipts))
	for i, r := range receipts {
		payments[i] = &payment.Payment{
			ReceiptID:      r.ID,
			MultiPaymentID: multiPaymentID,
			Status:         payment.StatusCreated,
			Amount:         r.ToPay,
		}
	}

	if err := s.repo.CreateBatch(ctx, payments); err != nil {
		s.logger.Error("failed to create multi payment", "error", err, "receipts", len(receipts))
		return "", fmt.Errorf("failed to create multi payment: %w", err)
	}

	s.logger.Info("multi payment created",
		"multi_payment_id", multiPaymentID,
		"payments", len(payments))

	return multiPaymentID, nil
}
