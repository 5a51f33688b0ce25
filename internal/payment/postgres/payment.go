package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/frahmantamala/recurrent-payments/internal/core/datamodel/payment"
	paymentpkg "github.com/frahmantamala/recurrent-payments/internal/payment"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) paymentpkg.RepositoryAPI {
	return &PaymentRepository{
		db: db,
	}
}

func (r *PaymentRepository) FindByReceiptsAndStatuses(ctx context.Context, receiptIDs []string, statuses []payment.Status) ([]*payment.Payment, error) {
	var payments []*payment.Payment
	if len(receiptIDs) == 0 {
		return payments, nil
	}
	err := r.db.WithContext(ctx).
		Where("receipt_id IN ?", receiptIDs).
		Where("status IN ?", statuses).
		Find(&payments).Error
	return payments, err
}

func (r *PaymentRepository) GetByMultiPaymentID(ctx context.Context, multiPaymentID string) ([]*payment.Payment, error) {
	var payments []*payment.Payment
	err := r.db.WithContext(ctx).
		Where("multi_payment_id = ?", multiPaymentID).
		Order("created_at ASC").
		Find(&payments).Error
	return payments, err
}

func (r *PaymentRepository) CreateBatch(ctx context.Context, payments []*payment.Payment) error {
	if len(payments) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, p := range payments {
			if err := tx.Create(p).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
