package postgres

import (
	"context"

	"gorm.io/gorm"

	billingpkg "github.com/frahmantamala/recurrent-payments/internal/billing"
	"github.com/frahmantamala/recurrent-payments/internal/core/datamodel/billing"
)

type ReceiptRepository struct {
	db *gorm.DB
}

func NewReceiptRepository(db *gorm.DB) billingpkg.RepositoryAPI {
	return &ReceiptRepository{
		db: db,
	}
}

func (r *ReceiptRepository) FindForPeriod(ctx context.Context, q billingpkg.PeriodQuery) ([]billing.Receipt, error) {
	query := r.db.WithContext(ctx).
		Where("account_number = ?", q.AccountNumber).
		Where("billing_integration_context_id = ?", q.BillingIntegrationContextID).
		Where("period = ?", q.Period)

	if q.CategoryID != nil {
		query = query.Where("category_id = ?", *q.CategoryID)
	}

	var receipts []billing.Receipt
	if err := query.Order("id ASC").Find(&receipts).Error; err != nil {
		return nil, err
	}
	return receipts, nil
}

func (r *ReceiptRepository) GetByIDs(ctx context.Context, ids []string) ([]billing.Receipt, error) {
	var receipts []billing.Receipt
	if len(ids) == 0 {
		return receipts, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&receipts).Error
	return receipts, err
}
