package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/frahmantamala/recurrent-payments/internal"
	"github.com/frahmantamala/recurrent-payments/internal/core/datamodel/recurrentpayment"
	"github.com/frahmantamala/recurrent-payments/internal/paymentcontext"
)

type ContextRepository struct {
	db *gorm.DB
}

func NewContextRepository(db *gorm.DB) paymentcontext.RepositoryAPI {
	return &ContextRepository{
		db: db,
	}
}

func (r *ContextRepository) FindDue(ctx context.Context, q paymentcontext.DueQuery) ([]*recurrentpayment.PaymentContext, error) {
	query := r.db.WithContext(ctx).
		Where("enabled = ? AND auto_pay_receipts = ?", true, false)

	if q.OrLater {
		query = query.Where("payment_day >= ?", q.Day)
	} else {
		query = query.Where("payment_day = ?", q.Day)
	}

	return r.page(r.and(query, q.Extra), q.PageSize, q.Offset)
}

func (r *ContextRepository) FindAutoPay(ctx context.Context, pageSize, offset int, extra paymentcontext.Scope) ([]*recurrentpayment.PaymentContext, error) {
	query := r.db.WithContext(ctx).
		Where("enabled = ? AND auto_pay_receipts = ?", true, true).
		Where("payment_day IS NULL")

	return r.page(r.and(query, extra), pageSize, offset)
}

func (r *ContextRepository) GetByID(ctx context.Context, id string) (*recurrentpayment.PaymentContext, error) {
	return r.get(r.db.WithContext(ctx), id)
}

func (r *ContextRepository) GetByIDUnscoped(ctx context.Context, id string) (*recurrentpayment.PaymentContext, error) {
	return r.get(r.db.WithContext(ctx).Unscoped(), id)
}

func (r *ContextRepository) get(db *gorm.DB, id string) (*recurrentpayment.PaymentContext, error) {
	var c recurrentpayment.PaymentContext
	err := db.Where("id = ?", id).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, internal.ErrContextNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// and applies extra as a parenthesized group so an OR inside it cannot
// escape the base predicate.
func (r *ContextRepository) and(query *gorm.DB, extra paymentcontext.Scope) *gorm.DB {
	if extra == nil {
		return query
	}
	return query.Where(extra(r.db.Session(&gorm.Session{NewDB: true})))
}

func (r *ContextRepository) page(query *gorm.DB, pageSize, offset int) ([]*recurrentpayment.PaymentContext, error) {
	var contexts []*recurrentpayment.PaymentContext
	err := query.
		Order("id ASC").
		Limit(pageSize).
		Offset(offset).
		Find(&contexts).Error
	if err != nil {
		return nil, err
	}
	return contexts, nil
}
