package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/frahmantamala/recurrent-payments/internal"
	"github.com/frahmantamala/recurrent-payments/internal/core/datamodel/recurrentpayment"
	"github.com/frahmantamala/recurrent-payments/internal/recurrent"
)

type RecurrentPaymentRepository struct {
	db *gorm.DB
}

func NewRecurrentPaymentRepository(db *gorm.DB) recurrent.RepositoryAPI {
	return &RecurrentPaymentRepository{
		db: db,
	}
}

func (r *RecurrentPaymentRepository) Create(ctx context.Context, p *recurrentpayment.RecurrentPayment) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *RecurrentPaymentRepository) GetByID(ctx context.Context, id string) (*recurrentpayment.RecurrentPayment, error) {
	var p recurrentpayment.RecurrentPayment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, internal.ErrAttemptNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *RecurrentPaymentRepository) FindReady(ctx context.Context, q recurrent.ReadyQuery) ([]*recurrentpayment.RecurrentPayment, error) {
	query := r.db.WithContext(ctx).
		Where("status IN ?", []recurrentpayment.Status{recurrentpayment.StatusInit, recurrentpayment.StatusErrorNeedRetry}).
		Where("try_count < ?", q.MaxTryCount).
		Where("(pay_after IS NULL OR pay_after <= ?)", q.Now).
		Where("created_at >= ?", q.CreatedAfter)

	if q.Extra != nil {
		query = query.Where(q.Extra(r.db.Session(&gorm.Session{NewDB: true})))
	}

	var payments []*recurrentpayment.RecurrentPayment
	err := query.
		Order("id ASC").
		Limit(q.PageSize).
		Offset(q.Offset).
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *RecurrentPaymentRepository) FindCreatedSince(ctx context.Context, contextID string, since time.Time) ([]*recurrentpayment.RecurrentPayment, error) {
	var payments []*recurrentpayment.RecurrentPayment
	err := r.db.WithContext(ctx).
		Where("recurrent_payment_context_id = ?", contextID).
		Where("created_at >= ?", since).
		Find(&payments).Error
	return payments, err
}

func (r *RecurrentPaymentRepository) CompareAndSwapStatus(ctx context.Context, id string, from recurrentpayment.Status, tryCount int, to recurrentpayment.Status) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&recurrentpayment.RecurrentPayment{}).
		Where("id = ? AND status = ? AND try_count = ?", id, from, tryCount).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *RecurrentPaymentRepository) SaveOutcome(ctx context.Context, o recurrent.Outcome) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&recurrentpayment.RecurrentPayment{}).
		Where("id = ? AND try_count = ?", o.ID, o.ExpectedTryCount).
		Updates(map[string]interface{}{
			"status":    o.Status,
			"try_count": o.TryCount,
			"state":     o.State,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
