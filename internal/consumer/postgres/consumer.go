package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/frahmantamala/recurrent-payments/internal"
	"github.com/frahmantamala/recurrent-payments/internal/consumer"
	datamodel "github.com/frahmantamala/recurrent-payments/internal/core/datamodel/consumer"
)

type ConsumerRepository struct {
	db *gorm.DB
}

func NewConsumerRepository(db *gorm.DB) consumer.RepositoryAPI {
	return &ConsumerRepository{
		db: db,
	}
}

func (r *ConsumerRepository) GetByIDUnscoped(ctx context.Context, id string) (*datamodel.ServiceConsumer, error) {
	var c datamodel.ServiceConsumer
	err := r.db.WithContext(ctx).Unscoped().Where("id = ?", id).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, internal.ErrConsumerNotFound.Withf("service consumer %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ConsumerRepository) GetAcquiringContext(ctx context.Context, id string) (*datamodel.AcquiringIntegrationContext, error) {
	var a datamodel.AcquiringIntegrationContext
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, internal.ErrAcquiringNotFound.Withf("acquiring integration context %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}
