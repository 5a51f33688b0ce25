// Package testdb opens throwaway sqlite databases for repository tests.
package testdb

import (
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/frahmantamala/recurrent-payments/internal/core/datamodel/billing"
	"github.com/frahmantamala/recurrent-payments/internal/core/datamodel/consumer"
	"github.com/frahmantamala/recurrent-payments/internal/core/datamodel/notification"
	"github.com/frahmantamala/recurrent-payments/internal/core/datamodel/payment"
	"github.com/frahmantamala/recurrent-payments/internal/core/datamodel/recurrentpayment"
)

// Open returns an in-memory database with every table migrated. The pool is
// pinned to one connection since each sqlite :memory: connection is its own
// database.
func Open() (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&recurrentpayment.PaymentContext{},
		&recurrentpayment.RecurrentPayment{},
		&payment.Payment{},
		&billing.Receipt{},
		&consumer.ServiceConsumer{},
		&consumer.AcquiringIntegrationContext{},
		&notification.Message{},
		&recurrentpayment.JobCursor{},
	)
	if err != nil {
		return nil, err
	}
	return db, nil
}

func Close(db *gorm.DB) {
	if db == nil {
		return
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}
