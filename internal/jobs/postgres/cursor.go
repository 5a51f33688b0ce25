package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/frahmantamala/recurrent-payments/internal/core/datamodel/recurrentpayment"
	"github.com/frahmantamala/recurrent-payments/internal/jobs"
)

type CursorRepository struct {
	db *gorm.DB
}

func NewCursorRepository(db *gorm.DB) jobs.CursorStore {
	return &CursorRepository{
		db: db,
	}
}

func (r *CursorRepository) Get(ctx context.Context, name string) (time.Time, bool, error) {
	var c recurrentpayment.JobCursor
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return c.LastDt.UTC(), true, nil
}

// Save upserts the cursor of name. It never moves a stored cursor back.
func (r *CursorRepository) Save(ctx context.Context, name string, lastDt time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current recurrentpayment.JobCursor
		err := tx.Where("name = ?", name).First(&current).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err == nil && !lastDt.After(current.LastDt) {
			return nil
		}

		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_dt", "updated_at"}),
		}).Create(&recurrentpayment.JobCursor{Name: name, LastDt: lastDt.UTC()}).Error
	})
}
