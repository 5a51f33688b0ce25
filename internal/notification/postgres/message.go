package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/frahmantamala/recurrent-payments/internal/core/datamodel/notification"
	notificationsvc "github.com/frahmantamala/recurrent-payments/internal/notification"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) notificationsvc.RepositoryAPI {
	return &MessageRepository{
		db: db,
	}
}

func (r *MessageRepository) FindByKey(ctx context.Context, messageType notification.MessageType, uniqKey string) (*notification.Message, error) {
	var m notification.Message
	err := r.db.WithContext(ctx).
		Where("type = ? AND uniq_key = ?", messageType, uniqKey).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Create inserts m unless (type, uniq_key) is taken. A concurrent writer that
// wins the race leaves zero affected rows.
func (r *MessageRepository) Create(ctx context.Context, m *notification.Message) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "type"}, {Name: "uniq_key"}},
			DoNothing: true,
		}).
		Create(m)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
