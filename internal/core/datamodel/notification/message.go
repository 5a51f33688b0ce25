package notification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type MessageType string

const (
	TypeProceedingSuccess                MessageType = "RECURRENT_PAYMENT_PROCEEDING_SUCCESS_RESULT_MESSAGE"
	TypeProceedingUnknownError           MessageType = "RECURRENT_PAYMENT_PROCEEDING_UNKNOWN_ERROR_MESSAGE"
	TypeProceedingAcquiringProceedError  MessageType = "RECURRENT_PAYMENT_PROCEEDING_ACQUIRING_PAYMENT_PROCEED_ERROR_MESSAGE"
	TypeProceedingConsumerNotFoundError  MessageType = "RECURRENT_PAYMENT_PROCEEDING_SERVICE_CONSUMER_NOT_FOUND_ERROR_MESSAGE"
	TypeProceedingLimitExceededError     MessageType = "RECURRENT_PAYMENT_PROCEEDING_LIMIT_EXCEEDED_ERROR_MESSAGE"
	TypeProceedingContextNotFoundError   MessageType = "RECURRENT_PAYMENT_PROCEEDING_CONTEXT_NOT_FOUND_ERROR_MESSAGE"
	TypeProceedingContextDisabledError   MessageType = "RECURRENT_PAYMENT_PROCEEDING_CONTEXT_DISABLED_ERROR_MESSAGE"
	TypeProceedingCardTokenNotValidError MessageType = "RECURRENT_PAYMENT_PROCEEDING_CARD_TOKEN_NOT_VALID_ERROR_MESSAGE"
	TypeProceedingCanNotRegisterError    MessageType = "RECURRENT_PAYMENT_PROCEEDING_CAN_NOT_REGISTER_MULTI_PAYMENT_ERROR_MESSAGE"
	TypeProceedingNoReceiptsError        MessageType = "RECURRENT_PAYMENT_PROCEEDING_NO_RECEIPTS_TO_PROCEED_ERROR_MESSAGE"
	TypeTomorrowPayment                  MessageType = "RECURRENT_PAYMENT_TOMORROW_PAYMENT_MESSAGE"
	TypeTomorrowPaymentNoReceipts        MessageType = "RECURRENT_PAYMENT_TOMORROW_PAYMENT_NO_RECEIPTS_MESSAGE"
	TypeTomorrowPaymentLimitExceed       MessageType = "RECURRENT_PAYMENT_TOMORROW_PAYMENT_LIMIT_EXCEED_MESSAGE"
)

// Message is a queued user notification. (type, uniq_key) is unique.
type Message struct {
	ID        string            `gorm:"primaryKey;type:uuid"`
	UserID    string            `gorm:"column:user_id;not null;index"`
	Type      MessageType       `gorm:"column:type;not null;uniqueIndex:idx_messages_type_uniq_key"`
	UniqKey   string            `gorm:"column:uniq_key;not null;uniqueIndex:idx_messages_type_uniq_key"`
	Meta      datatypes.JSONMap `gorm:"column:meta"`
	CreatedAt time.Time         `gorm:"column:created_at"`
}

func (Message) TableName() string {
	return "messages"
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
