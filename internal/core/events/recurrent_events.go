package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeRecurrentPaymentSucceeded = "recurrent_payment.succeeded"
	EventTypeRecurrentPaymentFailed    = "recurrent_payment.failed"
)

// RecurrentPaymentOutcomeEvent is published after a try was persisted.
// TryCount is the value after the increment.
type RecurrentPaymentOutcomeEvent struct {
	BaseEvent
	RecurrentPaymentID        string `json:"recurrent_payment_id"`
	RecurrentPaymentContextID string `json:"recurrent_payment_context_id"`
	TryCount                  int    `json:"try_count"`
	Status                    string `json:"status"`
	Succeeded                 bool   `json:"succeeded"`
	ErrorCode                 string `json:"error_code,omitempty"`
	ErrorMessage              string `json:"error_message,omitempty"`
	LastTry                   bool   `json:"last_try"`
}

func NewRecurrentPaymentSucceededEvent(paymentID, contextID string, tryCount int) *RecurrentPaymentOutcomeEvent {
	return &RecurrentPaymentOutcomeEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeRecurrentPaymentSucceeded,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"recurrent_payment_id":         paymentID,
				"recurrent_payment_context_id": contextID,
				"try_count":                    tryCount,
			},
		},
		RecurrentPaymentID:        paymentID,
		RecurrentPaymentContextID: contextID,
		TryCount:                  tryCount,
		Status:                    "DONE",
		Succeeded:                 true,
	}
}

func NewRecurrentPaymentFailedEvent(paymentID, contextID string, tryCount int, status, errorCode, errorMessage string, lastTry bool) *RecurrentPaymentOutcomeEvent {
	return &RecurrentPaymentOutcomeEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeRecurrentPaymentFailed,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"recurrent_payment_id":         paymentID,
				"recurrent_payment_context_id": contextID,
				"try_count":                    tryCount,
				"status":                       status,
				"error_code":                   errorCode,
				"error_message":                errorMessage,
				"last_try":                     lastTry,
			},
		},
		RecurrentPaymentID:        paymentID,
		RecurrentPaymentContextID: contextID,
		TryCount:                  tryCount,
		Status:                    status,
		ErrorCode:                 errorCode,
		ErrorMessage:              errorMessage,
		LastTry:                   lastTry,
	}
}
