package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/recurrent-payments/internal/core/datamodel/recurrentpayment"
	"github.com/frahmantamala/recurrent-payments/internal/core/events"
)

type EventHandler struct {
	dispatcher *Dispatcher
	logger     *slog.Logger
}

func NewEventHandler(dispatcher *Dispatcher, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		dispatcher: dispatcher,
		logger:     logger,
	}
}

func (h *EventHandler) HandleOutcome(ctx context.Context, event events.Event) error {
	outcome, ok := event.(*events.RecurrentPaymentOutcomeEvent)
	if !ok {
		h.logger.Error("invalid event type for recurrent payment outcome handler", "event_type", event.EventType())
		return fmt.Errorf("expected RecurrentPaymentOutcomeEvent, got %T", event)
	}

	attempt := &recurrentpayment.RecurrentPayment{
		ID:                        outcome.RecurrentPaymentID,
		RecurrentPaymentContextID: outcome.RecurrentPaymentContextID,
		TryCount:                  outcome.TryCount,
	}
	code := recurrentpayment.ErrorCode(outcome.ErrorCode)

	if err := h.dispatcher.NotifyOutcome(ctx, attempt, outcome.Succeeded, code, outcome.LastTry); err != nil {
		h.logger.Error("failed to notify recurrent payment outcome",
			"error", err,
			"attempt_id", outcome.RecurrentPaymentID,
			"try_count", outcome.TryCount,
			"event_id", outcome.EventID())
		return fmt.Errorf("notify outcome of %s: %w", outcome.RecurrentPaymentID, err)
	}
	return nil
}

func (h *EventHandler) RegisterEventHandlers(eventBus *events.EventBus) {
	eventBus.Subscribe(events.EventTypeRecurrentPaymentSucceeded, h.HandleOutcome)
	eventBus.Subscribe(events.EventTypeRecurrentPaymentFailed, h.HandleOutcome)

	h.logger.Info("notification event handlers registered",
		"handlers", []string{events.EventTypeRecurrentPaymentSucceeded, events.EventTypeRecurrentPaymentFailed})
}
