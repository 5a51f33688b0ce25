package recurrent

import (
	"context"
	"log/slog"
	"time"

	"gorm.io/datatypes"

	"github.com/frahmantamala/recurrent-payments/internal"
	"github.com/frahmantamala/recurrent-payments/internal/core/common/validation"
	"github.com/frahmantamala/recurrent-payments/internal/core/datamodel/recurrentpayment"
	"github.com/frahmantamala/recurrent-payments/internal/core/events"
)

type Config struct {
	RetryCount    int
	ReadyLookback time.Duration
	// Now defaults to time.Now in UTC.
	Now func() time.Time
}

// StateMachine is the only writer of attempt status.
type StateMachine struct {
	repo      RepositoryAPI
	publisher events.Publisher
	logger    *slog.Logger
	config    Config
}

func NewStateMachine(repo RepositoryAPI, publisher events.Publisher, logger *slog.Logger, config Config) *StateMachine {
	if config.RetryCount <= 0 {
		config.RetryCount = internal.DefaultRetryCount
	}
	if config.ReadyLookback <= 0 {
		config.ReadyLookback = internal.DefaultReadyLookback
	}
	if config.Now == nil {
		config.Now = func() time.Time { return time.Now().UTC() }
	}
	return &StateMachine{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		config:    config,
	}
}

// GetReadyAttempts pages through attempts that may be tried now.
func (m *StateMachine) GetReadyAttempts(ctx context.Context, pageSize, offset int, extra Scope) ([]*recurrentpayment.RecurrentPayment, error) {
	if err := validation.ValidatePage(pageSize, offset); err != nil {
		return nil, err
	}

	now := m.config.Now()
	q := ReadyQuery{
		Now:          now,
		CreatedAfter: now.Add(-m.config.ReadyLookback),
		MaxTryCount:  m.config.RetryCount,
		PageSize:     pageSize,
		Offset:       offset,
		Extra:        extra,
	}

	attempts, err := m.repo.FindReady(ctx, q)
	if err != nil {
		m.logger.Error("failed to select ready attempts", "error", err, "offset", offset)
		return nil, err
	}
	return attempts, nil
}

// GetAttempt loads one attempt with its last recorded failure.
func (m *StateMachine) GetAttempt(ctx context.Context, id string) (*recurrentpayment.RecurrentPayment, error) {
	return m.repo.GetByID(ctx, id)
}

// Claim moves the attempt to PROCESSING if nobody else did since it was
// read. The in-memory attempt keeps its observed status.
func (m *StateMachine) Claim(ctx context.Context, attempt *recurrentpayment.RecurrentPayment) error {
	ok, err := m.repo.CompareAndSwapStatus(ctx, attempt.ID, attempt.Status, attempt.TryCount, recurrentpayment.StatusProcessing)
	if err != nil {
		return err
	}
	if !ok {
		return internal.ErrAttemptAlreadyClaimed.Withf("recurrent payment %s already claimed", attempt.ID)
	}
	return nil
}

func (m *StateMachine) MarkSucceeded(ctx context.Context, attempt *recurrentpayment.RecurrentPayment) error {
	o := Outcome{
		ID:               attempt.ID,
		ExpectedTryCount: attempt.TryCount,
		Status:           recurrentpayment.StatusDone,
		TryCount:         attempt.TryCount + 1,
		State:            datatypes.JSONMap{},
	}
	if err := m.save(ctx, attempt, o); err != nil {
		return err
	}

	m.logger.Info("recurrent payment done", "attempt_id", attempt.ID, "try_count", attempt.TryCount)

	event := events.NewRecurrentPaymentSucceededEvent(attempt.ID, attempt.RecurrentPaymentContextID, attempt.TryCount)
	m.publish(ctx, event)
	return nil
}

// MarkFailed records a failed try. Terminal codes and the last allowed try
// end in ERROR, everything else in ERROR_NEED_RETRY. The published lastTry
// flag only reports that the retry budget is spent, so a terminal code on an
// early try is not a last try.
func (m *StateMachine) MarkFailed(ctx context.Context, attempt *recurrentpayment.RecurrentPayment, message string, code ErrorCode) error {
	if code == "" {
		code = ErrorCodeUnknown
	}

	tryCount := attempt.TryCount + 1
	status := recurrentpayment.StatusErrorNeedRetry
	if !IsRetryable(code) || tryCount >= m.config.RetryCount {
		status = recurrentpayment.StatusError
	}

	o := Outcome{
		ID:               attempt.ID,
		ExpectedTryCount: attempt.TryCount,
		Status:           status,
		TryCount:         tryCount,
		State: datatypes.JSONMap{
			recurrentpayment.StateKeyErrorCode:    string(code),
			recurrentpayment.StateKeyErrorMessage: message,
		},
	}
	if err := m.save(ctx, attempt, o); err != nil {
		return err
	}

	m.logger.Warn("recurrent payment failed",
		"attempt_id", attempt.ID,
		"try_count", tryCount,
		"status", status,
		"error_code", code,
		"error_message", message)

	event := events.NewRecurrentPaymentFailedEvent(
		attempt.ID,
		attempt.RecurrentPaymentContextID,
		tryCount,
		string(status),
		string(code),
		message,
		tryCount >= m.config.RetryCount,
	)
	m.publish(ctx, event)
	return nil
}

func (m *StateMachine) save(ctx context.Context, attempt *recurrentpayment.RecurrentPayment, o Outcome) error {
	ok, err := m.repo.SaveOutcome(ctx, o)
	if err != nil {
		m.logger.Error("failed to save recurrent payment outcome", "error", err, "attempt_id", attempt.ID)
		return err
	}
	if !ok {
		return internal.ErrAttemptAlreadyClaimed.Withf("recurrent payment %s changed while processing", attempt.ID)
	}

	attempt.Status = o.Status
	attempt.TryCount = o.TryCount
	attempt.State = o.State
	return nil
}

// Notification failures never undo a persisted transition.
func (m *StateMachine) publish(ctx context.Context, event events.Event) {
	if m.publisher == nil {
		return
	}
	if err := m.publisher.PublishSync(ctx, event); err != nil {
		m.logger.Error("failed to publish recurrent payment event",
			"error", err,
			"event_type", event.EventType(),
			"event_id", event.EventID())
	}
}
