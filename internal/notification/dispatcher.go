package notification

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/frahmantamala/recurrent-payments/internal/core/datamodel/notification"
	"github.com/frahmantamala/recurrent-payments/internal/core/datamodel/recurrentpayment"
)

type Config struct {
	ServerURL string
}

// Dispatcher stores at most one message per (type, key).
type Dispatcher struct {
	repo       RepositoryAPI
	contexts   ContextLookup
	recipients RecipientLookup
	logger     *slog.Logger
	config     Config
}

func NewDispatcher(repo RepositoryAPI, contexts ContextLookup, recipients RecipientLookup, logger *slog.Logger, config Config) *Dispatcher {
	config.ServerURL = strings.TrimRight(config.ServerURL, "/")
	return &Dispatcher{
		repo:       repo,
		contexts:   contexts,
		recipients: recipients,
		logger:     logger,
		config:     config,
	}
}

type failureMeta struct {
	messageType notification.MessageType
	// path may hold one %s for the context id.
	path string
}

var failures = map[recurrentpayment.ErrorCode]failureMeta{
	recurrentpayment.ErrorCodeUnknown:                       {notification.TypeProceedingUnknownError, "/support/create/"},
	recurrentpayment.ErrorCodeServiceConsumerNotFound:       {notification.TypeProceedingConsumerNotFoundError, "/support/create/"},
	recurrentpayment.ErrorCodeLimitExceeded:                 {notification.TypeProceedingLimitExceededError, "/payments/recurrent/%s/"},
	recurrentpayment.ErrorCodeContextNotFound:               {notification.TypeProceedingContextNotFoundError, "/support/create/"},
	recurrentpayment.ErrorCodeContextDisabled:               {notification.TypeProceedingContextDisabledError, "/support/create/"},
	recurrentpayment.ErrorCodeCardTokenNotValid:             {notification.TypeProceedingCardTokenNotValidError, "/payments/recurrent/%s/"},
	recurrentpayment.ErrorCodeCanNotRegisterMultiPayment:    {notification.TypeProceedingCanNotRegisterError, "/support/create/"},
	recurrentpayment.ErrorCodeAcquiringPaymentProceedFailed: {notification.TypeProceedingAcquiringProceedError, "/payments/"},
	recurrentpayment.ErrorCodeNoReceiptsToProceed:           {notification.TypeProceedingNoReceiptsError, "/payments/recurrent/%s"},
}

func failureFor(code recurrentpayment.ErrorCode) failureMeta {
	if m, ok := failures[code]; ok {
		return m
	}
	return failures[recurrentpayment.ErrorCodeUnknown]
}

func (d *Dispatcher) url(path, contextID string) string {
	if strings.Contains(path, "%s") {
		path = fmt.Sprintf(path, contextID)
	}
	return d.config.ServerURL + path
}

// NotifyOutcome tells the payer how a try of attempt ended. attempt.TryCount
// must already include that try.
func (d *Dispatcher) NotifyOutcome(ctx context.Context, attempt *recurrentpayment.RecurrentPayment, succeeded bool, code recurrentpayment.ErrorCode, lastTry bool) error {
	messageType := notification.TypeProceedingSuccess
	url := d.url("/payments/", attempt.RecurrentPaymentContextID)
	extra := map[string]interface{}{
		"recurrentPaymentId": attempt.ID,
	}
	if !succeeded {
		meta := failureFor(code)
		messageType = meta.messageType
		url = d.url(meta.path, attempt.RecurrentPaymentContextID)
		extra["errorCode"] = string(code)
		extra["lastTry"] = lastTry
	}
	extra["url"] = url

	key := OutcomeKey(attempt.ID, attempt.TryCount, succeeded)
	return d.send(ctx, attempt.RecurrentPaymentContextID, messageType, key, extra)
}

// NotifyUpcoming sends the due tomorrow reminder, once per attempt when one
// is given and once per day otherwise. day is the business date of the run
// and dates the daily keys.
func (d *Dispatcher) NotifyUpcoming(ctx context.Context, pc *recurrentpayment.PaymentContext, attempt *recurrentpayment.RecurrentPayment, day time.Time) error {
	attemptID := ""
	if attempt != nil {
		attemptID = attempt.ID
	}
	key := UpcomingKey(pc.ID, attemptID, day)
	return d.send(ctx, pc.ID, notification.TypeTomorrowPayment, key, map[string]interface{}{
		"url": d.url("/payments/", pc.ID),
	})
}

func (d *Dispatcher) NotifyUpcomingNoReceipts(ctx context.Context, pc *recurrentpayment.PaymentContext, day time.Time) error {
	key := DailyKey(PrefixTomorrowNoReceipts, pc.ID, day)
	return d.send(ctx, pc.ID, notification.TypeTomorrowPaymentNoReceipts, key, map[string]interface{}{
		"url": d.url("/payments/", pc.ID),
	})
}

func (d *Dispatcher) NotifyUpcomingLimitExceeded(ctx context.Context, pc *recurrentpayment.PaymentContext, toPay decimal.Decimal, day time.Time) error {
	key := DailyKey(PrefixTomorrowLimitExceed, pc.ID, day)
	return d.send(ctx, pc.ID, notification.TypeTomorrowPaymentLimitExceed, key, map[string]interface{}{
		"url":         d.url("/payments/recurrent/%s/", pc.ID),
		"toPayAmount": toPay.String(),
	})
}

func (d *Dispatcher) NotifyNoReceiptsToProceed(ctx context.Context, pc *recurrentpayment.PaymentContext, day time.Time) error {
	key := DailyKey(PrefixNoReceiptsToProceed, pc.ID, day)
	return d.send(ctx, pc.ID, notification.TypeProceedingNoReceiptsError, key, map[string]interface{}{
		"url": d.url("/payments/recurrent/%s", pc.ID),
	})
}

func (d *Dispatcher) send(ctx context.Context, contextID string, messageType notification.MessageType, key Key, extra map[string]interface{}) error {
	uniqKey := key.String()

	existing, err := d.repo.FindByKey(ctx, messageType, uniqKey)
	if err != nil {
		return fmt.Errorf("lookup message %s: %w", uniqKey, err)
	}
	if existing != nil {
		d.logger.Debug("message already sent", "type", messageType, "uniq_key", uniqKey)
		return nil
	}

	pc, err := d.contexts.GetByIDUnscoped(ctx, contextID)
	if err != nil {
		return fmt.Errorf("resolve context %s: %w", contextID, err)
	}
	sc, err := d.recipients.GetRecipient(ctx, pc.ServiceConsumerID)
	if err != nil {
		return fmt.Errorf("resolve recipient of context %s: %w", contextID, err)
	}

	data := map[string]interface{}{
		"recurrentPaymentContextId": pc.ID,
		"serviceConsumerId":         sc.ID,
		"residentId":                sc.ResidentID,
		"userId":                    sc.UserID,
	}
	for k, v := range extra {
		data[k] = v
	}

	m := &notification.Message{
		UserID:  sc.UserID,
		Type:    messageType,
		UniqKey: uniqKey,
		Meta: datatypes.JSONMap{
			"dv":   1,
			"data": data,
		},
	}
	created, err := d.repo.Create(ctx, m)
	if err != nil {
		return fmt.Errorf("create message %s: %w", uniqKey, err)
	}
	if !created {
		d.logger.Debug("message sent concurrently", "type", messageType, "uniq_key", uniqKey)
		return nil
	}

	d.logger.Info("message queued",
		"type", messageType,
		"uniq_key", uniqKey,
		"user_id", sc.UserID,
		"context_id", pc.ID)
	return nil
}
