package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/recurrent-payments/internal"
	"github.com/frahmantamala/recurrent-payments/internal/core/datamodel/billing"
	"github.com/frahmantamala/recurrent-payments/internal/core/datamodel/recurrentpayment"
	"github.com/frahmantamala/recurrent-payments/internal/recurrent"
	"github.com/frahmantamala/recurrent-payments/internal/worker"
	"github.com/frahmantamala/recurrent-payments/pkg/logger"
)

// settleTimeout bounds the state write that follows a unit whose own
// context already expired.
const settleTimeout = 5 * time.Second

type Service struct {
	deps   Dependencies
	config Config
	logger *slog.Logger
}

func NewService(deps Dependencies, config Config, logger *slog.Logger) *Service {
	if config.PageSize <= 0 {
		config.PageSize = internal.DefaultPageSize
	}
	if config.RemindDaysAhead <= 0 {
		config.RemindDaysAhead = 1
	}
	return &Service{
		deps:   deps,
		config: config,
		logger: logger,
	}
}

// Run executes the job called name.
func (s *Service) Run(ctx context.Context, name string, asOf time.Time) (*Report, error) {
	ctx = logger.WithRun(ctx, name)
	log := logger.From(ctx)
	started := time.Now()

	var (
		report *Report
		err    error
	)
	switch name {
	case JobCreateDue:
		report, err = s.CreateDueAttempts(ctx, asOf)
	case JobCharge:
		report, err = s.ChargeReadyAttempts(ctx)
	case JobNotifyBefore:
		report, err = s.NotifyBeforePaymentDate(ctx, asOf)
	case JobScanNewBills:
		report, err = s.ScanNewBills(ctx, asOf)
	default:
		return nil, internal.ErrUnknownJob.Withf("unknown job %q", name)
	}
	if err != nil {
		log.Error("job aborted", "error", err)
		return report, err
	}

	report.Duration = time.Since(started)
	log.Info("job finished",
		"total", report.Total,
		"failed", report.Failed,
		"duration", report.Duration)
	return report, nil
}

// CreateDueAttempts schedules an attempt for every context due on asOf.
func (s *Service) CreateDueAttempts(ctx context.Context, asOf time.Time) (*Report, error) {
	report := &Report{Job: JobCreateDue}
	err := s.eachContextPage(ctx, report,
		func(ctx context.Context, offset int) ([]*recurrentpayment.PaymentContext, error) {
			return s.deps.Contexts.SelectDueContexts(ctx, asOf, s.config.PageSize, offset, nil)
		},
		func(ctx context.Context, pc *recurrentpayment.PaymentContext) error {
			return s.createDue(ctx, pc, asOf)
		})
	return report, err
}

func (s *Service) createDue(ctx context.Context, pc *recurrentpayment.PaymentContext, asOf time.Time) error {
	receipts, err := s.deps.Bills.ResolveBillsForPeriod(ctx, pc, asOf)
	if err != nil {
		return err
	}
	unpaid, err := s.deps.Bills.FilterUnpaid(ctx, receipts)
	if err != nil {
		return err
	}
	if len(unpaid) == 0 {
		s.notify(ctx, pc.ID, s.deps.Notifier.NotifyNoReceiptsToProceed(ctx, pc, asOf))
		return nil
	}

	_, err = s.deps.Registrar.CreateAttempt(ctx, pc, asOf, unpaid, nil)
	return err
}

// ChargeReadyAttempts takes every ready attempt through one try. The ready
// set is read up front so an attempt retried in this run is not picked again.
func (s *Service) ChargeReadyAttempts(ctx context.Context) (*Report, error) {
	report := &Report{Job: JobCharge}

	var ready []*recurrentpayment.RecurrentPayment
	for offset := 0; ; offset += s.config.PageSize {
		page, err := s.deps.Machine.GetReadyAttempts(ctx, s.config.PageSize, offset, nil)
		if err != nil {
			return report, err
		}
		ready = append(ready, page...)
		if len(page) < s.config.PageSize {
			break
		}
	}

	for start := 0; start < len(ready); start += s.config.PageSize {
		end := min(start+s.config.PageSize, len(ready))
		batch := make([]worker.Job, 0, end-start)
		for _, attempt := range ready[start:end] {
			attempt := attempt
			batch = append(batch, worker.Job{
				Name: "charge:" + attempt.ID,
				Run: func(ctx context.Context) error {
					return s.charge(ctx, attempt)
				},
			})
		}
		report.add(s.deps.Runner.RunBatch(ctx, batch))
	}
	return report, nil
}

func (s *Service) charge(ctx context.Context, attempt *recurrentpayment.RecurrentPayment) error {
	log := logger.From(ctx).With("attempt_id", attempt.ID, "context_id", attempt.RecurrentPaymentContextID)

	if err := s.deps.Machine.Claim(ctx, attempt); err != nil {
		if errors.Is(err, internal.ErrAttemptAlreadyClaimed) {
			log.Info("attempt claimed by another run")
			return nil
		}
		return err
	}

	result, err := s.deps.Registrar.RegisterPayment(ctx, attempt)
	if err != nil {
		log.Error("failed to register payment", "error", err)
		return errors.Join(err, s.fail(ctx, attempt, err.Error(), recurrent.ErrorCodeUnknown))
	}
	if !result.Registered {
		code, message := result.ErrorCode, result.ErrorMessage
		if code == "" {
			code = recurrent.ErrorCodeNoReceiptsToProceed
			message = fmt.Sprintf("No receipts to proceed for RecurrentPayment(%s)", attempt.ID)
		}
		return s.fail(ctx, attempt, message, code)
	}

	cardID := result.Context.CardID()
	if !s.deps.Gateway.CheckCardToken(ctx, result.GetCardTokensURL, cardID) {
		return s.fail(ctx, attempt, fmt.Sprintf("Provided card token id is not valid %s", cardID), recurrent.ErrorCodeCardTokenNotValid)
	}

	proceed := s.deps.Gateway.ProceedPayment(ctx, result.DirectPaymentURL, cardID)
	if !proceed.Paid {
		return s.fail(ctx, attempt, proceed.ErrorMessage, proceed.ErrorCode)
	}

	settle, cancel := settleContext(ctx)
	defer cancel()
	return s.deps.Machine.MarkSucceeded(settle, attempt)
}

func (s *Service) fail(ctx context.Context, attempt *recurrentpayment.RecurrentPayment, message string, code recurrent.ErrorCode) error {
	settle, cancel := settleContext(ctx)
	defer cancel()
	return s.deps.Machine.MarkFailed(settle, attempt, message, code)
}

// settleContext survives the unit deadline so a claimed attempt is not left
// in PROCESSING after a slow gateway call.
func settleContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return internal.WithTimeout(context.WithoutCancel(ctx), settleTimeout)
}

// NotifyBeforePaymentDate reminds payers whose contexts are due
// RemindDaysAhead days after asOf.
func (s *Service) NotifyBeforePaymentDate(ctx context.Context, asOf time.Time) (*Report, error) {
	report := &Report{Job: JobNotifyBefore}
	dueOn := asOf.AddDate(0, 0, s.config.RemindDaysAhead)
	err := s.eachContextPage(ctx, report,
		func(ctx context.Context, offset int) ([]*recurrentpayment.PaymentContext, error) {
			return s.deps.Contexts.SelectDueContexts(ctx, dueOn, s.config.PageSize, offset, nil)
		},
		func(ctx context.Context, pc *recurrentpayment.PaymentContext) error {
			return s.remind(ctx, pc, asOf, dueOn)
		})
	return report, err
}

func (s *Service) remind(ctx context.Context, pc *recurrentpayment.PaymentContext, asOf, dueOn time.Time) error {
	receipts, err := s.deps.Bills.ResolveBillsForPeriod(ctx, pc, dueOn)
	if err != nil {
		return err
	}
	unpaid, err := s.deps.Bills.FilterUnpaid(ctx, receipts)
	if err != nil {
		return err
	}

	if len(unpaid) == 0 {
		return s.deps.Notifier.NotifyUpcomingNoReceipts(ctx, pc, asOf)
	}
	total := billing.Total(unpaid)
	if pc.HasLimit() && total.GreaterThan(pc.Limit.Decimal) {
		return s.deps.Notifier.NotifyUpcomingLimitExceeded(ctx, pc, total, asOf)
	}
	return s.deps.Notifier.NotifyUpcoming(ctx, pc, nil, asOf)
}

// ScanNewBills schedules the bills of auto pay contexts created since the
// previous scan for the next midnight and tells the payer about each new
// attempt. The cursor only advances when every context was handled.
func (s *Service) ScanNewBills(ctx context.Context, asOf time.Time) (*Report, error) {
	report := &Report{Job: JobScanNewBills}

	// A first scan has no cursor and takes every bill of the period.
	since, _, err := s.deps.Cursors.Get(ctx, JobScanNewBills)
	if err != nil {
		return report, err
	}

	payAfter := internal.NextDayStart(asOf)
	err = s.eachContextPage(ctx, report,
		func(ctx context.Context, offset int) ([]*recurrentpayment.PaymentContext, error) {
			return s.deps.Contexts.SelectAutoPayContexts(ctx, s.config.PageSize, offset, nil)
		},
		func(ctx context.Context, pc *recurrentpayment.PaymentContext) error {
			return s.scheduleNew(ctx, pc, asOf, since, &payAfter)
		})
	if err != nil {
		return report, err
	}

	if report.Failed > 0 {
		logger.From(ctx).Warn("scan cursor kept", "failed", report.Failed, "last_dt", since)
		return report, nil
	}
	return report, s.deps.Cursors.Save(ctx, JobScanNewBills, asOf)
}

func (s *Service) scheduleNew(ctx context.Context, pc *recurrentpayment.PaymentContext, asOf, since time.Time, payAfter *time.Time) error {
	receipts, err := s.deps.Bills.ResolveBillsForPeriod(ctx, pc, asOf)
	if err != nil {
		return err
	}
	fresh := billing.CreatedAfter(receipts, since)
	if len(fresh) == 0 {
		return nil
	}
	unpaid, err := s.deps.Bills.FilterUnpaid(ctx, fresh)
	if err != nil {
		return err
	}

	attempt, err := s.deps.Registrar.CreateAttempt(ctx, pc, asOf, unpaid, payAfter)
	if err != nil || attempt == nil {
		return err
	}
	s.notify(ctx, pc.ID, s.deps.Notifier.NotifyUpcoming(ctx, pc, attempt, asOf))
	return nil
}

func (s *Service) notify(ctx context.Context, contextID string, err error) {
	if err != nil {
		logger.From(ctx).Error("failed to send notification", "error", err, "context_id", contextID)
	}
}

type pageFunc func(ctx context.Context, offset int) ([]*recurrentpayment.PaymentContext, error)

type unitFunc func(ctx context.Context, pc *recurrentpayment.PaymentContext) error

// eachContextPage fans every context of every page out to the runner, one
// page at a time.
func (s *Service) eachContextPage(ctx context.Context, report *Report, page pageFunc, unit unitFunc) error {
	for offset := 0; ; offset += s.config.PageSize {
		contexts, err := page(ctx, offset)
		if err != nil {
			return err
		}

		batch := make([]worker.Job, 0, len(contexts))
		for _, pc := range contexts {
			pc := pc
			batch = append(batch, worker.Job{
				Name: report.Job + ":" + pc.ID,
				Run: func(ctx context.Context) error {
					return unit(logger.With(ctx, "context_id", pc.ID), pc)
				},
			})
		}
		report.add(s.deps.Runner.RunBatch(ctx, batch))

		if len(contexts) < s.config.PageSize {
			return nil
		}
	}
}
