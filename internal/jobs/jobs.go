package jobs

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/frahmantamala/recurrent-payments/internal/core/datamodel/billing"
	paymentgatewaytypes "github.com/frahmantamala/recurrent-payments/internal/core/datamodel/paymentgateway"
	"github.com/frahmantamala/recurrent-payments/internal/core/datamodel/recurrentpayment"
	"github.com/frahmantamala/recurrent-payments/internal/paymentcontext"
	"github.com/frahmantamala/recurrent-payments/internal/recurrent"
	"github.com/frahmantamala/recurrent-payments/internal/worker"
)

const (
	JobCreateDue    = "create-due"
	JobCharge       = "charge"
	JobNotifyBefore = "notify-before"
	JobScanNewBills = "scan-new-bills"
)

// Names lists the jobs in the order the worker host runs them.
var Names = []string{JobScanNewBills, JobCreateDue, JobCharge, JobNotifyBefore}

type ContextSelector interface {
	SelectDueContexts(ctx context.Context, asOf time.Time, pageSize, offset int, extra paymentcontext.Scope) ([]*recurrentpayment.PaymentContext, error)
	SelectAutoPayContexts(ctx context.Context, pageSize, offset int, extra paymentcontext.Scope) ([]*recurrentpayment.PaymentContext, error)
}

type BillResolver interface {
	ResolveBillsForPeriod(ctx context.Context, pc *recurrentpayment.PaymentContext, asOf time.Time) ([]billing.Receipt, error)
	FilterUnpaid(ctx context.Context, receipts []billing.Receipt) ([]billing.Receipt, error)
}

type AttemptMachine interface {
	GetReadyAttempts(ctx context.Context, pageSize, offset int, extra recurrent.Scope) ([]*recurrentpayment.RecurrentPayment, error)
	Claim(ctx context.Context, attempt *recurrentpayment.RecurrentPayment) error
	MarkSucceeded(ctx context.Context, attempt *recurrentpayment.RecurrentPayment) error
	MarkFailed(ctx context.Context, attempt *recurrentpayment.RecurrentPayment, message string, code recurrent.ErrorCode) error
}

type PaymentRegistrar interface {
	RegisterPayment(ctx context.Context, attempt *recurrentpayment.RecurrentPayment) (*recurrent.RegisterResult, error)
	CreateAttempt(ctx context.Context, pc *recurrentpayment.PaymentContext, asOf time.Time, unpaid []billing.Receipt, payAfter *time.Time) (*recurrentpayment.RecurrentPayment, error)
}

type Gateway interface {
	CheckCardToken(ctx context.Context, getCardTokensURL, cardID string) bool
	ProceedPayment(ctx context.Context, directPaymentURL, cardID string) paymentgatewaytypes.ProceedResult
}

type Notifier interface {
	NotifyUpcoming(ctx context.Context, pc *recurrentpayment.PaymentContext, attempt *recurrentpayment.RecurrentPayment, day time.Time) error
	NotifyUpcomingNoReceipts(ctx context.Context, pc *recurrentpayment.PaymentContext, day time.Time) error
	NotifyUpcomingLimitExceeded(ctx context.Context, pc *recurrentpayment.PaymentContext, toPay decimal.Decimal, day time.Time) error
	NotifyNoReceiptsToProceed(ctx context.Context, pc *recurrentpayment.PaymentContext, day time.Time) error
}

// CursorStore keeps the creation time up to which a job has already read.
type CursorStore interface {
	Get(ctx context.Context, name string) (time.Time, bool, error)
	Save(ctx context.Context, name string, lastDt time.Time) error
}

type Runner interface {
	RunBatch(ctx context.Context, jobs []worker.Job) worker.Result
}

type Dependencies struct {
	Contexts  ContextSelector
	Bills     BillResolver
	Machine   AttemptMachine
	Registrar PaymentRegistrar
	Gateway   Gateway
	Notifier  Notifier
	Cursors   CursorStore
	Runner    Runner
}

type Config struct {
	PageSize        int
	RemindDaysAhead int
}

// Report sums the units of one job invocation.
type Report struct {
	Job      string        `json:"job"`
	Total    int           `json:"total"`
	Failed   int           `json:"failed"`
	Duration time.Duration `json:"duration"`
}

func (r *Report) add(res worker.Result) {
	r.Total += res.Total
	r.Failed += res.Failed
}
