package paymentcontext

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/recurrent-payments/internal"
	"github.com/frahmantamala/recurrent-payments/internal/core/common/validation"
	"github.com/frahmantamala/recurrent-payments/internal/core/datamodel/recurrentpayment"
)

// Service is the context scheduler.
type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// SelectDueContexts returns enabled, scheduled contexts whose payment day is
// asOf. On the last day of a month every payment day from that day on
// matches, so contexts set to the 29th, 30th or 31st still fire in short
// months.
func (s *Service) SelectDueContexts(ctx context.Context, asOf time.Time, pageSize, offset int, extra Scope) ([]*recurrentpayment.PaymentContext, error) {
	if err := validation.ValidateAsOfDate(asOf); err != nil {
		return nil, err
	}
	if err := validation.ValidatePage(pageSize, offset); err != nil {
		return nil, err
	}

	day := asOf.Day()
	q := DueQuery{
		Day:      day,
		OrLater:  day == internal.LastDayOfMonth(asOf),
		PageSize: pageSize,
		Offset:   offset,
		Extra:    extra,
	}

	contexts, err := s.repo.FindDue(ctx, q)
	if err != nil {
		s.logger.Error("failed to select due contexts", "error", err, "day", day, "offset", offset)
		return nil, err
	}

	s.logger.Debug("due contexts selected",
		"day", day,
		"or_later", q.OrLater,
		"offset", offset,
		"count", len(contexts))

	return contexts, nil
}

// SelectAutoPayContexts returns enabled contexts that pay bills as soon as they appear.
func (s *Service) SelectAutoPayContexts(ctx context.Context, pageSize, offset int, extra Scope) ([]*recurrentpayment.PaymentContext, error) {
	if err := validation.ValidatePage(pageSize, offset); err != nil {
		return nil, err
	}

	contexts, err := s.repo.FindAutoPay(ctx, pageSize, offset, extra)
	if err != nil {
		s.logger.Error("failed to select auto pay contexts", "error", err, "offset", offset)
		return nil, err
	}
	return contexts, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*recurrentpayment.PaymentContext, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByIDUnscoped(ctx context.Context, id string) (*recurrentpayment.PaymentContext, error) {
	return s.repo.GetByIDUnscoped(ctx, id)
}
