package consumer

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/recurrent-payments/internal"
	"github.com/frahmantamala/recurrent-payments/internal/core/datamodel/consumer"
)

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

// GetByID resolves a live consumer. Deleted consumers yield ErrConsumerDeleted.
func (s *Service) GetByID(ctx context.Context, id string) (*consumer.ServiceConsumer, error) {
	c, err := s.repo.GetByIDUnscoped(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.IsDeleted() {
		return nil, internal.ErrConsumerDeleted.Withf("service consumer %s is deleted", id)
	}
	return c, nil
}

// GetRecipient resolves the consumer a notification is addressed to. Deleted
// consumers are still addressable.
func (s *Service) GetRecipient(ctx context.Context, id string) (*consumer.ServiceConsumer, error) {
	return s.repo.GetByIDUnscoped(ctx, id)
}

// GetAcquiringIntegration returns the enabled acquiring integration linked to c.
func (s *Service) GetAcquiringIntegration(ctx context.Context, c *consumer.ServiceConsumer) (*consumer.AcquiringIntegrationContext, error) {
	if c.AcquiringIntegrationContextID == nil || *c.AcquiringIntegrationContextID == "" {
		return nil, internal.ErrAcquiringNotFound.Withf("service consumer %s has no acquiring integration context", c.ID)
	}

	acquiring, err := s.repo.GetAcquiringContext(ctx, *c.AcquiringIntegrationContextID)
	if err != nil {
		return nil, err
	}
	if !acquiring.Enabled {
		s.logger.Warn("acquiring integration disabled",
			"service_consumer_id", c.ID,
			"acquiring_integration_context_id", acquiring.ID)
		return nil, internal.ErrAcquiringDisabled.Withf("acquiring integration context %s is disabled", acquiring.ID)
	}
	return acquiring, nil
}
