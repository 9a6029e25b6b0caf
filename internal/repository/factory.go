package repository

import (
	"context"

	"github.com/datapass/datapass/internal/config"
	"github.com/datapass/datapass/internal/domain/consumer"
	"github.com/datapass/datapass/internal/domain/registry"
	"github.com/datapass/datapass/internal/domain/subscription"
	ierr "github.com/datapass/datapass/internal/errors"
	"github.com/datapass/datapass/internal/logger"
	pgclient "github.com/datapass/datapass/internal/postgres"
	"github.com/datapass/datapass/internal/repository/memory"
	"github.com/datapass/datapass/internal/repository/postgres"
	"github.com/datapass/datapass/internal/webhook"
)

// Repositories bundles the three ledger-side stores behind their domain
// interfaces.
type Repositories struct {
	Subscription  subscription.Repository
	ConsumerIndex consumer.Repository
	Registry      registry.InstanceRegistry
}

// NewRepositories selects the backend from configuration.
func NewRepositories(cfg *config.Configuration, log *logger.Logger, publisher webhook.Publisher) (*Repositories, error) {
	switch cfg.Subscription.Store {
	case "memory":
		return &Repositories{
			Subscription:  memory.NewSubscriptionStore(),
			ConsumerIndex: memory.NewConsumerIndex(),
			Registry:      memory.NewInstanceRegistry(publisher),
		}, nil
	case "postgres":
		client, err := pgclient.NewClient(cfg, log)
		if err != nil {
			return nil, err
		}
		if err := postgres.EnsureSchema(context.Background(), client); err != nil {
			return nil, err
		}
		return &Repositories{
			Subscription:  postgres.NewSubscriptionRepository(client),
			ConsumerIndex: postgres.NewConsumerIndexRepository(client),
			Registry:      postgres.NewInstanceRegistryRepository(client, publisher),
		}, nil
	default:
		return nil, ierr.NewErrorf("unknown subscription store %q", cfg.Subscription.Store).
			Mark(ierr.ErrValidation)
	}
}
