package service

import (
	"time"

	"github.com/datapass/datapass/internal/config"
	"github.com/datapass/datapass/internal/domain/consumer"
	"github.com/datapass/datapass/internal/domain/payment"
	"github.com/datapass/datapass/internal/domain/pricing"
	"github.com/datapass/datapass/internal/domain/registry"
	"github.com/datapass/datapass/internal/domain/subscription"
	"github.com/datapass/datapass/internal/logger"
	"github.com/datapass/datapass/internal/types"
	"github.com/datapass/datapass/internal/webhook"
)

// ServiceParams bundles the dependencies injected into services.
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration

	SubRepo      subscription.Repository
	ConsumerRepo consumer.Repository
	Registry     registry.InstanceRegistry

	FeePolicy    pricing.Policy
	ChargingPort payment.ChargingPort

	EventPublisher webhook.Publisher

	// Clock supplies operation time; defaults to the UTC system clock.
	Clock types.Clock
}

// now reads the operation clock once; callers pass the value through the
// whole operation rather than re-reading.
func (p ServiceParams) now() time.Time {
	if p.Clock != nil {
		return p.Clock()
	}
	return types.DefaultClock()
}
