package testutil

import (
	"context"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/datapass/datapass/internal/config"
	"github.com/datapass/datapass/internal/logger"
	"github.com/datapass/datapass/internal/repository/memory"
	"github.com/datapass/datapass/internal/types"
)

// TestResourceID is the dataset identifier bound in test configuration.
const TestResourceID = "dataset-main"

// Stores bundles the in-memory repositories used by service tests.
type Stores struct {
	SubscriptionRepo *memory.SubscriptionStore
	ConsumerRepo     *memory.ConsumerIndex
	Registry         *memory.InstanceRegistry
}

// BaseServiceTestSuite provides fresh stores, a controllable clock, a fake
// charging port, and a capture publisher for every test.
type BaseServiceTestSuite struct {
	suite.Suite

	stores    Stores
	cfg       *config.Configuration
	log       *logger.Logger
	clock     *FixedClock
	charging  *FakeChargingPort
	publisher *CapturePublisher
}

func (s *BaseServiceTestSuite) SetupTest() {
	s.cfg = GetTestConfig()
	s.log = logger.NewNopLogger()
	s.clock = NewFixedClock(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	s.charging = NewFakeChargingPort()
	s.publisher = NewCapturePublisher()
	s.stores = Stores{
		SubscriptionRepo: memory.NewSubscriptionStore(),
		ConsumerRepo:     memory.NewConsumerIndex(),
		Registry:         memory.NewInstanceRegistry(s.publisher),
	}
}

func GetTestConfig() *config.Configuration {
	return &config.Configuration{
		Deployment: config.DeploymentConfig{Mode: config.ModeLocal},
		Logging:    config.LoggingConfig{Level: "debug"},
		Subscription: config.SubscriptionConfig{
			ResourceID:        TestResourceID,
			Store:             "memory",
			MaxDurationDays:   types.MaxSubscriptionDays,
			RenewalWindowDays: types.RenewalWindowDays,
		},
		Pricing: config.PricingConfig{
			Asset:              "USD",
			PricePerDay:        "1",
			PricePerSeatAndDay: "0.1",
		},
	}
}

func (s *BaseServiceTestSuite) GetStores() Stores           { return s.stores }
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration { return s.cfg }
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger   { return s.log }
func (s *BaseServiceTestSuite) GetClock() *FixedClock       { return s.clock }
func (s *BaseServiceTestSuite) GetChargingPort() *FakeChargingPort { return s.charging }
func (s *BaseServiceTestSuite) GetPublisher() *CapturePublisher    { return s.publisher }

// GetContext returns a context carrying the given caller identity.
func (s *BaseServiceTestSuite) GetContext(callerID string) context.Context {
	return types.WithCallerID(context.Background(), callerID)
}
