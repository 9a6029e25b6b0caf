package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/datapass/datapass/internal/api/dto"
	"github.com/datapass/datapass/internal/domain/pricing"
	ierr "github.com/datapass/datapass/internal/errors"
	"github.com/datapass/datapass/internal/testutil"
	"github.com/datapass/datapass/internal/types"
	"github.com/datapass/datapass/internal/webhook"
)

type EntitlementServiceSuite struct {
	testutil.BaseServiceTestSuite
	service EntitlementService
	params  ServiceParams
}

func TestEntitlementService(t *testing.T) {
	suite.Run(t, new(EntitlementServiceSuite))
}

func (s *EntitlementServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()

	policy, err := pricing.NewLinearPolicy(s.GetConfig())
	s.Require().NoError(err)

	s.params = ServiceParams{
		Logger:         s.GetLogger(),
		Config:         s.GetConfig(),
		SubRepo:        s.GetStores().SubscriptionRepo,
		ConsumerRepo:   s.GetStores().ConsumerRepo,
		Registry:       s.GetStores().Registry,
		FeePolicy:      policy,
		ChargingPort:   s.GetChargingPort(),
		EventPublisher: s.GetPublisher(),
		Clock:          s.GetClock().Now,
	}
	s.service, err = NewEntitlementService(s.params)
	s.Require().NoError(err)
}

// subscribe is a helper that purchases a subscription for the caller.
func (s *EntitlementServiceSuite) subscribe(caller string, days, seats int) *dto.SubscriptionResponse {
	resp, err := s.service.Subscribe(s.GetContext(caller), dto.SubscribeRequest{
		ResourceID:    testutil.TestResourceID,
		DurationDays:  days,
		ConsumerCount: seats,
	})
	s.Require().NoError(err)
	return resp
}

// fee mirrors the linear test policy: days*1 + days*seats*0.1.
func (s *EntitlementServiceSuite) fee(days, seats int) decimal.Decimal {
	d := decimal.NewFromInt(int64(days))
	c := decimal.NewFromInt(int64(seats))
	return d.Add(d.Mul(c).Mul(decimal.RequireFromString("0.1")))
}

func (s *EntitlementServiceSuite) TestConfigureTwice() {
	err := s.service.Configure("another-dataset")
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *EntitlementServiceSuite) TestQuoteSubscriptionFee() {
	s.Run("Valid Quote", func() {
		resp, err := s.service.QuoteSubscriptionFee(s.GetContext("alice"), dto.SubscriptionFeeQuoteRequest{
			DurationDays:  30,
			ConsumerCount: 5,
		})
		s.NoError(err)
		s.Equal("USD", resp.Asset)
		s.True(resp.Amount.Equal(s.fee(30, 5)))
	})

	s.Run("Duration Too Long", func() {
		_, err := s.service.QuoteSubscriptionFee(s.GetContext("alice"), dto.SubscriptionFeeQuoteRequest{
			DurationDays:  366,
			ConsumerCount: 1,
		})
		s.Error(err)
		s.True(ierr.IsValidation(err))
	})

	s.Run("Zero Consumers", func() {
		_, err := s.service.QuoteSubscriptionFee(s.GetContext("alice"), dto.SubscriptionFeeQuoteRequest{
			DurationDays:  30,
			ConsumerCount: 0,
		})
		s.Error(err)
		s.True(ierr.IsValidation(err))
	})
}

func (s *EntitlementServiceSuite) TestSubscribe() {
	now := s.GetClock().Now()

	resp := s.subscribe("alice", 30, 5)

	s.Equal(uint64(1), resp.ID)
	s.Equal(now, resp.ValidSince)
	s.Equal(now.Add(types.DaysToDuration(30)), resp.ValidTill)
	s.Equal(5, resp.PaidConsumers)
	s.Empty(resp.Consumers)

	charge := s.GetChargingPort().LastCharge()
	s.Require().NotNil(charge)
	s.Equal("alice", charge.Payer)
	s.True(charge.Fee.Amount.Equal(s.fee(30, 5)))

	paid := s.GetPublisher().EventsOfType(webhook.EventSubscriptionPaid)
	s.Len(paid, 1)
	transfers := s.GetPublisher().EventsOfType(webhook.EventInstanceMoved)
	s.Len(transfers, 1)
}

func (s *EntitlementServiceSuite) TestSubscribeTwiceFails() {
	s.subscribe("alice", 30, 5)

	_, err := s.service.Subscribe(s.GetContext("alice"), dto.SubscribeRequest{
		ResourceID:    testutil.TestResourceID,
		DurationDays:  10,
		ConsumerCount: 1,
	})
	s.Error(err)
	s.True(ierr.IsAlreadyExists(err))
}

func (s *EntitlementServiceSuite) TestSubscribeUnsupportedResource() {
	_, err := s.service.Subscribe(s.GetContext("alice"), dto.SubscribeRequest{
		ResourceID:    "some-other-dataset",
		DurationDays:  30,
		ConsumerCount: 5,
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *EntitlementServiceSuite) TestSubscribeChargeFailureLeavesNoState() {
	s.GetChargingPort().FailNext()

	_, err := s.service.Subscribe(s.GetContext("alice"), dto.SubscribeRequest{
		ResourceID:    testutil.TestResourceID,
		DurationDays:  30,
		ConsumerCount: 5,
	})
	s.Error(err)
	s.True(ierr.IsPaymentFailed(err))

	count, err := s.GetStores().SubscriptionRepo.Count(s.GetContext("alice"))
	s.NoError(err)
	s.Zero(count)

	owned, err := s.GetStores().Registry.CountOwnedBy(s.GetContext("alice"), "alice")
	s.NoError(err)
	s.Zero(owned)

	s.Empty(s.GetPublisher().Events())
}

func (s *EntitlementServiceSuite) TestSubscribeWithConsumers() {
	resp, err := s.service.Subscribe(s.GetContext("alice"), dto.SubscribeRequest{
		ResourceID:   testutil.TestResourceID,
		DurationDays: 30,
		Consumers:    []string{"c1", "c2", "c3"},
	})
	s.Require().NoError(err)

	s.Equal(3, resp.PaidConsumers)
	s.ElementsMatch([]string{"c1", "c2", "c3"}, resp.Consumers)

	added := s.GetPublisher().EventsOfType(webhook.EventConsumerAdded)
	s.Len(added, 3)

	for _, c := range []string{"c1", "c2", "c3"} {
		ids, err := s.GetStores().ConsumerRepo.Subscriptions(s.GetContext("alice"), c)
		s.NoError(err)
		s.Equal([]uint64{resp.ID}, ids)
	}
}

func (s *EntitlementServiceSuite) TestQuoteExtraConsumerFee() {
	resp := s.subscribe("alice", 30, 5)

	s.Run("Active Subscription", func() {
		quote, err := s.service.QuoteExtraConsumerFee(s.GetContext("alice"), dto.ExtraConsumerFeeQuoteRequest{
			SubscriptionID: resp.ID,
			ExtraConsumers: 2,
		})
		s.NoError(err)
		s.True(quote.Amount.Equal(s.fee(30, 7).Sub(s.fee(30, 5))))
	})

	s.Run("Unknown Subscription", func() {
		_, err := s.service.QuoteExtraConsumerFee(s.GetContext("alice"), dto.ExtraConsumerFeeQuoteRequest{
			SubscriptionID: 99,
			ExtraConsumers: 2,
		})
		s.Error(err)
		s.True(ierr.IsNotFound(err))
	})

	s.Run("Lapsed Subscription", func() {
		s.GetClock().Advance(types.DaysToDuration(31))
		_, err := s.service.QuoteExtraConsumerFee(s.GetContext("alice"), dto.ExtraConsumerFeeQuoteRequest{
			SubscriptionID: resp.ID,
			ExtraConsumers: 2,
		})
		s.Error(err)
		s.True(ierr.IsInvalidOperation(err))
	})
}

func (s *EntitlementServiceSuite) TestExtendWhileValid() {
	resp := s.subscribe("alice", 30, 5)
	originalSince := resp.ValidSince

	// 5 days remaining, inside the renewal window.
	s.GetClock().Advance(types.DaysToDuration(25))

	extended, err := s.service.ExtendSubscription(s.GetContext("alice"), dto.ExtendSubscriptionRequest{
		SubscriptionID:    resp.ID,
		ExtraDurationDays: 10,
	})
	s.Require().NoError(err)

	// Total duration is refit from the original start.
	s.Equal(originalSince, extended.ValidSince)
	s.Equal(originalSince.Add(types.DaysToDuration(40)), extended.ValidTill)
	s.Equal(5, extended.PaidConsumers)

	charge := s.GetChargingPort().LastCharge()
	s.Require().NotNil(charge)
	s.True(charge.Fee.Amount.Equal(s.fee(40, 5).Sub(s.fee(30, 5))))
}

func (s *EntitlementServiceSuite) TestExtendTooEarly() {
	resp := s.subscribe("alice", 60, 5)

	_, err := s.service.ExtendSubscription(s.GetContext("alice"), dto.ExtendSubscriptionRequest{
		SubscriptionID:    resp.ID,
		ExtraDurationDays: 10,
	})
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *EntitlementServiceSuite) TestExtendSeatsOnly() {
	resp := s.subscribe("alice", 60, 5)

	// Seat top-ups are allowed at any point in the window.
	extended, err := s.service.ExtendSubscription(s.GetContext("alice"), dto.ExtendSubscriptionRequest{
		SubscriptionID: resp.ID,
		ExtraConsumers: 2,
	})
	s.Require().NoError(err)

	s.Equal(7, extended.PaidConsumers)
	s.Equal(resp.ValidSince, extended.ValidSince)
	s.Equal(resp.ValidTill, extended.ValidTill)

	charge := s.GetChargingPort().LastCharge()
	s.Require().NotNil(charge)
	s.True(charge.Fee.Amount.Equal(s.fee(60, 7).Sub(s.fee(60, 5))))
}

func (s *EntitlementServiceSuite) TestExtendLapsed() {
	resp := s.subscribe("alice", 30, 5)
	s.GetClock().Advance(types.DaysToDuration(45))
	now := s.GetClock().Now()

	extended, err := s.service.ExtendSubscription(s.GetContext("alice"), dto.ExtendSubscriptionRequest{
		SubscriptionID:    resp.ID,
		ExtraDurationDays: 15,
	})
	s.Require().NoError(err)

	// Reactivation opens a fresh window at the clock, full price.
	s.Equal(now, extended.ValidSince)
	s.Equal(now.Add(types.DaysToDuration(15)), extended.ValidTill)

	charge := s.GetChargingPort().LastCharge()
	s.Require().NotNil(charge)
	s.True(charge.Fee.Amount.Equal(s.fee(15, 5)))
}

func (s *EntitlementServiceSuite) TestExtendNothingToPay() {
	resp := s.subscribe("alice", 30, 5)

	_, err := s.service.ExtendSubscription(s.GetContext("alice"), dto.ExtendSubscriptionRequest{
		SubscriptionID: resp.ID,
	})
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *EntitlementServiceSuite) TestExtendLapsedZeroDuration() {
	resp := s.subscribe("alice", 30, 5)
	s.GetClock().Advance(types.DaysToDuration(31))

	// With a zero-length window the linear policy charges nothing, so the
	// reactivation is rejected as having nothing to pay.
	_, err := s.service.ExtendSubscription(s.GetContext("alice"), dto.ExtendSubscriptionRequest{
		SubscriptionID: resp.ID,
		ExtraConsumers: 2,
	})
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *EntitlementServiceSuite) TestExtendUnknownSubscription() {
	_, err := s.service.ExtendSubscription(s.GetContext("alice"), dto.ExtendSubscriptionRequest{
		SubscriptionID:    42,
		ExtraDurationDays: 10,
	})
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *EntitlementServiceSuite) TestAddConsumers() {
	resp := s.subscribe("alice", 30, 3)

	s.Run("Within Seats", func() {
		updated, err := s.service.AddConsumers(s.GetContext("alice"), dto.AddConsumersRequest{
			SubscriptionID: resp.ID,
			Consumers:      []string{"c1", "c2"},
		})
		s.NoError(err)
		s.ElementsMatch([]string{"c1", "c2"}, updated.Consumers)
		s.Len(s.GetPublisher().EventsOfType(webhook.EventConsumerAdded), 2)
	})

	s.Run("Idempotent Re-Add", func() {
		s.GetPublisher().Reset()
		updated, err := s.service.AddConsumers(s.GetContext("alice"), dto.AddConsumersRequest{
			SubscriptionID: resp.ID,
			Consumers:      []string{"c1"},
		})
		s.NoError(err)
		s.ElementsMatch([]string{"c1", "c2"}, updated.Consumers)
		s.Empty(s.GetPublisher().Events())
	})

	s.Run("Batch Exceeding Seats Rejected Whole", func() {
		_, err := s.service.AddConsumers(s.GetContext("alice"), dto.AddConsumersRequest{
			SubscriptionID: resp.ID,
			Consumers:      []string{"c3", "c4"},
		})
		s.Error(err)
		s.True(ierr.IsInvalidOperation(err))

		current, err := s.service.GetSubscription(s.GetContext("alice"), resp.ID)
		s.NoError(err)
		s.ElementsMatch([]string{"c1", "c2"}, current.Consumers)
	})

	s.Run("Not Owner", func() {
		_, err := s.service.AddConsumers(s.GetContext("mallory"), dto.AddConsumersRequest{
			SubscriptionID: resp.ID,
			Consumers:      []string{"c3"},
		})
		s.Error(err)
		s.True(ierr.IsPermissionDenied(err))
	})
}

func (s *EntitlementServiceSuite) TestRemoveConsumers() {
	resp := s.subscribe("alice", 30, 3)
	_, err := s.service.AddConsumers(s.GetContext("alice"), dto.AddConsumersRequest{
		SubscriptionID: resp.ID,
		Consumers:      []string{"c1", "c2"},
	})
	s.Require().NoError(err)
	s.GetPublisher().Reset()

	updated, err := s.service.RemoveConsumers(s.GetContext("alice"), dto.RemoveConsumersRequest{
		SubscriptionID: resp.ID,
		Consumers:      []string{"c1", "ghost"},
	})
	s.Require().NoError(err)

	// Removing the absent address is a silent no-op; seats stay paid.
	s.ElementsMatch([]string{"c2"}, updated.Consumers)
	s.Equal(3, updated.PaidConsumers)
	s.Len(s.GetPublisher().EventsOfType(webhook.EventConsumerRemoved), 1)

	ids, err := s.GetStores().ConsumerRepo.Subscriptions(s.GetContext("alice"), "c1")
	s.NoError(err)
	s.Empty(ids)
}

func (s *EntitlementServiceSuite) TestReplaceConsumers() {
	resp := s.subscribe("alice", 30, 2)
	_, err := s.service.AddConsumers(s.GetContext("alice"), dto.AddConsumersRequest{
		SubscriptionID: resp.ID,
		Consumers:      []string{"c1", "c2"},
	})
	s.Require().NoError(err)

	s.Run("Successful Swap", func() {
		s.GetPublisher().Reset()
		updated, err := s.service.ReplaceConsumers(s.GetContext("alice"), dto.ReplaceConsumersRequest{
			SubscriptionID: resp.ID,
			OldConsumers:   []string{"c1"},
			NewConsumers:   []string{"c3"},
		})
		s.NoError(err)
		s.ElementsMatch([]string{"c2", "c3"}, updated.Consumers)
		s.Len(s.GetPublisher().EventsOfType(webhook.EventConsumerRemoved), 1)
		s.Len(s.GetPublisher().EventsOfType(webhook.EventConsumerAdded), 1)
	})

	s.Run("Missing Old Member Rejects Batch", func() {
		s.GetPublisher().Reset()
		_, err := s.service.ReplaceConsumers(s.GetContext("alice"), dto.ReplaceConsumersRequest{
			SubscriptionID: resp.ID,
			OldConsumers:   []string{"c2", "ghost"},
			NewConsumers:   []string{"c4", "c5"},
		})
		s.Error(err)
		s.True(ierr.IsNotFound(err))

		// The first pair must not have been applied either.
		current, err := s.service.GetSubscription(s.GetContext("alice"), resp.ID)
		s.NoError(err)
		s.ElementsMatch([]string{"c2", "c3"}, current.Consumers)
		s.Empty(s.GetPublisher().Events())
	})

	s.Run("Mismatched Lengths", func() {
		_, err := s.service.ReplaceConsumers(s.GetContext("alice"), dto.ReplaceConsumersRequest{
			SubscriptionID: resp.ID,
			OldConsumers:   []string{"c2"},
			NewConsumers:   []string{"c4", "c5"},
		})
		s.Error(err)
		s.True(ierr.IsValidation(err))
	})
}

func (s *EntitlementServiceSuite) TestAccessCheck() {
	resp := s.subscribe("alice", 30, 2)
	_, err := s.service.AddConsumers(s.GetContext("alice"), dto.AddConsumersRequest{
		SubscriptionID: resp.ID,
		Consumers:      []string{"c1"},
	})
	s.Require().NoError(err)

	check := func(consumer string) bool {
		out, err := s.service.IsCurrentlyAuthorized(s.GetContext("anyone"), dto.AccessCheckRequest{
			ResourceID: testutil.TestResourceID,
			Consumer:   consumer,
		})
		s.Require().NoError(err)
		return out.Authorized
	}

	s.True(check("c1"))
	s.False(check("stranger"))

	// Authorization expires with the window, no cleanup required.
	s.GetClock().Advance(types.DaysToDuration(31))
	s.False(check("c1"))
}

func (s *EntitlementServiceSuite) TestAccessCheckUnsupportedResource() {
	_, err := s.service.IsCurrentlyAuthorized(s.GetContext("anyone"), dto.AccessCheckRequest{
		ResourceID: "some-other-dataset",
		Consumer:   "c1",
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *EntitlementServiceSuite) TestPaidConsumersMonotonic() {
	resp := s.subscribe("alice", 30, 2)
	paid := resp.PaidConsumers

	for i := 0; i < 3; i++ {
		extended, err := s.service.ExtendSubscription(s.GetContext("alice"), dto.ExtendSubscriptionRequest{
			SubscriptionID: resp.ID,
			ExtraConsumers: 1,
		})
		s.Require().NoError(err)
		s.GreaterOrEqual(extended.PaidConsumers, paid)
		paid = extended.PaidConsumers
	}
	s.Equal(5, paid)
}

func (s *EntitlementServiceSuite) TestLedgerIndexConsistency() {
	resp := s.subscribe("alice", 30, 4)
	ctx := s.GetContext("alice")

	_, err := s.service.AddConsumers(ctx, dto.AddConsumersRequest{
		SubscriptionID: resp.ID,
		Consumers:      []string{"c1", "c2", "c3"},
	})
	s.Require().NoError(err)
	_, err = s.service.RemoveConsumers(ctx, dto.RemoveConsumersRequest{
		SubscriptionID: resp.ID,
		Consumers:      []string{"c2"},
	})
	s.Require().NoError(err)
	_, err = s.service.ReplaceConsumers(ctx, dto.ReplaceConsumersRequest{
		SubscriptionID: resp.ID,
		OldConsumers:   []string{"c3"},
		NewConsumers:   []string{"c4"},
	})
	s.Require().NoError(err)

	current, err := s.service.GetSubscription(ctx, resp.ID)
	s.Require().NoError(err)
	s.LessOrEqual(len(current.Consumers), current.PaidConsumers)

	// Every member maps back to the subscription, and only members do.
	for _, c := range []string{"c1", "c2", "c3", "c4"} {
		ids, err := s.GetStores().ConsumerRepo.Subscriptions(ctx, c)
		s.NoError(err)
		inLedger := false
		for _, member := range current.Consumers {
			if member == c {
				inLedger = true
			}
		}
		if inLedger {
			s.Equal([]uint64{resp.ID}, ids)
		} else {
			s.Empty(ids)
		}
	}
}
