package service

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"

	"github.com/datapass/datapass/internal/api/dto"
	"github.com/datapass/datapass/internal/domain/pricing"
	"github.com/datapass/datapass/internal/domain/subscription"
	ierr "github.com/datapass/datapass/internal/errors"
	"github.com/datapass/datapass/internal/types"
	"github.com/datapass/datapass/internal/webhook"
	webhookDto "github.com/datapass/datapass/internal/webhook/dto"
)

// EntitlementService is the public surface of the subscription lifecycle and
// entitlement engine. Every operation is atomic: it validates, prices,
// charges, and only then mutates the ledger and consumer index, emitting
// domain events after the mutation commits.
type EntitlementService interface {
	// Configure binds the managed resource identity. It must be called
	// exactly once before any other operation; a second call fails.
	Configure(resourceID string) error

	QuoteSubscriptionFee(ctx context.Context, req dto.SubscriptionFeeQuoteRequest) (*dto.FeeQuoteResponse, error)
	QuoteExtraConsumerFee(ctx context.Context, req dto.ExtraConsumerFeeQuoteRequest) (*dto.FeeQuoteResponse, error)

	Subscribe(ctx context.Context, req dto.SubscribeRequest) (*dto.SubscriptionResponse, error)
	ExtendSubscription(ctx context.Context, req dto.ExtendSubscriptionRequest) (*dto.SubscriptionResponse, error)

	AddConsumers(ctx context.Context, req dto.AddConsumersRequest) (*dto.SubscriptionResponse, error)
	RemoveConsumers(ctx context.Context, req dto.RemoveConsumersRequest) (*dto.SubscriptionResponse, error)
	ReplaceConsumers(ctx context.Context, req dto.ReplaceConsumersRequest) (*dto.SubscriptionResponse, error)

	GetSubscription(ctx context.Context, id uint64) (*dto.SubscriptionResponse, error)
	IsCurrentlyAuthorized(ctx context.Context, req dto.AccessCheckRequest) (*dto.AccessCheckResponse, error)
}

type entitlementService struct {
	ServiceParams

	resourceID string

	// feeCache memoizes policy results; the policy is pure, so entries
	// never expire.
	feeCache *cache.Cache
}

func NewEntitlementService(params ServiceParams) (EntitlementService, error) {
	s := &entitlementService{
		ServiceParams: params,
		feeCache:      cache.New(cache.NoExpiration, 0),
	}
	if params.Config != nil && params.Config.Subscription.ResourceID != "" {
		if err := s.Configure(params.Config.Subscription.ResourceID); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *entitlementService) Configure(resourceID string) error {
	if resourceID == "" {
		return ierr.NewError("resource ID is required").
			Mark(ierr.ErrValidation)
	}
	if s.resourceID != "" {
		return ierr.NewError("resource ID is already configured").
			WithHint("The managed resource can only be bound once").
			Mark(ierr.ErrInvalidOperation)
	}
	s.resourceID = resourceID
	return nil
}

// checkResource verifies the request targets the managed resource.
func (s *entitlementService) checkResource(resourceID string) error {
	if resourceID != s.resourceID {
		return ierr.NewErrorf("unsupported resource %q", resourceID).
			WithHint("This instance does not manage the requested resource").
			WithReportableDetails(map[string]any{"resource_id": resourceID}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// checkOwner resolves the controlling party via the registry and fails fast
// when the caller is not it.
func (s *entitlementService) checkOwner(ctx context.Context, subscriptionID uint64) (string, error) {
	caller := types.GetCallerID(ctx)
	if caller == "" {
		return "", ierr.NewError("caller identity is required").
			Mark(ierr.ErrPermissionDenied)
	}
	owner, err := s.Registry.OwnerOf(ctx, subscriptionID)
	if err != nil {
		return "", err
	}
	if owner != caller {
		return "", ierr.NewErrorf("caller is not the owner of subscription %d", subscriptionID).
			WithReportableDetails(map[string]any{
				"subscription_id": subscriptionID,
			}).
			Mark(ierr.ErrPermissionDenied)
	}
	return caller, nil
}

func (s *entitlementService) checkDuration(durationDays int) error {
	maxDays := s.Config.Subscription.MaxDurationDays
	if durationDays <= 0 || durationDays > maxDays {
		return ierr.NewErrorf("duration must be between 1 and %d days", maxDays).
			WithReportableDetails(map[string]any{"duration_days": durationDays}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// calculateFee consults the policy through the memoization cache.
func (s *entitlementService) calculateFee(durationDays, consumers int) (pricing.Fee, error) {
	key := fmt.Sprintf("%d:%d", durationDays, consumers)
	if cached, ok := s.feeCache.Get(key); ok {
		return cached.(pricing.Fee), nil
	}
	fee, err := s.FeePolicy.CalculateFee(durationDays, consumers)
	if err != nil {
		return pricing.Fee{}, err
	}
	s.feeCache.Set(key, fee, cache.NoExpiration)
	return fee, nil
}

func (s *entitlementService) QuoteSubscriptionFee(ctx context.Context, req dto.SubscriptionFeeQuoteRequest) (*dto.FeeQuoteResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkDuration(req.DurationDays); err != nil {
		return nil, err
	}

	fee, err := s.calculateFee(req.DurationDays, req.ConsumerCount)
	if err != nil {
		return nil, err
	}
	return dto.NewFeeQuoteResponse(fee), nil
}

func (s *entitlementService) QuoteExtraConsumerFee(ctx context.Context, req dto.ExtraConsumerFeeQuoteRequest) (*dto.FeeQuoteResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	now := s.now()

	sub, err := s.SubRepo.Get(ctx, req.SubscriptionID)
	if err != nil {
		return nil, err
	}
	if !sub.IsValidAt(now) {
		return nil, ierr.NewErrorf("subscription %d is not valid", sub.ID).
			WithHint("Extra seats can only be quoted for an active subscription").
			Mark(ierr.ErrInvalidOperation)
	}

	days := sub.DurationDays()
	current, err := s.calculateFee(days, sub.PaidConsumers)
	if err != nil {
		return nil, err
	}
	upgraded, err := s.calculateFee(days, sub.PaidConsumers+req.ExtraConsumers)
	if err != nil {
		return nil, err
	}

	delta := upgraded.Amount.Sub(current.Amount)
	if delta.IsNegative() {
		delta = decimal.Zero
	}
	return dto.NewFeeQuoteResponse(pricing.Fee{Asset: upgraded.Asset, Amount: delta}), nil
}

func (s *entitlementService) Subscribe(ctx context.Context, req dto.SubscribeRequest) (*dto.SubscriptionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkResource(req.ResourceID); err != nil {
		return nil, err
	}
	now := s.now()

	caller := types.GetCallerID(ctx)
	if caller == "" {
		return nil, ierr.NewError("caller identity is required").
			Mark(ierr.ErrPermissionDenied)
	}

	owned, err := s.Registry.CountOwnedBy(ctx, caller)
	if err != nil {
		return nil, err
	}
	if owned > 0 {
		return nil, ierr.NewError("caller already holds a subscription").
			WithHint("Each identity may hold at most one subscription").
			Mark(ierr.ErrAlreadyExists)
	}

	if err := s.checkDuration(req.DurationDays); err != nil {
		return nil, err
	}
	seats := req.Seats()

	fee, err := s.calculateFee(req.DurationDays, seats)
	if err != nil {
		return nil, err
	}
	if err := s.ChargingPort.Charge(ctx, caller, fee); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Charging the subscription fee failed").
			Mark(ierr.ErrPaymentFailed)
	}

	id, err := s.Registry.Mint(ctx, caller)
	if err != nil {
		return nil, err
	}

	sub := &subscription.Subscription{
		ID:            id,
		ValidSince:    now,
		ValidTill:     now.Add(types.DaysToDuration(req.DurationDays)),
		PaidConsumers: seats,
		BaseModel:     types.GetDefaultBaseModel(now),
	}

	var added []string
	for _, address := range req.Consumers {
		if sub.AddConsumer(address) {
			added = append(added, address)
		}
	}

	if err := s.SubRepo.Create(ctx, sub); err != nil {
		return nil, err
	}
	for _, address := range added {
		if err := s.ConsumerRepo.Add(ctx, address, sub.ID); err != nil {
			return nil, err
		}
	}

	s.Logger.Infow("subscription created",
		"subscription_id", sub.ID,
		"owner", caller,
		"duration_days", req.DurationDays,
		"paid_consumers", seats,
	)

	if err := s.publishPaid(ctx, sub); err != nil {
		return nil, err
	}
	for _, address := range added {
		if err := s.publishConsumer(ctx, webhook.EventConsumerAdded, sub.ID, address); err != nil {
			return nil, err
		}
	}

	return dto.NewSubscriptionResponse(sub), nil
}

func (s *entitlementService) ExtendSubscription(ctx context.Context, req dto.ExtendSubscriptionRequest) (*dto.SubscriptionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	now := s.now()

	caller := types.GetCallerID(ctx)
	if caller == "" {
		return nil, ierr.NewError("caller identity is required").
			Mark(ierr.ErrPermissionDenied)
	}

	sub, err := s.SubRepo.Get(ctx, req.SubscriptionID)
	if err != nil {
		return nil, err
	}

	if req.ExtraDurationDays > s.Config.Subscription.MaxDurationDays {
		return nil, ierr.NewErrorf("extra duration must not exceed %d days", s.Config.Subscription.MaxDurationDays).
			WithReportableDetails(map[string]any{"extra_duration_days": req.ExtraDurationDays}).
			Mark(ierr.ErrValidation)
	}

	var (
		currentFee pricing.Fee
		newSince   time.Time
		newDays    int
	)

	if sub.IsValidAt(now) {
		// Extension refits the total duration from the original start,
		// so the current window's full value counts against the new fee.
		if req.ExtraDurationDays > 0 {
			remaining := sub.ValidTill.Sub(now)
			window := types.DaysToDuration(s.Config.Subscription.RenewalWindowDays)
			if remaining > window {
				return nil, ierr.NewErrorf("more than %d days remaining", s.Config.Subscription.RenewalWindowDays).
					WithHint("Duration extensions are only permitted close to expiry").
					WithReportableDetails(map[string]any{
						"subscription_id": sub.ID,
						"valid_till":      sub.ValidTill,
					}).
					Mark(ierr.ErrInvalidOperation)
			}
		}
		currentFee, err = s.calculateFee(sub.DurationDays(), sub.PaidConsumers)
		if err != nil {
			return nil, err
		}
		newSince = sub.ValidSince
		newDays = sub.DurationDays() + req.ExtraDurationDays
	} else {
		// Lapsed: reactivation starts a fresh window at the clock.
		currentFee = pricing.Fee{Amount: decimal.Zero}
		newSince = now
		newDays = req.ExtraDurationDays
	}

	newSeats := sub.PaidConsumers + req.ExtraConsumers
	newFee, err := s.calculateFee(newDays, newSeats)
	if err != nil {
		return nil, err
	}

	if !newFee.Amount.GreaterThan(currentFee.Amount) {
		return nil, ierr.NewError("nothing to pay").
			WithHint("The requested extension does not increase the fee").
			Mark(ierr.ErrInvalidOperation)
	}

	delta := pricing.Fee{Asset: newFee.Asset, Amount: newFee.Amount.Sub(currentFee.Amount)}
	if err := s.ChargingPort.Charge(ctx, caller, delta); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Charging the extension fee failed").
			Mark(ierr.ErrPaymentFailed)
	}

	sub.ValidSince = newSince
	sub.ValidTill = newSince.Add(types.DaysToDuration(newDays))
	sub.PaidConsumers = newSeats
	sub.UpdatedAt = now

	if err := s.SubRepo.Update(ctx, sub); err != nil {
		return nil, err
	}

	s.Logger.Infow("subscription extended",
		"subscription_id", sub.ID,
		"duration_days", newDays,
		"paid_consumers", newSeats,
	)

	if err := s.publishPaid(ctx, sub); err != nil {
		return nil, err
	}
	return dto.NewSubscriptionResponse(sub), nil
}

func (s *entitlementService) AddConsumers(ctx context.Context, req dto.AddConsumersRequest) (*dto.SubscriptionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.checkOwner(ctx, req.SubscriptionID); err != nil {
		return nil, err
	}

	sub, err := s.SubRepo.Get(ctx, req.SubscriptionID)
	if err != nil {
		return nil, err
	}

	if sub.ConsumerCount()+len(req.Consumers) > sub.PaidConsumers {
		return nil, ierr.NewError("too many consumers").
			WithHint("The batch would exceed the paid seat count").
			WithReportableDetails(map[string]any{
				"current":        sub.ConsumerCount(),
				"requested":      len(req.Consumers),
				"paid_consumers": sub.PaidConsumers,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	var added []string
	for _, address := range req.Consumers {
		if sub.AddConsumer(address) {
			added = append(added, address)
		}
	}

	if len(added) == 0 {
		return dto.NewSubscriptionResponse(sub), nil
	}

	if err := s.SubRepo.Update(ctx, sub); err != nil {
		return nil, err
	}
	for _, address := range added {
		if err := s.ConsumerRepo.Add(ctx, address, sub.ID); err != nil {
			return nil, err
		}
	}
	for _, address := range added {
		if err := s.publishConsumer(ctx, webhook.EventConsumerAdded, sub.ID, address); err != nil {
			return nil, err
		}
	}

	return dto.NewSubscriptionResponse(sub), nil
}

func (s *entitlementService) RemoveConsumers(ctx context.Context, req dto.RemoveConsumersRequest) (*dto.SubscriptionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.checkOwner(ctx, req.SubscriptionID); err != nil {
		return nil, err
	}

	sub, err := s.SubRepo.Get(ctx, req.SubscriptionID)
	if err != nil {
		return nil, err
	}

	// Seats already paid for stay available for re-use; only membership
	// changes. Removing a non-member is a silent no-op.
	var removed []string
	for _, address := range req.Consumers {
		if sub.RemoveConsumer(address) {
			removed = append(removed, address)
		}
	}

	if len(removed) == 0 {
		return dto.NewSubscriptionResponse(sub), nil
	}

	if err := s.SubRepo.Update(ctx, sub); err != nil {
		return nil, err
	}
	for _, address := range removed {
		if err := s.ConsumerRepo.Remove(ctx, address, sub.ID); err != nil {
			return nil, err
		}
	}
	for _, address := range removed {
		if err := s.publishConsumer(ctx, webhook.EventConsumerRemoved, sub.ID, address); err != nil {
			return nil, err
		}
	}

	return dto.NewSubscriptionResponse(sub), nil
}

func (s *entitlementService) ReplaceConsumers(ctx context.Context, req dto.ReplaceConsumersRequest) (*dto.SubscriptionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.checkOwner(ctx, req.SubscriptionID); err != nil {
		return nil, err
	}

	sub, err := s.SubRepo.Get(ctx, req.SubscriptionID)
	if err != nil {
		return nil, err
	}

	// Pairs apply sequentially against a working copy; nothing persists
	// until the whole batch has succeeded. A missing old member fails the
	// call outright: skipping it would let the batch smuggle in a net
	// seat increase.
	type indexOp struct {
		event   string
		address string
	}
	var ops []indexOp

	for i := range req.OldConsumers {
		oldAddress := req.OldConsumers[i]
		newAddress := req.NewConsumers[i]

		if !sub.RemoveConsumer(oldAddress) {
			return nil, ierr.NewErrorf("consumer %s not found in subscription %d", oldAddress, sub.ID).
				WithReportableDetails(map[string]any{
					"subscription_id": sub.ID,
					"address":         oldAddress,
				}).
				Mark(ierr.ErrNotFound)
		}
		ops = append(ops, indexOp{event: webhook.EventConsumerRemoved, address: oldAddress})

		if sub.AddConsumer(newAddress) {
			ops = append(ops, indexOp{event: webhook.EventConsumerAdded, address: newAddress})
		}
	}

	if err := s.SubRepo.Update(ctx, sub); err != nil {
		return nil, err
	}
	for _, op := range ops {
		switch op.event {
		case webhook.EventConsumerAdded:
			err = s.ConsumerRepo.Add(ctx, op.address, sub.ID)
		case webhook.EventConsumerRemoved:
			err = s.ConsumerRepo.Remove(ctx, op.address, sub.ID)
		}
		if err != nil {
			return nil, err
		}
	}
	for _, op := range ops {
		if err := s.publishConsumer(ctx, op.event, sub.ID, op.address); err != nil {
			return nil, err
		}
	}

	return dto.NewSubscriptionResponse(sub), nil
}

func (s *entitlementService) GetSubscription(ctx context.Context, id uint64) (*dto.SubscriptionResponse, error) {
	if id == 0 {
		return nil, ierr.NewError("subscription ID is required").
			Mark(ierr.ErrValidation)
	}
	sub, err := s.SubRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewSubscriptionResponse(sub), nil
}

func (s *entitlementService) IsCurrentlyAuthorized(ctx context.Context, req dto.AccessCheckRequest) (*dto.AccessCheckResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkResource(req.ResourceID); err != nil {
		return nil, err
	}
	now := s.now()

	// Lapsed subscriptions stay in the index; validity is decided purely
	// by the time comparison, so no pruning is ever needed.
	ids, err := s.ConsumerRepo.Subscriptions(ctx, req.Consumer)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		sub, err := s.SubRepo.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if sub.IsValidAt(now) {
			return &dto.AccessCheckResponse{Authorized: true}, nil
		}
	}
	return &dto.AccessCheckResponse{Authorized: false}, nil
}

func (s *entitlementService) publishPaid(ctx context.Context, sub *subscription.Subscription) error {
	return s.EventPublisher.Publish(ctx, webhook.EventSubscriptionPaid, webhookDto.InternalSubscriptionEvent{
		EventType:      webhook.EventSubscriptionPaid,
		SubscriptionID: sub.ID,
		ValidSince:     sub.ValidSince,
		ValidTill:      sub.ValidTill,
		PaidConsumers:  sub.PaidConsumers,
	})
}

func (s *entitlementService) publishConsumer(ctx context.Context, eventType string, subscriptionID uint64, address string) error {
	return s.EventPublisher.Publish(ctx, eventType, webhookDto.InternalConsumerEvent{
		EventType:      eventType,
		SubscriptionID: subscriptionID,
		Address:        address,
	})
}
