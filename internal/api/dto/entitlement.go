package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/datapass/datapass/internal/domain/pricing"
	"github.com/datapass/datapass/internal/domain/subscription"
	ierr "github.com/datapass/datapass/internal/errors"
	"github.com/datapass/datapass/internal/validator"
)

type SubscribeRequest struct {
	ResourceID   string `json:"resource_id" validate:"required"`
	DurationDays int    `json:"duration_days" validate:"required,gt=0"`
	// ConsumerCount is the number of seats to pay for. Ignored when
	// Consumers is provided; the seat count is then sized to the list.
	ConsumerCount int `json:"consumer_count,omitempty" validate:"omitempty,gt=0"`
	// Consumers optionally names the addresses to authorize in the same
	// operation as the purchase.
	Consumers []string `json:"consumers,omitempty" validate:"omitempty,min=1,dive,required"`
}

func (r *SubscribeRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if len(r.Consumers) == 0 && r.ConsumerCount <= 0 {
		return ierr.NewError("consumer_count must be positive").
			WithHint("Request at least one consumer seat").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// Seats returns the paid seat count implied by the request.
func (r *SubscribeRequest) Seats() int {
	if len(r.Consumers) > 0 {
		return len(r.Consumers)
	}
	return r.ConsumerCount
}

type ExtendSubscriptionRequest struct {
	SubscriptionID    uint64 `json:"subscription_id" validate:"required"`
	ExtraDurationDays int    `json:"extra_duration_days" validate:"gte=0"`
	ExtraConsumers    int    `json:"extra_consumers" validate:"gte=0"`
}

func (r *ExtendSubscriptionRequest) Validate() error {
	return validator.ValidateRequest(r)
}

type AddConsumersRequest struct {
	SubscriptionID uint64   `json:"subscription_id" validate:"required"`
	Consumers      []string `json:"consumers" validate:"required,min=1,dive,required"`
}

func (r *AddConsumersRequest) Validate() error {
	return validator.ValidateRequest(r)
}

type RemoveConsumersRequest struct {
	SubscriptionID uint64   `json:"subscription_id" validate:"required"`
	Consumers      []string `json:"consumers" validate:"required,min=1,dive,required"`
}

func (r *RemoveConsumersRequest) Validate() error {
	return validator.ValidateRequest(r)
}

type ReplaceConsumersRequest struct {
	SubscriptionID uint64   `json:"subscription_id" validate:"required"`
	OldConsumers   []string `json:"old_consumers" validate:"required,min=1,dive,required"`
	NewConsumers   []string `json:"new_consumers" validate:"required,min=1,dive,required"`
}

func (r *ReplaceConsumersRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if len(r.OldConsumers) != len(r.NewConsumers) {
		return ierr.NewError("old_consumers and new_consumers must have the same length").
			WithReportableDetails(map[string]any{
				"old_consumers": len(r.OldConsumers),
				"new_consumers": len(r.NewConsumers),
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

type SubscriptionFeeQuoteRequest struct {
	DurationDays  int `json:"duration_days" form:"duration_days" validate:"required,gt=0"`
	ConsumerCount int `json:"consumer_count" form:"consumer_count" validate:"required,gt=0"`
}

func (r *SubscriptionFeeQuoteRequest) Validate() error {
	return validator.ValidateRequest(r)
}

type ExtraConsumerFeeQuoteRequest struct {
	SubscriptionID uint64 `json:"subscription_id" validate:"required"`
	ExtraConsumers int    `json:"extra_consumers" form:"extra_consumers" validate:"required,gt=0"`
}

func (r *ExtraConsumerFeeQuoteRequest) Validate() error {
	return validator.ValidateRequest(r)
}

type AccessCheckRequest struct {
	ResourceID string `json:"resource_id" form:"resource_id" validate:"required"`
	Consumer   string `json:"consumer" form:"consumer" validate:"required"`
}

func (r *AccessCheckRequest) Validate() error {
	return validator.ValidateRequest(r)
}

type FeeQuoteResponse struct {
	Asset  string          `json:"asset"`
	Amount decimal.Decimal `json:"amount"`
}

func NewFeeQuoteResponse(fee pricing.Fee) *FeeQuoteResponse {
	return &FeeQuoteResponse{Asset: fee.Asset, Amount: fee.Amount}
}

type AccessCheckResponse struct {
	Authorized bool `json:"authorized"`
}

type SubscriptionResponse struct {
	ID            uint64    `json:"id"`
	ValidSince    time.Time `json:"valid_since"`
	ValidTill     time.Time `json:"valid_till"`
	PaidConsumers int       `json:"paid_consumers"`
	Consumers     []string  `json:"consumers"`
}

func NewSubscriptionResponse(sub *subscription.Subscription) *SubscriptionResponse {
	return &SubscriptionResponse{
		ID:            sub.ID,
		ValidSince:    sub.ValidSince,
		ValidTill:     sub.ValidTill,
		PaidConsumers: sub.PaidConsumers,
		Consumers:     append([]string(nil), sub.Consumers...),
	}
}
