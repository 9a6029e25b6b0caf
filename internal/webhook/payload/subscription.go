package payload

import (
	"context"
	"encoding/json"

	ierr "github.com/datapass/datapass/internal/errors"
	webhookDto "github.com/datapass/datapass/internal/webhook/dto"
)

// PayloadBuilder converts an internal event into the payload delivered to
// external webhook endpoints.
type PayloadBuilder interface {
	BuildPayload(ctx context.Context, eventType string, data json.RawMessage) (json.RawMessage, error)
}

// SubscriptionPayloadBuilder builds webhook payloads for subscription paid events
type SubscriptionPayloadBuilder struct{}

func NewSubscriptionPayloadBuilder() PayloadBuilder {
	return &SubscriptionPayloadBuilder{}
}

func (b *SubscriptionPayloadBuilder) BuildPayload(ctx context.Context, eventType string, data json.RawMessage) (json.RawMessage, error) {
	var internalEvent webhookDto.InternalSubscriptionEvent
	if err := json.Unmarshal(data, &internalEvent); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to decode subscription event").
			Mark(ierr.ErrInternal)
	}

	payload := webhookDto.SubscriptionPaidWebhookPayload{
		SubscriptionID: internalEvent.SubscriptionID,
		ValidSince:     internalEvent.ValidSince,
		ValidTill:      internalEvent.ValidTill,
		PaidConsumers:  internalEvent.PaidConsumers,
	}

	return json.Marshal(payload)
}

// ConsumerPayloadBuilder builds webhook payloads for consumer membership events
type ConsumerPayloadBuilder struct{}

func NewConsumerPayloadBuilder() PayloadBuilder {
	return &ConsumerPayloadBuilder{}
}

func (b *ConsumerPayloadBuilder) BuildPayload(ctx context.Context, eventType string, data json.RawMessage) (json.RawMessage, error) {
	var internalEvent webhookDto.InternalConsumerEvent
	if err := json.Unmarshal(data, &internalEvent); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to decode consumer event").
			Mark(ierr.ErrInternal)
	}

	payload := webhookDto.ConsumerWebhookPayload{
		SubscriptionID: internalEvent.SubscriptionID,
		Address:        internalEvent.Address,
	}

	return json.Marshal(payload)
}

// TransferPayloadBuilder builds webhook payloads for ownership transfer events
type TransferPayloadBuilder struct{}

func NewTransferPayloadBuilder() PayloadBuilder {
	return &TransferPayloadBuilder{}
}

func (b *TransferPayloadBuilder) BuildPayload(ctx context.Context, eventType string, data json.RawMessage) (json.RawMessage, error) {
	var internalEvent webhookDto.InternalTransferEvent
	if err := json.Unmarshal(data, &internalEvent); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to decode transfer event").
			Mark(ierr.ErrInternal)
	}

	payload := webhookDto.TransferWebhookPayload{
		SubscriptionID: internalEvent.SubscriptionID,
		From:           internalEvent.From,
		To:             internalEvent.To,
	}

	return json.Marshal(payload)
}
