package payload

import (
	ierr "github.com/datapass/datapass/internal/errors"
	webhookDto "github.com/datapass/datapass/internal/webhook/dto"
)

// NewPayloadBuilder returns the builder responsible for the given event type.
func NewPayloadBuilder(eventType string) (PayloadBuilder, error) {
	switch eventType {
	case webhookDto.EventSubscriptionPaid:
		return NewSubscriptionPayloadBuilder(), nil
	case webhookDto.EventConsumerAdded, webhookDto.EventConsumerRemoved:
		return NewConsumerPayloadBuilder(), nil
	case webhookDto.EventInstanceMoved:
		return NewTransferPayloadBuilder(), nil
	default:
		return nil, ierr.NewErrorf("no payload builder for event type %q", eventType).
			Mark(ierr.ErrInternal)
	}
}
