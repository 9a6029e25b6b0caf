package webhook

import webhookDto "github.com/datapass/datapass/internal/webhook/dto"

// Event type names published for external observers and indexers.
const (
	EventSubscriptionPaid = webhookDto.EventSubscriptionPaid
	EventConsumerAdded    = webhookDto.EventConsumerAdded
	EventConsumerRemoved  = webhookDto.EventConsumerRemoved
	EventInstanceMoved    = webhookDto.EventInstanceMoved
)

// Topic is the single stream all domain events are published on.
const Topic = webhookDto.Topic
