package webhookDto

// Event type names published for external observers and indexers.
const (
	EventSubscriptionPaid = "subscription.paid"
	EventConsumerAdded    = "subscription.consumer.added"
	EventConsumerRemoved  = "subscription.consumer.removed"
	EventInstanceMoved    = "instance.transferred"
)

// Topic is the single stream all domain events are published on.
const Topic = "datapass.events"
