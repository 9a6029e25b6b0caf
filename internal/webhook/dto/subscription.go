package webhookDto

import "time"

// InternalSubscriptionEvent is the internal event emitted whenever a
// subscription is paid for (purchase or extension).
type InternalSubscriptionEvent struct {
	EventType      string    `json:"event_type"`
	SubscriptionID uint64    `json:"subscription_id"`
	ValidSince     time.Time `json:"valid_since"`
	ValidTill      time.Time `json:"valid_till"`
	PaidConsumers  int       `json:"paid_consumers"`
}

// InternalConsumerEvent is the internal event emitted when a consumer is
// added to or removed from a subscription's authorized set.
type InternalConsumerEvent struct {
	EventType      string `json:"event_type"`
	SubscriptionID uint64 `json:"subscription_id"`
	Address        string `json:"address"`
}

// InternalTransferEvent is the internal event emitted by the instance
// registry when an identifier changes hands, including the mint at creation
// (from is empty in that case).
type InternalTransferEvent struct {
	EventType      string `json:"event_type"`
	SubscriptionID uint64 `json:"subscription_id"`
	From           string `json:"from,omitempty"`
	To             string `json:"to"`
}

type SubscriptionPaidWebhookPayload struct {
	SubscriptionID uint64    `json:"subscription_id"`
	ValidSince     time.Time `json:"valid_since"`
	ValidTill      time.Time `json:"valid_till"`
	PaidConsumers  int       `json:"paid_consumers"`
}

type ConsumerWebhookPayload struct {
	SubscriptionID uint64 `json:"subscription_id"`
	Address        string `json:"address"`
}

type TransferWebhookPayload struct {
	SubscriptionID uint64 `json:"subscription_id"`
	From           string `json:"from,omitempty"`
	To             string `json:"to"`
}
