package webhook

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	ierr "github.com/datapass/datapass/internal/errors"
	"github.com/datapass/datapass/internal/logger"
	"github.com/datapass/datapass/internal/types"
)

// Publisher emits typed domain events for external observers. Implementations
// must be safe to call from within a committed operation; publishing happens
// only after all state mutations for the operation have succeeded.
type Publisher interface {
	Publish(ctx context.Context, eventType string, payload any) error
	Close() error
}

// NewPubSub builds the in-process go-channel stream shared by the publisher
// and the webhook dispatcher.
func NewPubSub() *gochannel.GoChannel {
	return gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 256},
		watermill.NopLogger{},
	)
}

// watermillPublisher publishes events over an in-process go-channel pub/sub.
// External delivery (HTTP webhooks, brokers) subscribes to the same stream.
type watermillPublisher struct {
	pubSub *gochannel.GoChannel
	log    *logger.Logger
}

func NewPublisher(pubSub *gochannel.GoChannel, log *logger.Logger) Publisher {
	return &watermillPublisher{pubSub: pubSub, log: log}
}

func (p *watermillPublisher) Publish(ctx context.Context, eventType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to serialize event payload").
			Mark(ierr.ErrInternal)
	}

	msg := message.NewMessage(types.GenerateUUIDWithPrefix(types.UUID_PREFIX_EVENT), data)
	msg.Metadata.Set("event_type", eventType)
	msg.SetContext(ctx)

	if err := p.pubSub.Publish(Topic, msg); err != nil {
		return ierr.WithError(err).
			WithHintf("Failed to publish %s event", eventType).
			Mark(ierr.ErrInternal)
	}

	p.log.Debugw("published event", "event_type", eventType, "event_id", msg.UUID)
	return nil
}

func (p *watermillPublisher) Close() error {
	return p.pubSub.Close()
}
