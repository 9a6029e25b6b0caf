package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/datapass/datapass/internal/config"
	"github.com/datapass/datapass/internal/logger"
	"github.com/datapass/datapass/internal/webhook/payload"
)

// Dispatcher consumes the domain event stream and delivers external webhook
// payloads to the configured endpoint. Delivery is best effort; a failed
// delivery is logged and the event is dropped.
type Dispatcher struct {
	pubSub     *gochannel.GoChannel
	endpoint   string
	log        *logger.Logger
	httpClient *http.Client
}

func NewDispatcher(cfg *config.Configuration, pubSub *gochannel.GoChannel, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		pubSub:   pubSub,
		endpoint: cfg.Webhook.Endpoint,
		log:      log,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Start subscribes to the event stream and dispatches until the context is
// canceled. It returns immediately; consumption runs in the background.
func (d *Dispatcher) Start(ctx context.Context) error {
	messages, err := d.pubSub.Subscribe(ctx, Topic)
	if err != nil {
		return err
	}
	go d.consume(ctx, messages)
	return nil
}

func (d *Dispatcher) consume(ctx context.Context, messages <-chan *message.Message) {
	for msg := range messages {
		d.dispatch(ctx, msg)
		msg.Ack()
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, msg *message.Message) {
	eventType := msg.Metadata.Get("event_type")

	builder, err := payload.NewPayloadBuilder(eventType)
	if err != nil {
		d.log.Errorw("no payload builder for event", "event_type", eventType, "error", err)
		return
	}
	body, err := builder.BuildPayload(ctx, eventType, json.RawMessage(msg.Payload))
	if err != nil {
		d.log.Errorw("failed to build webhook payload", "event_type", eventType, "error", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewReader(body))
	if err != nil {
		d.log.Errorw("failed to build webhook request", "event_type", eventType, "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Event-Type", eventType)
	req.Header.Set("X-Event-ID", msg.UUID)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		d.log.Errorw("webhook delivery failed", "event_type", eventType, "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		d.log.Errorw("webhook delivery rejected",
			"event_type", eventType,
			"status_code", resp.StatusCode,
		)
		return
	}
	d.log.Debugw("webhook delivered", "event_type", eventType, "event_id", msg.UUID)
}
