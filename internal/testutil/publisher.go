package testutil

import (
	"context"
	"sync"

	"github.com/samber/lo"
)

// CapturedEvent is one event recorded by the capture publisher.
type CapturedEvent struct {
	Type    string
	Payload any
}

// CapturePublisher implements webhook.Publisher by recording events in order.
type CapturePublisher struct {
	mu     sync.Mutex
	events []CapturedEvent
}

func NewCapturePublisher() *CapturePublisher {
	return &CapturePublisher{}
}

func (p *CapturePublisher) Publish(ctx context.Context, eventType string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, CapturedEvent{Type: eventType, Payload: payload})
	return nil
}

func (p *CapturePublisher) Close() error {
	return nil
}

// Events returns a copy of all recorded events in publish order.
func (p *CapturePublisher) Events() []CapturedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]CapturedEvent(nil), p.events...)
}

// EventsOfType returns recorded events with the given type.
func (p *CapturePublisher) EventsOfType(eventType string) []CapturedEvent {
	return lo.Filter(p.Events(), func(e CapturedEvent, _ int) bool {
		return e.Type == eventType
	})
}

// Reset discards all recorded events.
func (p *CapturePublisher) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}
