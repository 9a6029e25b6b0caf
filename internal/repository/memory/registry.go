package memory

import (
	"context"
	"sync"

	ierr "github.com/datapass/datapass/internal/errors"
	"github.com/datapass/datapass/internal/webhook"
	webhookDto "github.com/datapass/datapass/internal/webhook/dto"
)

// InstanceRegistry is the in-memory ownership registry. Identifiers are
// sequential, 1-based, and never reused. Every mint and transfer emits an
// instance.transferred event (mint is a transfer from the empty owner).
type InstanceRegistry struct {
	mu        sync.RWMutex
	owners    map[uint64]string
	nextID    uint64
	publisher webhook.Publisher
}

func NewInstanceRegistry(publisher webhook.Publisher) *InstanceRegistry {
	return &InstanceRegistry{
		owners:    make(map[uint64]string),
		nextID:    1,
		publisher: publisher,
	}
}

func (r *InstanceRegistry) Mint(ctx context.Context, owner string) (uint64, error) {
	if owner == "" {
		return 0, ierr.NewError("owner is required").Mark(ierr.ErrValidation)
	}

	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.owners[id] = owner
	r.mu.Unlock()

	if err := r.publisher.Publish(ctx, webhook.EventInstanceMoved, webhookDto.InternalTransferEvent{
		EventType:      webhook.EventInstanceMoved,
		SubscriptionID: id,
		To:             owner,
	}); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *InstanceRegistry) OwnerOf(ctx context.Context, id uint64) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	owner, ok := r.owners[id]
	if !ok {
		return "", ierr.NewErrorf("instance %d not found", id).
			WithReportableDetails(map[string]any{"subscription_id": id}).
			Mark(ierr.ErrNotFound)
	}
	return owner, nil
}

func (r *InstanceRegistry) CountOwnedBy(ctx context.Context, owner string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, o := range r.owners {
		if o == owner {
			count++
		}
	}
	return count, nil
}

func (r *InstanceRegistry) Transfer(ctx context.Context, id uint64, newOwner string) error {
	if newOwner == "" {
		return ierr.NewError("new owner is required").Mark(ierr.ErrValidation)
	}

	r.mu.Lock()
	previous, ok := r.owners[id]
	if !ok {
		r.mu.Unlock()
		return ierr.NewErrorf("instance %d not found", id).
			WithReportableDetails(map[string]any{"subscription_id": id}).
			Mark(ierr.ErrNotFound)
	}
	r.owners[id] = newOwner
	r.mu.Unlock()

	return r.publisher.Publish(ctx, webhook.EventInstanceMoved, webhookDto.InternalTransferEvent{
		EventType:      webhook.EventInstanceMoved,
		SubscriptionID: id,
		From:           previous,
		To:             newOwner,
	})
}
