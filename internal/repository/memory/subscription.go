package memory

import (
	"context"
	"sync"

	"github.com/datapass/datapass/internal/domain/subscription"
	ierr "github.com/datapass/datapass/internal/errors"
)

// SubscriptionStore is the in-memory subscription ledger. Operations against
// it are serialized by the service layer; the mutex only guards against
// concurrent reads from the query surface.
type SubscriptionStore struct {
	mu   sync.RWMutex
	subs map[uint64]*subscription.Subscription
}

func NewSubscriptionStore() *SubscriptionStore {
	return &SubscriptionStore{
		subs: make(map[uint64]*subscription.Subscription),
	}
}

func (s *SubscriptionStore) Create(ctx context.Context, sub *subscription.Subscription) error {
	if sub == nil {
		return ierr.NewError("subscription is nil").Mark(ierr.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.subs[sub.ID]; ok {
		return ierr.NewErrorf("subscription %d already exists", sub.ID).
			Mark(ierr.ErrAlreadyExists)
	}
	s.subs[sub.ID] = sub.Clone()
	return nil
}

func (s *SubscriptionStore) Get(ctx context.Context, id uint64) (*subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.subs[id]
	if !ok {
		return nil, ierr.NewErrorf("subscription %d not found", id).
			WithReportableDetails(map[string]any{"subscription_id": id}).
			Mark(ierr.ErrNotFound)
	}
	return sub.Clone(), nil
}

func (s *SubscriptionStore) Update(ctx context.Context, sub *subscription.Subscription) error {
	if sub == nil {
		return ierr.NewError("subscription is nil").Mark(ierr.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.subs[sub.ID]; !ok {
		return ierr.NewErrorf("subscription %d not found", sub.ID).
			WithReportableDetails(map[string]any{"subscription_id": sub.ID}).
			Mark(ierr.ErrNotFound)
	}
	s.subs[sub.ID] = sub.Clone()
	return nil
}

func (s *SubscriptionStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs), nil
}
