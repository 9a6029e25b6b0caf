package memory

import (
	"context"
	"sync"
)

// ConsumerIndex is the in-memory reverse index from consumer address to the
// subscriptions that authorize it.
type ConsumerIndex struct {
	mu    sync.RWMutex
	index map[string]map[uint64]struct{}
}

func NewConsumerIndex() *ConsumerIndex {
	return &ConsumerIndex{
		index: make(map[string]map[uint64]struct{}),
	}
}

func (c *ConsumerIndex) Add(ctx context.Context, address string, subscriptionID uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	set, ok := c.index[address]
	if !ok {
		set = make(map[uint64]struct{})
		c.index[address] = set
	}
	set[subscriptionID] = struct{}{}
	return nil
}

func (c *ConsumerIndex) Remove(ctx context.Context, address string, subscriptionID uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if set, ok := c.index[address]; ok {
		delete(set, subscriptionID)
		if len(set) == 0 {
			delete(c.index, address)
		}
	}
	return nil
}

func (c *ConsumerIndex) Subscriptions(ctx context.Context, address string) ([]uint64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	set, ok := c.index[address]
	if !ok {
		return nil, nil
	}
	ids := make([]uint64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids, nil
}
