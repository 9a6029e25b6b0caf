package consumer

import "context"

// Repository is the reverse index from consumer address to the set of
// subscriptions that currently authorize it. The entitlement service keeps
// it in lock-step with the ledger's per-subscription consumer sets: an
// address appears in a subscription's set iff the subscription id appears in
// the address's index entry.
type Repository interface {
	// Add records that the subscription authorizes the address.
	// Adding an existing edge is a no-op.
	Add(ctx context.Context, address string, subscriptionID uint64) error

	// Remove deletes the edge. Removing an absent edge is a no-op.
	Remove(ctx context.Context, address string, subscriptionID uint64) error

	// Subscriptions returns the ids of all subscriptions that currently
	// list the address, in no particular order. Lapsed subscriptions are
	// not pruned; callers filter by validity at query time.
	Subscriptions(ctx context.Context, address string) ([]uint64, error)
}
