package subscription

import "context"

// Repository is the authoritative store for subscription records. Records
// are never deleted; a lapsed subscription stays on file and can be revived
// by a later extension.
type Repository interface {
	// Create persists a new subscription record.
	Create(ctx context.Context, sub *Subscription) error

	// Get retrieves a subscription by its identifier.
	// Returns ErrNotFound if the identifier was never created.
	Get(ctx context.Context, id uint64) (*Subscription, error)

	// Update overwrites an existing subscription record.
	Update(ctx context.Context, sub *Subscription) error

	// Count returns the number of subscriptions ever created.
	Count(ctx context.Context) (int, error)
}
