package registry

import "context"

// InstanceRegistry assigns and tracks ownership of the opaque identifier
// representing each subscription. The ledger trusts it as the single source
// of truth for "who is the controlling party of subscription X".
type InstanceRegistry interface {
	// Mint assigns the next sequential identifier (1-based, never reused)
	// to the owner and returns it.
	Mint(ctx context.Context, owner string) (uint64, error)

	// OwnerOf resolves the controlling party of an identifier.
	// Returns ErrNotFound for identifiers that were never minted.
	OwnerOf(ctx context.Context, id uint64) (string, error)

	// CountOwnedBy returns how many identifiers the owner currently holds.
	CountOwnedBy(ctx context.Context, owner string) (int, error)

	// Transfer reassigns an identifier to a new owner.
	Transfer(ctx context.Context, id uint64, newOwner string) error
}
