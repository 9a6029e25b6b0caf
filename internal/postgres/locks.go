package postgres

import (
	"context"
	"fmt"

	ierr "github.com/datapass/datapass/internal/errors"
)

// LockSubscription acquires a transaction-scoped advisory lock keyed by the
// subscription identifier. Operations against the same subscription are
// thereby totally ordered when running on the SQL backend; the lock releases
// automatically on commit or rollback. Must be called inside a transaction.
func (c *Client) LockSubscription(ctx context.Context, subscriptionID uint64) error {
	tx := c.TxFromContext(ctx)
	if tx == nil {
		return ierr.NewError("LockSubscription must be called inside a transaction").
			Mark(ierr.ErrInternal)
	}

	key := fmt.Sprintf("subscription:%d", subscriptionID)
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
		return ierr.WithError(err).
			WithHintf("Failed to lock subscription %d", subscriptionID).
			Mark(ierr.ErrDatabase)
	}
	return nil
}
