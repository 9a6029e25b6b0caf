package postgres

import (
	"context"

	ierr "github.com/datapass/datapass/internal/errors"
	"github.com/datapass/datapass/internal/postgres"
)

// ConsumerIndexRepository serves the reverse lookup from consumer address to
// authorizing subscriptions. It reads the same subscription_consumers table
// the ledger writes, so both directions stay consistent by construction.
type ConsumerIndexRepository struct {
	client *postgres.Client
}

func NewConsumerIndexRepository(client *postgres.Client) *ConsumerIndexRepository {
	return &ConsumerIndexRepository{client: client}
}

func (r *ConsumerIndexRepository) Add(ctx context.Context, address string, subscriptionID uint64) error {
	_, err := r.client.Querier(ctx).ExecContext(ctx, `
		INSERT INTO subscription_consumers (subscription_id, address)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`, int64(subscriptionID), address)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to index consumer").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *ConsumerIndexRepository) Remove(ctx context.Context, address string, subscriptionID uint64) error {
	_, err := r.client.Querier(ctx).ExecContext(ctx, `
		DELETE FROM subscription_consumers
		WHERE subscription_id = $1 AND address = $2`, int64(subscriptionID), address)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to remove consumer from index").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *ConsumerIndexRepository) Subscriptions(ctx context.Context, address string) ([]uint64, error) {
	rows, err := r.client.Querier(ctx).QueryContext(ctx, `
		SELECT subscription_id FROM subscription_consumers WHERE address = $1`, address)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to query consumer index").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var ids []uint64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, ierr.WithError(err).Mark(ierr.ErrDatabase)
		}
		ids = append(ids, uint64(id))
	}
	if err := rows.Err(); err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	return ids, nil
}
