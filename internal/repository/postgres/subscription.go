package postgres

import (
	"context"
	"database/sql"
	"sort"

	"github.com/lib/pq"

	"github.com/datapass/datapass/internal/domain/subscription"
	ierr "github.com/datapass/datapass/internal/errors"
	"github.com/datapass/datapass/internal/postgres"
)

// SubscriptionRepository persists the subscription ledger in postgres. The
// consumer set lives in subscription_consumers and is rewritten wholesale on
// update; batches are small (bounded by paid seats) so the rewrite is cheap
// and keeps the update atomic.
type SubscriptionRepository struct {
	client *postgres.Client
}

func NewSubscriptionRepository(client *postgres.Client) *SubscriptionRepository {
	return &SubscriptionRepository{client: client}
}

func (r *SubscriptionRepository) Create(ctx context.Context, sub *subscription.Subscription) error {
	if sub == nil {
		return ierr.NewError("subscription is nil").Mark(ierr.ErrValidation)
	}

	return r.client.WithTx(ctx, func(ctx context.Context) error {
		q := r.client.Querier(ctx)
		_, err := q.ExecContext(ctx, `
			INSERT INTO subscriptions (id, valid_since, valid_till, paid_consumers, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			int64(sub.ID), sub.ValidSince, sub.ValidTill, sub.PaidConsumers,
			sub.CreatedAt, sub.UpdatedAt,
		)
		if err != nil {
			if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
				return ierr.NewErrorf("subscription %d already exists", sub.ID).
					Mark(ierr.ErrAlreadyExists)
			}
			return ierr.WithError(err).
				WithHint("Failed to create subscription").
				Mark(ierr.ErrDatabase)
		}
		return r.replaceConsumers(ctx, sub)
	})
}

func (r *SubscriptionRepository) Get(ctx context.Context, id uint64) (*subscription.Subscription, error) {
	q := r.client.Querier(ctx)

	sub := &subscription.Subscription{}
	err := q.QueryRowContext(ctx, `
		SELECT id, valid_since, valid_till, paid_consumers, created_at, updated_at
		FROM subscriptions WHERE id = $1`, int64(id),
	).Scan(&sub.ID, &sub.ValidSince, &sub.ValidTill, &sub.PaidConsumers,
		&sub.CreatedAt, &sub.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ierr.NewErrorf("subscription %d not found", id).
			WithReportableDetails(map[string]any{"subscription_id": id}).
			Mark(ierr.ErrNotFound)
	}
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to load subscription").
			Mark(ierr.ErrDatabase)
	}

	rows, err := q.QueryContext(ctx, `
		SELECT address FROM subscription_consumers WHERE subscription_id = $1`, int64(id))
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to load subscription consumers").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	for rows.Next() {
		var address string
		if err := rows.Scan(&address); err != nil {
			return nil, ierr.WithError(err).Mark(ierr.ErrDatabase)
		}
		sub.Consumers = append(sub.Consumers, address)
	}
	if err := rows.Err(); err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	sort.Strings(sub.Consumers)

	return sub, nil
}

func (r *SubscriptionRepository) Update(ctx context.Context, sub *subscription.Subscription) error {
	if sub == nil {
		return ierr.NewError("subscription is nil").Mark(ierr.ErrValidation)
	}

	return r.client.WithTx(ctx, func(ctx context.Context) error {
		if err := r.client.LockSubscription(ctx, sub.ID); err != nil {
			return err
		}

		q := r.client.Querier(ctx)
		res, err := q.ExecContext(ctx, `
			UPDATE subscriptions
			SET valid_since = $2, valid_till = $3, paid_consumers = $4, updated_at = $5
			WHERE id = $1`,
			int64(sub.ID), sub.ValidSince, sub.ValidTill, sub.PaidConsumers, sub.UpdatedAt,
		)
		if err != nil {
			return ierr.WithError(err).
				WithHint("Failed to update subscription").
				Mark(ierr.ErrDatabase)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return ierr.WithError(err).Mark(ierr.ErrDatabase)
		}
		if affected == 0 {
			return ierr.NewErrorf("subscription %d not found", sub.ID).
				WithReportableDetails(map[string]any{"subscription_id": sub.ID}).
				Mark(ierr.ErrNotFound)
		}
		return r.replaceConsumers(ctx, sub)
	})
}

func (r *SubscriptionRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.client.Querier(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM subscriptions`).Scan(&count)
	if err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to count subscriptions").
			Mark(ierr.ErrDatabase)
	}
	return count, nil
}

func (r *SubscriptionRepository) replaceConsumers(ctx context.Context, sub *subscription.Subscription) error {
	q := r.client.Querier(ctx)

	if _, err := q.ExecContext(ctx, `
		DELETE FROM subscription_consumers WHERE subscription_id = $1`, int64(sub.ID)); err != nil {
		return ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	for _, address := range sub.Consumers {
		if _, err := q.ExecContext(ctx, `
			INSERT INTO subscription_consumers (subscription_id, address)
			VALUES ($1, $2)`, int64(sub.ID), address); err != nil {
			return ierr.WithError(err).Mark(ierr.ErrDatabase)
		}
	}
	return nil
}
