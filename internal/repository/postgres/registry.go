package postgres

import (
	"context"
	"database/sql"

	ierr "github.com/datapass/datapass/internal/errors"
	"github.com/datapass/datapass/internal/postgres"
	"github.com/datapass/datapass/internal/webhook"
	webhookDto "github.com/datapass/datapass/internal/webhook/dto"
)

// InstanceRegistryRepository implements the ownership registry on postgres.
// Identifiers come from a sequence, so they are sequential and never reused
// even across restarts.
type InstanceRegistryRepository struct {
	client    *postgres.Client
	publisher webhook.Publisher
}

func NewInstanceRegistryRepository(client *postgres.Client, publisher webhook.Publisher) *InstanceRegistryRepository {
	return &InstanceRegistryRepository{client: client, publisher: publisher}
}

func (r *InstanceRegistryRepository) Mint(ctx context.Context, owner string) (uint64, error) {
	if owner == "" {
		return 0, ierr.NewError("owner is required").Mark(ierr.ErrValidation)
	}

	var id int64
	err := r.client.Querier(ctx).QueryRowContext(ctx, `
		INSERT INTO instance_owners (id, owner)
		VALUES (nextval('instance_id_seq'), $1)
		RETURNING id`, owner).Scan(&id)
	if err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to mint instance identifier").
			Mark(ierr.ErrDatabase)
	}

	if err := r.publisher.Publish(ctx, webhook.EventInstanceMoved, webhookDto.InternalTransferEvent{
		EventType:      webhook.EventInstanceMoved,
		SubscriptionID: uint64(id),
		To:             owner,
	}); err != nil {
		return 0, err
	}
	return uint64(id), nil
}

func (r *InstanceRegistryRepository) OwnerOf(ctx context.Context, id uint64) (string, error) {
	var owner string
	err := r.client.Querier(ctx).QueryRowContext(ctx,
		`SELECT owner FROM instance_owners WHERE id = $1`, int64(id)).Scan(&owner)
	if err == sql.ErrNoRows {
		return "", ierr.NewErrorf("instance %d not found", id).
			WithReportableDetails(map[string]any{"subscription_id": id}).
			Mark(ierr.ErrNotFound)
	}
	if err != nil {
		return "", ierr.WithError(err).
			WithHint("Failed to resolve instance owner").
			Mark(ierr.ErrDatabase)
	}
	return owner, nil
}

func (r *InstanceRegistryRepository) CountOwnedBy(ctx context.Context, owner string) (int, error) {
	var count int
	err := r.client.Querier(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM instance_owners WHERE owner = $1`, owner).Scan(&count)
	if err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to count owned instances").
			Mark(ierr.ErrDatabase)
	}
	return count, nil
}

func (r *InstanceRegistryRepository) Transfer(ctx context.Context, id uint64, newOwner string) error {
	if newOwner == "" {
		return ierr.NewError("new owner is required").Mark(ierr.ErrValidation)
	}

	return r.client.WithTx(ctx, func(ctx context.Context) error {
		var previous string
		err := r.client.Querier(ctx).QueryRowContext(ctx,
			`SELECT owner FROM instance_owners WHERE id = $1 FOR UPDATE`, int64(id)).Scan(&previous)
		if err == sql.ErrNoRows {
			return ierr.NewErrorf("instance %d not found", id).
				WithReportableDetails(map[string]any{"subscription_id": id}).
				Mark(ierr.ErrNotFound)
		}
		if err != nil {
			return ierr.WithError(err).Mark(ierr.ErrDatabase)
		}

		if _, err := r.client.Querier(ctx).ExecContext(ctx,
			`UPDATE instance_owners SET owner = $2 WHERE id = $1`, int64(id), newOwner); err != nil {
			return ierr.WithError(err).
				WithHint("Failed to transfer instance").
				Mark(ierr.ErrDatabase)
		}

		return r.publisher.Publish(ctx, webhook.EventInstanceMoved, webhookDto.InternalTransferEvent{
			EventType:      webhook.EventInstanceMoved,
			SubscriptionID: id,
			From:           previous,
			To:             newOwner,
		})
	})
}
