package postgres

import (
	"context"

	ierr "github.com/datapass/datapass/internal/errors"
	"github.com/datapass/datapass/internal/postgres"
)

const schema = `
CREATE TABLE IF NOT EXISTS subscriptions (
	id             BIGINT PRIMARY KEY,
	valid_since    TIMESTAMPTZ NOT NULL,
	valid_till     TIMESTAMPTZ NOT NULL,
	paid_consumers INT NOT NULL CHECK (paid_consumers > 0),
	created_at     TIMESTAMPTZ NOT NULL,
	updated_at     TIMESTAMPTZ NOT NULL,
	CHECK (valid_till >= valid_since)
);

CREATE TABLE IF NOT EXISTS subscription_consumers (
	subscription_id BIGINT NOT NULL REFERENCES subscriptions (id),
	address         TEXT NOT NULL,
	PRIMARY KEY (subscription_id, address)
);

CREATE INDEX IF NOT EXISTS idx_subscription_consumers_address
	ON subscription_consumers (address);

CREATE TABLE IF NOT EXISTS instance_owners (
	id    BIGINT PRIMARY KEY,
	owner TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_instance_owners_owner
	ON instance_owners (owner);

CREATE SEQUENCE IF NOT EXISTS instance_id_seq START 1;
`

// EnsureSchema creates the ledger tables if they do not exist yet.
func EnsureSchema(ctx context.Context, client *postgres.Client) error {
	if _, err := client.Querier(ctx).ExecContext(ctx, schema); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create ledger schema").
			Mark(ierr.ErrDatabase)
	}
	return nil
}
