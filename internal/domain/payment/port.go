package payment

import (
	"context"

	"github.com/datapass/datapass/internal/domain/pricing"
)

// ChargingPort collects a fee from a payer and forwards the funds to the
// downstream distributor. A charge either completes fully or returns an
// error; there is no partial collection. The entitlement service never
// mutates ledger state before the charge has succeeded.
type ChargingPort interface {
	Charge(ctx context.Context, payer string, fee pricing.Fee) error
}
