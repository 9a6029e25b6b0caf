package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/datapass/datapass/internal/config"
	ierr "github.com/datapass/datapass/internal/errors"
)

// LinearPolicy charges a flat per-day rate plus a per-seat-and-day rate:
//
//	fee = days*pricePerDay + days*consumers*pricePerSeatAndDay
//
// Both rates are non-negative, which keeps the policy monotonic in both
// arguments.
type LinearPolicy struct {
	asset              string
	pricePerDay        decimal.Decimal
	pricePerSeatAndDay decimal.Decimal
}

// NewLinearPolicy builds the default policy from configuration.
func NewLinearPolicy(cfg *config.Configuration) (*LinearPolicy, error) {
	perDay, err := decimal.NewFromString(cfg.Pricing.PricePerDay)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("pricing.price_per_day is not a valid decimal").
			Mark(ierr.ErrValidation)
	}
	perSeatAndDay, err := decimal.NewFromString(cfg.Pricing.PricePerSeatAndDay)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("pricing.price_per_seat_and_day is not a valid decimal").
			Mark(ierr.ErrValidation)
	}
	if perDay.IsNegative() || perSeatAndDay.IsNegative() {
		return nil, ierr.NewError("pricing rates must be non-negative").
			Mark(ierr.ErrValidation)
	}
	return &LinearPolicy{
		asset:              cfg.Pricing.Asset,
		pricePerDay:        perDay,
		pricePerSeatAndDay: perSeatAndDay,
	}, nil
}

func (p *LinearPolicy) CalculateFee(durationDays, consumers int) (Fee, error) {
	if durationDays < 0 || consumers < 0 {
		return Fee{}, ierr.NewError("duration and consumers must be non-negative").
			Mark(ierr.ErrValidation)
	}

	days := decimal.NewFromInt(int64(durationDays))
	seats := decimal.NewFromInt(int64(consumers))

	amount := days.Mul(p.pricePerDay).
		Add(days.Mul(seats).Mul(p.pricePerSeatAndDay))

	return Fee{Asset: p.asset, Amount: amount}, nil
}
