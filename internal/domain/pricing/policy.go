package pricing

import (
	"github.com/shopspring/decimal"
)

// Fee is the amount to collect and the asset it is denominated in.
type Fee struct {
	Asset  string          `json:"asset"`
	Amount decimal.Decimal `json:"amount"`
}

// IsZero reports whether nothing is owed.
func (f Fee) IsZero() bool {
	return f.Amount.IsZero()
}

// Policy computes the fee for a subscription of the given whole-day duration
// and seat count. Implementations must be pure, deterministic, and monotonic
// non-decreasing in both arguments.
type Policy interface {
	CalculateFee(durationDays, consumers int) (Fee, error)
}
