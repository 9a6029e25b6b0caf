package subscription

import (
	"sort"
	"time"

	"github.com/samber/lo"

	ierr "github.com/datapass/datapass/internal/errors"
	"github.com/datapass/datapass/internal/types"
)

// Subscription represents the domain model for a dataset access subscription.
// The ID is minted by the instance registry: sequential, 1-based, never
// reused. The controlling party is not stored here; it is resolved through
// the registry on demand.
type Subscription struct {
	ID            uint64    `json:"id"`
	ValidSince    time.Time `json:"valid_since"`
	ValidTill     time.Time `json:"valid_till"`
	PaidConsumers int       `json:"paid_consumers"`
	// Consumers is the set of authorized addresses, kept sorted.
	Consumers []string `json:"consumers"`
	types.BaseModel
}

// IsValidAt reports whether the validity window covers the given instant.
func (s *Subscription) IsValidAt(t time.Time) bool {
	return s.ValidTill.After(t)
}

// DurationDays returns the window length in whole days. Windows are always
// whole-day multiples, so the division is exact.
func (s *Subscription) DurationDays() int {
	return types.DurationToDays(s.ValidTill.Sub(s.ValidSince))
}

// HasConsumer reports whether the address is currently authorized.
func (s *Subscription) HasConsumer(address string) bool {
	return lo.Contains(s.Consumers, address)
}

// ConsumerCount returns the number of occupied seats.
func (s *Subscription) ConsumerCount() int {
	return len(s.Consumers)
}

// AddConsumer inserts the address into the consumer set. Returns false if it
// was already present. Seat capacity is checked by the caller before any
// insertion so a batch is rejected whole.
func (s *Subscription) AddConsumer(address string) bool {
	if s.HasConsumer(address) {
		return false
	}
	s.Consumers = append(s.Consumers, address)
	sort.Strings(s.Consumers)
	return true
}

// RemoveConsumer deletes the address from the consumer set. Returns false if
// it was not a member.
func (s *Subscription) RemoveConsumer(address string) bool {
	if !s.HasConsumer(address) {
		return false
	}
	s.Consumers = lo.Without(s.Consumers, address)
	return true
}

// Clone returns a deep copy so stored state never aliases caller state.
func (s *Subscription) Clone() *Subscription {
	cp := *s
	cp.Consumers = append([]string(nil), s.Consumers...)
	return &cp
}

// Validate checks the structural invariants of the record.
func (s *Subscription) Validate() error {
	if s.ID == 0 {
		return ierr.NewError("subscription id is required").Mark(ierr.ErrValidation)
	}
	if !s.ValidTill.After(s.ValidSince) && !s.ValidTill.Equal(s.ValidSince) {
		return ierr.NewError("valid_till must not precede valid_since").Mark(ierr.ErrValidation)
	}
	if s.PaidConsumers <= 0 {
		return ierr.NewError("paid_consumers must be positive").Mark(ierr.ErrValidation)
	}
	if len(s.Consumers) > s.PaidConsumers {
		return ierr.NewError("consumer set exceeds paid seats").
			WithReportableDetails(map[string]any{
				"consumers":      len(s.Consumers),
				"paid_consumers": s.PaidConsumers,
			}).
			Mark(ierr.ErrInvalidOperation)
	}
	return nil
}
