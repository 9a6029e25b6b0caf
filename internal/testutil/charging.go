package testutil

import (
	"context"
	"sync"

	"github.com/datapass/datapass/internal/domain/pricing"
	ierr "github.com/datapass/datapass/internal/errors"
)

// ChargeRecord captures one successful charge.
type ChargeRecord struct {
	Payer string
	Fee   pricing.Fee
}

// FakeChargingPort records charges and can be programmed to reject the next
// attempt, so tests can verify that a failed charge aborts the operation.
type FakeChargingPort struct {
	mu       sync.Mutex
	charges  []ChargeRecord
	failNext bool
}

func NewFakeChargingPort() *FakeChargingPort {
	return &FakeChargingPort{}
}

func (p *FakeChargingPort) Charge(ctx context.Context, payer string, fee pricing.Fee) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.failNext {
		p.failNext = false
		return ierr.NewError("charge rejected").Mark(ierr.ErrPaymentFailed)
	}
	p.charges = append(p.charges, ChargeRecord{Payer: payer, Fee: fee})
	return nil
}

// FailNext makes the next Charge call fail.
func (p *FakeChargingPort) FailNext() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failNext = true
}

// Charges returns a copy of the recorded charges.
func (p *FakeChargingPort) Charges() []ChargeRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ChargeRecord(nil), p.charges...)
}

// LastCharge returns the most recent charge, or nil if none happened.
func (p *FakeChargingPort) LastCharge() *ChargeRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.charges) == 0 {
		return nil
	}
	last := p.charges[len(p.charges)-1]
	return &last
}
