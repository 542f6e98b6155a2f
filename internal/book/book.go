// Package book maintains the per-strike dealer position and cumulative
// gamma exposure implied by customer order flow, applying the standard
// dealer sign convention (dealer position is the mirror of customer
// flow: a customer buy is a dealer sell).
package book

import (
	"sync"
	"time"

	"github.com/dgnsrekt/dealer-gamma-engine/internal/occ"
)

// Side is the customer side of a classified trade.
type Side int

const (
	Buy Side = iota
	Sell
)

// Key identifies a single strike/expiry/right bucket in the book.
type Key struct {
	Expiry time.Time
	Right  occ.Right
	Strike float64
}

type row struct {
	netCustomerContracts       int64
	cumGammaPerContractWeighted float64 // customer-signed, pre dealer flip
	lastUpdate                  time.Time
}

// StrikeSnapshot is a point-in-time, read-only view of one book row.
type StrikeSnapshot struct {
	Key                   Key
	NetCustomerContracts  int64
	DealerGamma           float64
	LastUpdate            time.Time
}

// Book is the mutex-protected per-strike position and gamma ledger.
type Book struct {
	mu         sync.RWMutex
	rows       map[Key]*row
	multiplier float64
}

// New returns an empty Book with the given contract multiplier (100 for
// standard equity/index options).
func New(multiplier float64) *Book {
	if multiplier <= 0 {
		multiplier = 100
	}
	return &Book{rows: make(map[Key]*row), multiplier: multiplier}
}

// Apply records a classified, priced trade against the book. size is the
// number of contracts (always positive); side and gammaPerContract carry
// the sign information. A customer Buy increases net_customer_contracts
// and, per the dealer sign convention, subtracts from the dealer's
// gamma exposure (dealer = -customer); a Sell does the reverse.
func (b *Book) Apply(key Key, side Side, size int64, gammaPerContract float64, ts time.Time) {
	if size <= 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	r, ok := b.rows[key]
	if !ok {
		r = &row{}
		b.rows[key] = r
	}

	signed := size
	if side == Sell {
		signed = -size
	}
	r.netCustomerContracts += signed
	r.cumGammaPerContractWeighted += float64(signed) * gammaPerContract
	r.lastUpdate = ts
}

// AggregateGamma returns the total dealer gamma across all strikes, in
// dollar-gamma-per-point-move-per-contract-multiplier terms.
func (b *Book) AggregateGamma() float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var total float64
	for _, r := range b.rows {
		// dealer = -customer
		total += -r.cumGammaPerContractWeighted * b.multiplier
	}
	return total
}

// ByStrike returns a snapshot of every strike row, in dealer terms.
func (b *Book) ByStrike() []StrikeSnapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]StrikeSnapshot, 0, len(b.rows))
	for k, r := range b.rows {
		out = append(out, StrikeSnapshot{
			Key:                  k,
			NetCustomerContracts: r.netCustomerContracts,
			DealerGamma:          -r.cumGammaPerContractWeighted * b.multiplier,
			LastUpdate:           r.lastUpdate,
		})
	}
	return out
}

// Len reports how many distinct strike keys are tracked.
func (b *Book) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.rows)
}
