// Package surface memoizes implied volatility per (symbol, underlying
// price bucket, time-to-expiry bucket) so the dealer engine doesn't
// resolve for sigma on every trade against the same contract.
package surface

import (
	"container/list"
	"math"
	"sync"
	"time"
)

const (
	// DefaultMaxEntries bounds the surface at 50,000 cached rows,
	// evicted least-recently-used.
	DefaultMaxEntries = 50_000

	// DefaultSolvedTTL is how long a solver-derived IV stays fresh.
	DefaultSolvedTTL = 30 * time.Second

	// DefaultFallbackTTL is how long a moneyness-fallback IV stays
	// fresh; shorter than a solved value since it's a rough estimate.
	DefaultFallbackTTL = 10 * time.Second
)

// Bucketer coarsens raw underlying price and time-to-expiry into cache
// bucket keys.
type Bucketer struct {
	PriceBucket float64 // e.g. 1.0 point
	TTMBucket   time.Duration
}

func (b Bucketer) key(symbol string, underPx float64, ttm time.Duration) key {
	pb := math.Round(underPx/b.PriceBucket) * b.PriceBucket
	tb := ttm.Round(b.TTMBucket)
	return key{symbol: symbol, priceBucket: pb, ttmBucket: tb}
}

type key struct {
	symbol      string
	priceBucket float64
	ttmBucket   time.Duration
}

type entry struct {
	key        key
	sigma      float64
	expiresAt  time.Time
	fromSolver bool
	elem       *list.Element
}

// Surface is a bounded, TTL-expiring, LRU-evicted implied vol cache with
// a moneyness-based fallback for cache misses.
type Surface struct {
	mu         sync.Mutex
	bucketer   Bucketer
	maxEntries int
	solvedTTL  time.Duration
	fallbackTTL time.Duration
	entries    map[key]*entry
	order      *list.List // most-recently-used at Back

	// BaseVol and Slope parameterize the moneyness fallback:
	// vol = clamp(BaseVol + Slope*|ln(K/S)|, MinVol, MaxVol).
	BaseVol, Slope, MinVol, MaxVol float64
}

// New constructs a Surface with the given bucketing and bounds.
func New(bucketer Bucketer, maxEntries int, solvedTTL, fallbackTTL time.Duration) *Surface {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Surface{
		bucketer:    bucketer,
		maxEntries:  maxEntries,
		solvedTTL:   solvedTTL,
		fallbackTTL: fallbackTTL,
		entries:     make(map[key]*entry),
		order:       list.New(),
		BaseVol:     0.15,
		Slope:       0.5,
		MinVol:      0.05,
		MaxVol:      3.0,
	}
}

// Lookup returns a cached, unexpired sigma for the bucketed key, if any.
func (s *Surface) Lookup(symbol string, underPx float64, ttm time.Duration, now time.Time) (float64, bool) {
	k := s.bucketer.key(symbol, underPx, ttm)
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[k]
	if !ok || now.After(e.expiresAt) {
		return 0, false
	}
	s.order.MoveToBack(e.elem)
	return e.sigma, true
}

// Store records a solver-derived (fromSolver=true) or fallback-derived
// sigma for the bucketed key.
func (s *Surface) Store(symbol string, underPx float64, ttm time.Duration, sigma float64, fromSolver bool, now time.Time) {
	k := s.bucketer.key(symbol, underPx, ttm)
	ttl := s.fallbackTTL
	if fromSolver {
		ttl = s.solvedTTL
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[k]; ok {
		e.sigma = sigma
		e.expiresAt = now.Add(ttl)
		e.fromSolver = fromSolver
		s.order.MoveToBack(e.elem)
		return
	}

	e := &entry{key: k, sigma: sigma, expiresAt: now.Add(ttl), fromSolver: fromSolver}
	e.elem = s.order.PushBack(e)
	s.entries[k] = e

	for len(s.entries) > s.maxEntries {
		oldest := s.order.Front()
		if oldest == nil {
			break
		}
		oe := oldest.Value.(*entry)
		s.order.Remove(oldest)
		delete(s.entries, oe.key)
	}
}

// MoneynessFallback estimates sigma from log-moneyness when no cached or
// solved value is available.
func (s *Surface) MoneynessFallback(underPx, strike float64) float64 {
	m := math.Abs(math.Log(strike / underPx))
	v := s.BaseVol + s.Slope*m
	if v < s.MinVol {
		return s.MinVol
	}
	if v > s.MaxVol {
		return s.MaxVol
	}
	return v
}

// Len reports how many entries are currently cached.
func (s *Surface) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
