// Package dealer implements the core trade-to-gamma pipeline: classify
// each trade against the prevailing NBBO, revalue its gamma, and apply
// it to the dealer's strike book.
package dealer

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/dgnsrekt/dealer-gamma-engine/internal/book"
	"github.com/dgnsrekt/dealer-gamma-engine/internal/greeks"
	"github.com/dgnsrekt/dealer-gamma-engine/internal/ingest"
	"github.com/dgnsrekt/dealer-gamma-engine/internal/occ"
	"github.com/dgnsrekt/dealer-gamma-engine/internal/quotecache"
	"github.com/dgnsrekt/dealer-gamma-engine/internal/surface"
)

// ClassifiedSide is the outcome of comparing a trade price to the NBBO.
type ClassifiedSide int

const (
	Unknown ClassifiedSide = iota
	Buy
	Sell
)

// Metrics holds the per-kind failure counters the engine exposes for
// operability.
type Metrics struct {
	ParseFailed              prometheus.Counter
	MissingSpot              prometheus.Counter
	IVFallbackUsed           prometheus.Counter
	UnknownSide              prometheus.Counter
	QuoteRejected            prometheus.Counter
	TradeDroppedBackpressure prometheus.Counter
	TradesApplied            prometheus.Counter
}

// NewMetrics registers the dealer engine's counters with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ParseFailed:              prometheus.NewCounter(prometheus.CounterOpts{Name: "dealer_parse_failed_total"}),
		MissingSpot:              prometheus.NewCounter(prometheus.CounterOpts{Name: "dealer_missing_spot_total"}),
		IVFallbackUsed:           prometheus.NewCounter(prometheus.CounterOpts{Name: "dealer_iv_fallback_used_total"}),
		UnknownSide:              prometheus.NewCounter(prometheus.CounterOpts{Name: "dealer_unknown_side_total"}),
		QuoteRejected:            prometheus.NewCounter(prometheus.CounterOpts{Name: "dealer_quote_rejected_total"}),
		TradeDroppedBackpressure: prometheus.NewCounter(prometheus.CounterOpts{Name: "dealer_trade_dropped_backpressure_total"}),
		TradesApplied:            prometheus.NewCounter(prometheus.CounterOpts{Name: "dealer_trades_applied_total"}),
	}
	for _, c := range []prometheus.Collector{
		m.ParseFailed, m.MissingSpot, m.IVFallbackUsed, m.UnknownSide,
		m.QuoteRejected, m.TradeDroppedBackpressure, m.TradesApplied,
	} {
		reg.MustRegister(c)
	}
	return m
}

// Engine is the explicit, passed-around session state for the dealer
// pipeline. It is constructed once per run and handed to every task
// (ingest consumer, snapshot emitter) rather than reached for through
// package-level singletons.
type Engine struct {
	Book    *book.Book
	Quotes  *quotecache.Cache
	Surface *surface.Surface
	Metrics *Metrics
	Logger  *zap.Logger

	IndexSymbol   string // e.g. "I:SPX"
	StaleCutoff   time.Duration
	RiskFreeRate  float64
	DividendYield float64
}

// Run consumes trades from queue until ctx is cancelled, applying each
// to the book. Quote updates are applied directly by the caller via
// ApplyQuote and do not flow through this loop. It also periodically
// drains the queue's backpressure-drop counter into Metrics, since the
// queue itself has no Prometheus dependency.
func (e *Engine) Run(ctx context.Context, queue *ingest.TradeQueue) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	var lastDropped int64

	for {
		select {
		case <-ctx.Done():
			return
		case tr := <-queue.C():
			e.ProcessTrade(tr)
		case <-ticker.C:
			if dropped := queue.Dropped(); dropped > lastDropped {
				e.Metrics.TradeDroppedBackpressure.Add(float64(dropped - lastDropped))
				lastDropped = dropped
			}
		}
	}
}

// ApplyQuote records an incoming NBBO or index quote update.
func (e *Engine) ApplyQuote(q ingest.QuoteUpdate) {
	if !e.Quotes.Update(q.Symbol, q.Bid, q.Ask, q.Ts) {
		e.Metrics.QuoteRejected.Inc()
	}
}

// ProcessTrade runs one trade through classify -> price -> apply.
func (e *Engine) ProcessTrade(tr ingest.Trade) {
	contract, err := occ.Parse(tr.Symbol)
	if err != nil {
		e.Logger.Debug("parse_failed", zap.String("symbol", tr.Symbol), zap.Error(err))
		e.Metrics.ParseFailed.Inc()
		return
	}

	quote, ok := e.Quotes.GetFresh(tr.Symbol, tr.Ts, e.StaleCutoff)
	side := e.classify(tr, quote, ok)
	if side == Unknown {
		e.Metrics.UnknownSide.Inc()
		return
	}

	spot, ok := e.Quotes.Mid(e.IndexSymbol, tr.Ts, e.StaleCutoff)
	if !ok {
		e.Metrics.MissingSpot.Inc()
		return
	}

	strike, _ := contract.Strike.Float64()
	ttm := occ.TimeToExpiryYears(contract.Expiry, tr.Ts)

	sigma, fromSolver := e.resolveVol(contract, tr, quote, ok, spot, strike, ttm)

	gamma, err := greeks.Gamma(spot, strike, ttm, sigma, e.RiskFreeRate, e.DividendYield)
	if err != nil {
		e.Logger.Debug("gamma_failed", zap.String("symbol", tr.Symbol), zap.Error(err))
		return
	}

	bookSide := book.Buy
	if side == Sell {
		bookSide = book.Sell
	}
	e.Book.Apply(book.Key{Expiry: contract.Expiry, Right: contract.Right, Strike: strike}, bookSide, tr.Size, gamma, tr.Ts)
	e.Metrics.TradesApplied.Inc()
	if !fromSolver {
		e.Metrics.IVFallbackUsed.Inc()
	}
}

// classify maps a trade price against the prevailing NBBO: at or above
// ask is a customer Buy, at or below bid is a Sell, above mid is Buy,
// below mid is Sell, and exactly at mid or a stale/missing/unusable
// NBBO is Unknown.
func (e *Engine) classify(tr ingest.Trade, q quotecache.Quote, haveQuote bool) ClassifiedSide {
	if !haveQuote || q.Bid <= 0 || q.Ask <= 0 || q.Bid > q.Ask {
		return Unknown
	}
	if tr.Price >= q.Ask {
		return Buy
	}
	if tr.Price <= q.Bid {
		return Sell
	}
	mid := q.Mid()
	switch {
	case tr.Price > mid:
		return Buy
	case tr.Price < mid:
		return Sell
	default:
		return Unknown
	}
}

func (e *Engine) resolveVol(c occ.Contract, tr ingest.Trade, q quotecache.Quote, haveQuote bool, spot, strike, ttm float64) (sigma float64, fromSolver bool) {
	if s, ok := e.Surface.Lookup(tr.Symbol, spot, durationFromYears(ttm), tr.Ts); ok {
		return s, true
	}

	if haveQuote && ttm > 0 {
		right := greeks.Call
		if c.Right == occ.Put {
			right = greeks.Put
		}
		if iv, err := greeks.ImpliedVol(right, q.Mid(), spot, strike, ttm, e.RiskFreeRate, e.DividendYield); err == nil {
			e.Surface.Store(tr.Symbol, spot, durationFromYears(ttm), iv, true, tr.Ts)
			return iv, true
		}
	}

	fallback := e.Surface.MoneynessFallback(spot, strike)
	e.Surface.Store(tr.Symbol, spot, durationFromYears(ttm), fallback, false, tr.Ts)
	return fallback, false
}

func durationFromYears(years float64) time.Duration {
	return time.Duration(years * 365 * 24 * float64(time.Hour))
}
