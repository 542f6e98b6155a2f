package dealer

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/dgnsrekt/dealer-gamma-engine/internal/book"
	"github.com/dgnsrekt/dealer-gamma-engine/internal/ingest"
	"github.com/dgnsrekt/dealer-gamma-engine/internal/quotecache"
	"github.com/dgnsrekt/dealer-gamma-engine/internal/surface"
)

func testEngine() *Engine {
	return &Engine{
		Book:          book.New(100),
		Quotes:        quotecache.New(),
		Surface:       surface.New(surface.Bucketer{PriceBucket: 1, TTMBucket: time.Minute}, 100, time.Minute, time.Minute),
		Metrics:       NewMetrics(prometheus.NewRegistry()),
		Logger:        zap.NewNop(),
		IndexSymbol:   "I:SPX",
		StaleCutoff:   time.Minute,
		RiskFreeRate:  0,
		DividendYield: 0,
	}
}

func TestClassify_AtOrAboveAsk(t *testing.T) {
	e := testEngine()
	q := quotecache.Quote{Bid: 10, Ask: 10.5}
	tr := ingest.Trade{Price: 10.5}
	if got := e.classify(tr, q, true); got != Buy {
		t.Fatalf("got %v, want Buy", got)
	}
}

func TestClassify_AtOrBelowBid(t *testing.T) {
	e := testEngine()
	q := quotecache.Quote{Bid: 10, Ask: 10.5}
	tr := ingest.Trade{Price: 10}
	if got := e.classify(tr, q, true); got != Sell {
		t.Fatalf("got %v, want Sell", got)
	}
}

func TestClassify_ExactlyAtMidIsUnknown(t *testing.T) {
	e := testEngine()
	q := quotecache.Quote{Bid: 10, Ask: 11}
	tr := ingest.Trade{Price: 10.5}
	if got := e.classify(tr, q, true); got != Unknown {
		t.Fatalf("got %v, want Unknown", got)
	}
}

func TestClassify_NoQuoteIsUnknown(t *testing.T) {
	e := testEngine()
	if got := e.classify(ingest.Trade{Price: 10}, quotecache.Quote{}, false); got != Unknown {
		t.Fatalf("got %v, want Unknown", got)
	}
}

func TestClassify_JustAboveMidIsBuy(t *testing.T) {
	e := testEngine()
	q := quotecache.Quote{Bid: 10, Ask: 11}
	tr := ingest.Trade{Price: 10.52}
	if got := e.classify(tr, q, true); got != Buy {
		t.Fatalf("got %v, want Buy", got)
	}
}

func TestClassify_JustBelowMidIsSell(t *testing.T) {
	e := testEngine()
	q := quotecache.Quote{Bid: 10, Ask: 11}
	tr := ingest.Trade{Price: 10.48}
	if got := e.classify(tr, q, true); got != Sell {
		t.Fatalf("got %v, want Sell", got)
	}
}

func TestProcessTrade_StaleOptionQuoteIsUnknown(t *testing.T) {
	e := testEngine()
	e.StaleCutoff = 5 * time.Second
	now := time.Now()
	e.Quotes.Update("I:SPX", 4999.5, 5000.5, now)
	e.Quotes.Update("O:SPXW991231C05000000", 10, 12, now.Add(-10*time.Second))

	tr := ingest.Trade{Symbol: "O:SPXW991231C05000000", Price: 12, Size: 5, Ts: now}
	e.ProcessTrade(tr)

	if e.Book.Len() != 0 {
		t.Fatalf("expected stale option NBBO to classify Unknown and skip apply, got %d rows", e.Book.Len())
	}
}

func TestProcessTrade_AppliesToBook(t *testing.T) {
	e := testEngine()
	now := time.Now()
	e.Quotes.Update("I:SPX", 4999.5, 5000.5, now)
	e.Quotes.Update("O:SPXW991231C05000000", 10, 12, now)

	tr := ingest.Trade{Symbol: "O:SPXW991231C05000000", Price: 12, Size: 5, Ts: now}
	e.ProcessTrade(tr)

	if e.Book.Len() != 1 {
		t.Fatalf("expected trade applied to book, got %d rows", e.Book.Len())
	}
}

func TestProcessTrade_BadSymbolSkipsApply(t *testing.T) {
	e := testEngine()
	e.ProcessTrade(ingest.Trade{Symbol: "not-a-contract", Price: 1, Size: 1, Ts: time.Now()})
	if e.Book.Len() != 0 {
		t.Fatalf("expected no book entry for unparseable symbol")
	}
}

func TestProcessTrade_MissingSpotSkipsApply(t *testing.T) {
	e := testEngine()
	now := time.Now()
	e.Quotes.Update("O:SPXW991231C05000000", 10, 12, now)
	e.ProcessTrade(ingest.Trade{Symbol: "O:SPXW991231C05000000", Price: 12, Size: 5, Ts: now})
	if e.Book.Len() != 0 {
		t.Fatalf("expected no book entry without an underlying spot")
	}
}
