package ingest

import "time"

// TradeSide is an optional dealer-side hint carried on some upstream
// trade frames. It is parsed and retained but not consulted by trade
// classification, which derives side from NBBO position instead.
type TradeSide int

const (
	SideUnspecified TradeSide = iota
	SideBuy
	SideSell
)

// Trade is a single upstream trade print.
type Trade struct {
	Symbol         string
	Price          float64
	Size           int64
	Ts             time.Time
	DealerSideHint *TradeSide
}

// QuoteUpdate is a single upstream NBBO or index-quote print.
type QuoteUpdate struct {
	Symbol string
	Bid    float64
	Ask    float64
	Ts     time.Time
}
