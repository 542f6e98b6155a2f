package ingest

import (
	"encoding/json"
	"fmt"
	"time"
)

// wireFrame is the envelope shape of upstream trade/quote/status frames:
// {"ev":"T", "sym":"O:SPXW250815C05000000", "p":12.3, "s":2, "t":169...}
// {"ev":"Q", "sym":"...", "bp":12.0, "ap":12.5, "t":169...}
type wireFrame struct {
	Event  string          `json:"ev"`
	Symbol string          `json:"sym"`
	Price  float64         `json:"p"`
	Size   int64           `json:"s"`
	BidPx  float64         `json:"bp"`
	AskPx  float64         `json:"ap"`
	Ts     int64           `json:"t"` // unix millis
	Side   json.RawMessage `json:"side,omitempty"`
}

func parseFrames(raw []byte) ([]Trade, []QuoteUpdate, error) {
	var frames []wireFrame
	if err := json.Unmarshal(raw, &frames); err != nil {
		var single wireFrame
		if err2 := json.Unmarshal(raw, &single); err2 != nil {
			return nil, nil, fmt.Errorf("ingest: unparseable frame: %w", err)
		}
		frames = []wireFrame{single}
	}

	var trades []Trade
	var quotes []QuoteUpdate
	for _, f := range frames {
		ts := time.UnixMilli(f.Ts).UTC()
		switch f.Event {
		case "T":
			tr := Trade{Symbol: f.Symbol, Price: f.Price, Size: f.Size, Ts: ts}
			if len(f.Side) > 0 {
				var hintStr string
				if err := json.Unmarshal(f.Side, &hintStr); err == nil {
					hint := parseSideHint(hintStr)
					tr.DealerSideHint = &hint
				}
			}
			trades = append(trades, tr)
		case "Q":
			quotes = append(quotes, QuoteUpdate{Symbol: f.Symbol, Bid: f.BidPx, Ask: f.AskPx, Ts: ts})
		}
	}
	return trades, quotes, nil
}

func parseSideHint(s string) TradeSide {
	switch s {
	case "buy", "B":
		return SideBuy
	case "sell", "S":
		return SideSell
	default:
		return SideUnspecified
	}
}
