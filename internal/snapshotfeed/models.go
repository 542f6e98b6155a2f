// Package snapshotfeed fetches the startup option-chain snapshot used to
// seed the quote cache with each row's bid/ask before the live feed
// catches up. The subscribed symbol set and the underlying spot are not
// taken from it.
package snapshotfeed

import "time"

// Row is one option-chain snapshot record.
type Row struct {
	Symbol  string    `json:"symbol"`
	Strike  float64   `json:"strike"`
	Right   string    `json:"right"` // "C" or "P"
	Bid     float64   `json:"bid"`
	Ask     float64   `json:"ask"`
	IV      float64   `json:"iv"`
	Gamma   float64   `json:"gamma"`
	UnderPx float64   `json:"under_px"`
	Expiry  time.Time `json:"expiry"`
}
