package pin

import (
	"testing"
	"time"

	"github.com/dgnsrekt/dealer-gamma-engine/internal/book"
	"github.com/dgnsrekt/dealer-gamma-engine/internal/occ"
)

func TestDetect_PicksDominantStrike(t *testing.T) {
	now := time.Now()
	rows := []book.StrikeSnapshot{
		{Key: book.Key{Expiry: now, Right: occ.Call, Strike: 5000}, DealerGamma: -100000},
		{Key: book.Key{Expiry: now, Right: occ.Put, Strike: 5000}, DealerGamma: -50000},
		{Key: book.Key{Expiry: now, Right: occ.Call, Strike: 4950}, DealerGamma: -1000},
	}
	a, ok := Detect(rows, 5000, 100)
	if !ok {
		t.Fatal("expected a pin candidate")
	}
	if a.Candidate.Strike != 5000 {
		t.Fatalf("expected candidate strike 5000, got %v", a.Candidate.Strike)
	}
	if a.RiskLevel != High {
		t.Fatalf("expected high risk level, got %v", a.RiskLevel)
	}
}

func TestDetect_NoRowsReturnsFalse(t *testing.T) {
	if _, ok := Detect(nil, 5000, 100); ok {
		t.Fatal("expected no candidate for empty book")
	}
}

func TestDetect_RespectsNearWindow(t *testing.T) {
	now := time.Now()
	rows := []book.StrikeSnapshot{
		{Key: book.Key{Expiry: now, Right: occ.Call, Strike: 4000}, DealerGamma: -100000},
	}
	if _, ok := Detect(rows, 5000, 10); ok {
		t.Fatal("expected far-away strike to be excluded by the near window")
	}
}
