package directional

import (
	"testing"
	"time"

	"github.com/dgnsrekt/dealer-gamma-engine/internal/book"
	"github.com/dgnsrekt/dealer-gamma-engine/internal/occ"
)

func TestEstimate_ShortGammaAboveSpotPushesDown(t *testing.T) {
	now := time.Now()
	rows := []book.StrikeSnapshot{
		{Key: book.Key{Expiry: now, Right: occ.Call, Strike: 5050}, DealerGamma: -1000},
	}
	forces := Estimate(rows, 5000)
	if len(forces) != 1 {
		t.Fatalf("expected 1 force, got %d", len(forces))
	}
	if forces[0].Value >= 0 {
		t.Fatalf("expected negative (downward) force, got %v", forces[0].Value)
	}
}

func TestNetForce_SumsAcrossStrikes(t *testing.T) {
	forces := []Force{{Strike: 100, Value: 5}, {Strike: 200, Value: -3}}
	if got := NetForce(forces); got != 2 {
		t.Fatalf("net force = %v, want 2", got)
	}
}
