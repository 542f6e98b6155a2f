package book

import (
	"testing"
	"time"

	"github.com/dgnsrekt/dealer-gamma-engine/internal/occ"
)

func testKey() Key {
	return Key{Expiry: time.Now(), Right: occ.Call, Strike: 5000}
}

func TestApply_DealerSignConvention(t *testing.T) {
	b := New(100)
	k := testKey()
	now := time.Now()

	b.Apply(k, Buy, 10, 0.02, now) // customer buys -> dealer sells -> dealer gamma decreases
	rows := b.ByStrike()
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].DealerGamma >= 0 {
		t.Fatalf("expected negative dealer gamma after customer buy, got %v", rows[0].DealerGamma)
	}
	if rows[0].NetCustomerContracts != 10 {
		t.Fatalf("expected net customer contracts 10, got %d", rows[0].NetCustomerContracts)
	}
}

func TestApply_SellFlipsSign(t *testing.T) {
	b := New(100)
	k := testKey()
	now := time.Now()

	b.Apply(k, Sell, 10, 0.02, now)
	rows := b.ByStrike()
	if rows[0].DealerGamma <= 0 {
		t.Fatalf("expected positive dealer gamma after customer sell, got %v", rows[0].DealerGamma)
	}
	if rows[0].NetCustomerContracts != -10 {
		t.Fatalf("expected net customer contracts -10, got %d", rows[0].NetCustomerContracts)
	}
}

func TestApply_ZeroSizeIgnored(t *testing.T) {
	b := New(100)
	b.Apply(testKey(), Buy, 0, 0.02, time.Now())
	if b.Len() != 0 {
		t.Fatalf("expected no row created for zero size trade, got %d", b.Len())
	}
}

func TestAggregateGamma_SumsAcrossStrikes(t *testing.T) {
	b := New(100)
	now := time.Now()
	k1 := Key{Expiry: now, Right: occ.Call, Strike: 5000}
	k2 := Key{Expiry: now, Right: occ.Put, Strike: 4950}

	b.Apply(k1, Buy, 10, 0.02, now)
	b.Apply(k2, Sell, 5, 0.03, now)

	total := b.AggregateGamma()
	expected := (-10*0.02*100 + -(-5*0.03)*100)
	if total != expected {
		t.Fatalf("aggregate gamma = %v, want %v", total, expected)
	}
}

func TestApply_AccumulatesAtSameKey(t *testing.T) {
	b := New(100)
	k := testKey()
	now := time.Now()
	b.Apply(k, Buy, 5, 0.02, now)
	b.Apply(k, Buy, 5, 0.02, now.Add(time.Second))
	if b.Len() != 1 {
		t.Fatalf("expected single accumulated row, got %d", b.Len())
	}
	rows := b.ByStrike()
	if rows[0].NetCustomerContracts != 10 {
		t.Fatalf("expected accumulated net contracts 10, got %d", rows[0].NetCustomerContracts)
	}
}
