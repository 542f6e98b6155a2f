package surface

import (
	"testing"
	"time"
)

func testBucketer() Bucketer {
	return Bucketer{PriceBucket: 1.0, TTMBucket: 60 * time.Second}
}

func TestStoreLookup_RoundTrip(t *testing.T) {
	s := New(testBucketer(), 10, time.Minute, 10*time.Second)
	now := time.Now()
	s.Store("SPXW250815C05000000", 5000.4, 30*time.Second, 0.18, true, now)
	got, ok := s.Lookup("SPXW250815C05000000", 5000.4, 30*time.Second, now.Add(time.Second))
	if !ok || got != 0.18 {
		t.Fatalf("expected cached hit, got %v %v", got, ok)
	}
}

func TestLookup_ExpiresByTTL(t *testing.T) {
	s := New(testBucketer(), 10, time.Second, 500*time.Millisecond)
	now := time.Now()
	s.Store("X", 100, time.Minute, 0.2, true, now)
	if _, ok := s.Lookup("X", 100, time.Minute, now.Add(2*time.Second)); ok {
		t.Fatal("expected entry to have expired")
	}
}

func TestLookup_FallbackTTLShorterThanSolved(t *testing.T) {
	s := New(testBucketer(), 10, time.Minute, 5*time.Second)
	now := time.Now()
	s.Store("X", 100, time.Minute, 0.2, false, now)
	if _, ok := s.Lookup("X", 100, time.Minute, now.Add(10*time.Second)); ok {
		t.Fatal("expected fallback entry to expire before solved TTL")
	}
}

func TestLRUEviction_BoundedSize(t *testing.T) {
	s := New(testBucketer(), 2, time.Minute, time.Minute)
	now := time.Now()
	s.Store("A", 100, time.Minute, 0.1, true, now)
	s.Store("B", 200, time.Minute, 0.1, true, now)
	s.Store("C", 300, time.Minute, 0.1, true, now)
	if s.Len() != 2 {
		t.Fatalf("expected bounded len 2, got %d", s.Len())
	}
	if _, ok := s.Lookup("A", 100, time.Minute, now); ok {
		t.Fatal("expected least-recently-used entry A to be evicted")
	}
}

func TestLRUEviction_TouchOnLookupPreventsEviction(t *testing.T) {
	s := New(testBucketer(), 2, time.Minute, time.Minute)
	now := time.Now()
	s.Store("A", 100, time.Minute, 0.1, true, now)
	s.Store("B", 200, time.Minute, 0.1, true, now)
	s.Lookup("A", 100, time.Minute, now) // touch A, making B the LRU
	s.Store("C", 300, time.Minute, 0.1, true, now)
	if _, ok := s.Lookup("B", 200, time.Minute, now); ok {
		t.Fatal("expected B to be evicted instead of A")
	}
	if _, ok := s.Lookup("A", 100, time.Minute, now); !ok {
		t.Fatal("expected A to survive due to recent touch")
	}
}

func TestMoneynessFallback_ClampedBounds(t *testing.T) {
	s := New(testBucketer(), 10, time.Minute, time.Minute)
	s.MinVol, s.MaxVol = 0.05, 3.0
	if v := s.MoneynessFallback(5000, 5000); v < s.MinVol {
		t.Fatalf("ATM fallback below min: %v", v)
	}
	if v := s.MoneynessFallback(5000, 50000); v > s.MaxVol {
		t.Fatalf("far OTM fallback exceeded max: %v", v)
	}
}
