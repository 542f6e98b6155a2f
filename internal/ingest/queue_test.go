package ingest

import "testing"

func TestTradeQueue_PushDropsOldestWhenFull(t *testing.T) {
	q := NewTradeQueue(2)
	q.Push(Trade{Symbol: "A"})
	q.Push(Trade{Symbol: "B"})
	q.Push(Trade{Symbol: "C"})

	if got := q.Dropped(); got != 1 {
		t.Fatalf("expected 1 dropped trade, got %d", got)
	}

	first := <-q.C()
	second := <-q.C()
	if first.Symbol != "B" || second.Symbol != "C" {
		t.Fatalf("expected oldest (A) dropped, got %s then %s", first.Symbol, second.Symbol)
	}
}

func TestTradeQueue_PushUnderCapacityDoesNotDrop(t *testing.T) {
	q := NewTradeQueue(4)
	q.Push(Trade{Symbol: "A"})
	q.Push(Trade{Symbol: "B"})

	if got := q.Dropped(); got != 0 {
		t.Fatalf("expected 0 dropped, got %d", got)
	}
	if len(q.C()) != 2 {
		t.Fatalf("expected 2 queued trades, got %d", len(q.C()))
	}
}

func TestNewTradeQueue_DefaultsDepth(t *testing.T) {
	q := NewTradeQueue(0)
	if cap(q.ch) != 4096 {
		t.Fatalf("expected default depth 4096, got %d", cap(q.ch))
	}
}
