package ingest

import "testing"

func TestParseFrames_SingleTrade(t *testing.T) {
	raw := []byte(`{"ev":"T","sym":"O:SPXW250815C05000000","p":12.5,"s":3,"t":1755273600000}`)
	trades, quotes, err := parseFrames(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(trades) != 1 || len(quotes) != 0 {
		t.Fatalf("expected 1 trade, 0 quotes, got %d trades %d quotes", len(trades), len(quotes))
	}
	tr := trades[0]
	if tr.Symbol != "O:SPXW250815C05000000" || tr.Price != 12.5 || tr.Size != 3 {
		t.Fatalf("unexpected trade fields: %+v", tr)
	}
}

func TestParseFrames_ArrayOfMixedEvents(t *testing.T) {
	raw := []byte(`[
		{"ev":"T","sym":"O:SPXW250815C05000000","p":12.5,"s":3,"t":1000},
		{"ev":"Q","sym":"O:SPXW250815C05000000","bp":12.0,"ap":13.0,"t":1001},
		{"ev":"status","t":1002}
	]`)
	trades, quotes, err := parseFrames(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}
	if len(quotes) != 1 || quotes[0].Bid != 12.0 || quotes[0].Ask != 13.0 {
		t.Fatalf("unexpected quotes: %+v", quotes)
	}
}

func TestParseFrames_SideHint(t *testing.T) {
	raw := []byte(`{"ev":"T","sym":"O:SPXW250815C05000000","p":1,"s":1,"t":1,"side":"buy"}`)
	trades, _, err := parseFrames(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if trades[0].DealerSideHint == nil || *trades[0].DealerSideHint != SideBuy {
		t.Fatalf("expected SideBuy hint, got %+v", trades[0].DealerSideHint)
	}
}

func TestParseFrames_UnparseableReturnsError(t *testing.T) {
	_, _, err := parseFrames([]byte(`not json`))
	if err == nil {
		t.Fatal("expected error for unparseable frame")
	}
}

func TestParseSideHint(t *testing.T) {
	cases := map[string]TradeSide{
		"buy": SideBuy, "B": SideBuy,
		"sell": SideSell, "S": SideSell,
		"":        SideUnspecified,
		"unknown": SideUnspecified,
	}
	for in, want := range cases {
		if got := parseSideHint(in); got != want {
			t.Errorf("parseSideHint(%q) = %v, want %v", in, got, want)
		}
	}
}
