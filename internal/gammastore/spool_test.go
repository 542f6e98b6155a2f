package gammastore

import (
	"path/filepath"
	"testing"
	"time"
)

func TestSpool_WriteAndReadAll(t *testing.T) {
	dir := t.TempDir()
	s := NewSpool(filepath.Join(dir, "spool.zst"))

	rows, err := s.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected empty spool, got %d rows", len(rows))
	}

	now := time.Now()
	if err := s.Write([]Row{{Ts: now, DealerGamma: 123.4}}); err != nil {
		t.Fatal(err)
	}

	rows, err = s.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].DealerGamma != 123.4 {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestSpool_WriteMerges(t *testing.T) {
	dir := t.TempDir()
	s := NewSpool(filepath.Join(dir, "spool.zst"))
	now := time.Now()

	if err := s.Write([]Row{{Ts: now, DealerGamma: 1}}); err != nil {
		t.Fatal(err)
	}
	if err := s.Write([]Row{{Ts: now, DealerGamma: 2}}); err != nil {
		t.Fatal(err)
	}
	rows, err := s.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 merged rows, got %d", len(rows))
	}
}

func TestSpool_Clear(t *testing.T) {
	dir := t.TempDir()
	s := NewSpool(filepath.Join(dir, "spool.zst"))
	if err := s.Write([]Row{{Ts: time.Now(), DealerGamma: 1}}); err != nil {
		t.Fatal(err)
	}
	if err := s.Clear(); err != nil {
		t.Fatal(err)
	}
	rows, err := s.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected empty spool after clear, got %d", len(rows))
	}
}
