package gammastore

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// Spool is a local, zstd-compressed write-ahead file absorbing gamma
// rows while ClickHouse is unreachable, written tmp-file-then-rename
// so a crash mid-write never corrupts the spool.
type Spool struct {
	mu   sync.Mutex
	path string
}

// NewSpool returns a Spool backed by path.
func NewSpool(path string) *Spool {
	return &Spool{path: path}
}

type spoolFile struct {
	Rows []Row `json:"rows"`
}

// Write appends rows to the spool, merging with anything already
// pending.
func (s *Spool) Write(rows []Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.readAllLocked()
	if err != nil {
		return err
	}
	all := append(existing, rows...)
	return s.writeAllLocked(all)
}

// ReadAll returns every row currently pending in the spool.
func (s *Spool) ReadAll() ([]Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readAllLocked()
}

// Clear empties the spool after a successful flush.
func (s *Spool) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("gammastore: clearing spool: %w", err)
	}
	return nil
}

func (s *Spool) readAllLocked() ([]Row, error) {
	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("gammastore: opening spool: %w", err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("gammastore: zstd reader: %w", err)
	}
	defer dec.Close()

	var sf spoolFile
	if err := json.NewDecoder(dec).Decode(&sf); err != nil {
		return nil, fmt.Errorf("gammastore: decoding spool: %w", err)
	}
	return sf.Rows, nil
}

func (s *Spool) writeAllLocked(rows []Row) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("gammastore: creating spool dir: %w", err)
	}

	tmpPath := s.path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("gammastore: creating temp spool file: %w", err)
	}

	enc, err := zstd.NewWriter(f)
	if err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("gammastore: zstd writer: %w", err)
	}

	if err := json.NewEncoder(enc).Encode(spoolFile{Rows: rows}); err != nil {
		_ = enc.Close()
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("gammastore: encoding spool: %w", err)
	}
	if err := enc.Close(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("gammastore: closing zstd writer: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("gammastore: closing temp spool file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("gammastore: renaming spool file: %w", err)
	}
	return nil
}
