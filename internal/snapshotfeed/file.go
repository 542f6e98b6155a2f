package snapshotfeed

import (
	"bufio"
	"fmt"
	"os"
)

// LoadFile reads a local JSONL snapshot file, for offline startup and
// tests, using the same buffered-scanner idiom as the HTTP path.
func LoadFile(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("snapshotfeed: opening %s: %w", path, err)
	}
	defer f.Close()
	return decodeJSONL(bufio.NewReader(f))
}
