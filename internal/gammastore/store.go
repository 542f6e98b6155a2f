// Package gammastore appends periodic dealer-gamma snapshots to an
// analytical store, backed by ClickHouse, with a local spool absorbing
// writes while the store is unreachable.
package gammastore

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"go.uber.org/zap"
)

// Row is one append-only gamma-snapshot record.
type Row struct {
	Ts          time.Time
	DealerGamma float64
}

// Config controls the ClickHouse connection.
type Config struct {
	Addr     []string
	Database string
	Username string
	Password string
}

const ddl = `CREATE TABLE IF NOT EXISTS intraday_gamma (
	ts DateTime64(3),
	dealer_gamma Float64
) ENGINE = MergeTree ORDER BY ts`

// Sink is the gamma-snapshot append target.
type Sink struct {
	conn   driver.Conn
	logger *zap.Logger
	spool  *Spool
}

// New dials ClickHouse and ensures the target table exists. spool is
// used to buffer rows locally when Append fails.
func New(ctx context.Context, cfg Config, spool *Spool, logger *zap.Logger) (*Sink, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: cfg.Addr,
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("gammastore: connecting: %w", err)
	}
	if err := conn.Exec(ctx, ddl); err != nil {
		return nil, fmt.Errorf("gammastore: ensuring table: %w", err)
	}
	return &Sink{conn: conn, logger: logger, spool: spool}, nil
}

// Append inserts one gamma-snapshot row. On failure the row is spooled
// locally and retried on the next call to FlushSpool, never blocking the
// caller's snapshot-emission loop.
func (s *Sink) Append(ctx context.Context, row Row) {
	if err := s.insertBatch(ctx, []Row{row}); err != nil {
		s.logger.Warn("gamma append failed, spooling", zap.Error(err))
		if serr := s.spool.Write([]Row{row}); serr != nil {
			s.logger.Error("gamma spool write failed", zap.Error(serr))
		}
	}
}

// FlushSpool attempts to replay any rows accumulated while the store was
// unreachable. Call periodically from the same ticker that drives
// Append.
func (s *Sink) FlushSpool(ctx context.Context) {
	pending, err := s.spool.ReadAll()
	if err != nil || len(pending) == 0 {
		return
	}
	if err := s.insertBatch(ctx, pending); err != nil {
		s.logger.Warn("gamma spool flush still failing", zap.Error(err))
		return
	}
	if err := s.spool.Clear(); err != nil {
		s.logger.Error("gamma spool clear failed", zap.Error(err))
	}
}

func (s *Sink) insertBatch(ctx context.Context, rows []Row) error {
	batch, err := s.conn.PrepareBatch(ctx, "INSERT INTO intraday_gamma (ts, dealer_gamma)")
	if err != nil {
		return fmt.Errorf("gammastore: preparing batch: %w", err)
	}
	for _, r := range rows {
		if err := batch.Append(r.Ts, r.DealerGamma); err != nil {
			return fmt.Errorf("gammastore: appending row: %w", err)
		}
	}
	return batch.Send()
}

// Close releases the underlying connection.
func (s *Sink) Close() error {
	return s.conn.Close()
}
