package ingest

import (
	"context"
	"errors"
	"math/rand"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/dealer-gamma-engine/internal/tradingcal"
)

// SupervisorConfig bounds the reconnect backoff schedule.
type SupervisorConfig struct {
	Config
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	JitterFrac     float64 // fraction of backoff to randomize, e.g. 0.2
}

// Supervisor owns the reconnect loop: exponential backoff with jitter,
// matching the doubling-to-a-cap pattern from the upstream reference
// feed client, guarded by an atomic.Bool so a second Run call while one
// is already in flight returns an error rather than opening a double
// connection.
type Supervisor struct {
	cfg          SupervisorConfig
	logger       *zap.Logger
	cal          *tradingcal.Calendar
	reconnecting atomic.Bool
	connected    atomic.Bool
}

// Connected reports whether a client connection is currently running,
// satisfying httpapi.StatusSource. It is set just before each dial and
// cleared when that connection ends, so it also reads true while a dial,
// auth or subscribe is still in progress.
func (s *Supervisor) Connected() bool {
	return s.connected.Load()
}

// NewSupervisor constructs a Supervisor. cal may be nil, in which case
// market-hours gating is skipped (useful in tests).
func NewSupervisor(cfg SupervisorConfig, logger *zap.Logger, cal *tradingcal.Calendar) *Supervisor {
	return &Supervisor{cfg: cfg, logger: logger, cal: cal}
}

// Run blocks, reconnecting with backoff until ctx is cancelled.
func (s *Supervisor) Run(ctx context.Context, sink Sink) error {
	if !s.reconnecting.CompareAndSwap(false, true) {
		return errors.New("ingest: supervisor already running")
	}
	defer s.reconnecting.Store(false)

	backoff := s.cfg.InitialBackoff
	if backoff <= 0 {
		backoff = time.Second
	}
	maxBackoff := s.cfg.MaxBackoff
	if maxBackoff <= 0 {
		maxBackoff = 60 * time.Second
	}

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if s.marketClosed() {
			s.logger.Debug("market closed, deferring reconnect")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Minute):
				continue
			}
		}

		client := NewClient(s.cfg.Config, s.logger)
		s.connected.Store(true)
		err := client.Run(ctx, sink)
		s.connected.Store(false)
		if err == nil || errors.Is(err, context.Canceled) {
			return err
		}

		s.logger.Warn("ingest connection failed, reconnecting",
			zap.Error(err), zap.Duration("backoff", backoff))

		wait := withJitter(backoff, s.cfg.JitterFrac)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}

		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

func (s *Supervisor) marketClosed() bool {
	if s.cal == nil {
		return false
	}
	return !s.cal.IsOpen(time.Now())
}

func withJitter(d time.Duration, frac float64) time.Duration {
	if frac <= 0 {
		return d
	}
	delta := float64(d) * frac
	j := (rand.Float64()*2 - 1) * delta
	out := time.Duration(float64(d) + j)
	if out < 0 {
		return 0
	}
	return out
}
