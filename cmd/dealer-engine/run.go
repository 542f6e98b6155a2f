package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dgnsrekt/dealer-gamma-engine/internal/alert"
	"github.com/dgnsrekt/dealer-gamma-engine/internal/book"
	"github.com/dgnsrekt/dealer-gamma-engine/internal/bookhub"
	"github.com/dgnsrekt/dealer-gamma-engine/internal/config"
	"github.com/dgnsrekt/dealer-gamma-engine/internal/dealer"
	"github.com/dgnsrekt/dealer-gamma-engine/internal/directional"
	"github.com/dgnsrekt/dealer-gamma-engine/internal/gammastore"
	"github.com/dgnsrekt/dealer-gamma-engine/internal/httpapi"
	"github.com/dgnsrekt/dealer-gamma-engine/internal/ingest"
	"github.com/dgnsrekt/dealer-gamma-engine/internal/pin"
	"github.com/dgnsrekt/dealer-gamma-engine/internal/quotecache"
	"github.com/dgnsrekt/dealer-gamma-engine/internal/snapshotfeed"
	"github.com/dgnsrekt/dealer-gamma-engine/internal/surface"
	"github.com/dgnsrekt/dealer-gamma-engine/internal/tradingcal"
)

const shutdownPhaseTimeout = 5 * time.Second

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the dealer-gamma engine",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := setupLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	registry := prometheus.NewRegistry()
	metrics := dealer.NewMetrics(registry)

	quotes := quotecache.New()
	strikeBook := book.New(cfg.Book.ContractMultiplier)
	vol := surface.New(
		surface.Bucketer{PriceBucket: cfg.Surface.PriceBucket, TTMBucket: cfg.Surface.TTMBucket},
		cfg.Surface.MaxEntries, cfg.Surface.SolvedTTL, cfg.Surface.FallbackTTL,
	)

	engine := &dealer.Engine{
		Book:          strikeBook,
		Quotes:        quotes,
		Surface:       vol,
		Metrics:       metrics,
		Logger:        logger,
		IndexSymbol:   cfg.Ingest.IndexSymbol,
		StaleCutoff:   cfg.Quote.StaleCutoff,
		RiskFreeRate:  cfg.RiskFreeRate,
		DividendYield: cfg.DividendYield,
	}

	seedStartupSnapshot(ctx, cfg, quotes, logger)

	cal, err := tradingcal.New(cfg.Ingest.MarketCalendar)
	if err != nil {
		logger.Warn("trading calendar unavailable, reconnect gating disabled", zap.Error(err))
		cal = nil
	}

	tradeQueue := ingest.NewTradeQueue(cfg.Ingest.TradeQueueSize)
	quoteCh := make(chan ingest.QuoteUpdate, 1024)

	supervisor := ingest.NewSupervisor(ingest.SupervisorConfig{
		Config: ingest.Config{
			URL:            cfg.Ingest.URL,
			APIKey:         cfg.Ingest.APIKey,
			Symbols:        cfg.Ingest.Symbols,
			SubscribeChunk: cfg.Ingest.SubscribeChunk,
			SubscribeDelay: cfg.Ingest.SubscribeDelay,
			PingInterval:   cfg.Ingest.PingInterval,
			ReadTimeout:    cfg.Ingest.ReadTimeout,
		},
		InitialBackoff: cfg.Ingest.InitialBackoff,
		MaxBackoff:     cfg.Ingest.MaxBackoff,
		JitterFrac:     cfg.Ingest.JitterFrac,
	}, logger, cal)

	spool := gammastore.NewSpool(cfg.Snapshot.SpoolPath)
	sink, err := gammastore.New(ctx, gammastore.Config{
		Addr:     cfg.ClickHouse.Addr,
		Database: cfg.ClickHouse.Database,
		Username: cfg.ClickHouse.Username,
		Password: cfg.ClickHouse.Password,
	}, spool, logger)
	if err != nil {
		logger.Error("gammastore unavailable at startup, gamma snapshots will not be persisted this run", zap.Error(err))
	}

	notifier := alert.New(alert.Config{
		Enabled: cfg.Alert.Enabled, Server: cfg.Alert.Server, Topic: cfg.Alert.Topic, Token: cfg.Alert.Token,
	}, logger)

	hub := bookhub.New()

	httpServer := &http.Server{
		Addr: cfg.HTTP.Addr,
		Handler: (&httpapi.Server{
			Book:     strikeBook,
			Status:   supervisor,
			Hub:      hub,
			Registry: registry,
			Logger:   logger,
		}).Router(),
	}

	var wg sync.WaitGroup
	runTask := func(name string, fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn()
		}()
		_ = name
	}

	runTask("hub", func() { hub.Run(ctx) })
	runTask("ingest", func() {
		if err := supervisor.Run(ctx, ingest.Sink{Trades: tradeQueue, Quotes: quoteCh}); err != nil && err != context.Canceled {
			logger.Error("ingest supervisor exited", zap.Error(err))
		}
	})
	runTask("engine", func() { engine.Run(ctx, tradeQueue) })
	runTask("quotes", func() {
		for {
			select {
			case <-ctx.Done():
				return
			case q := <-quoteCh:
				engine.ApplyQuote(q)
			}
		}
	})
	runTask("snapshot", func() {
		runSnapshotLoop(ctx, cfg, engine, sink, hub, notifier, logger)
	})
	runTask("http", func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server exited", zap.Error(err))
		}
	})

	<-ctx.Done()
	logger.Info("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownPhaseTimeout)
	_ = httpServer.Shutdown(shutdownCtx)
	shutdownCancel()

	if sink != nil {
		_ = sink.Close()
	}

	waitWithTimeout(&wg, shutdownPhaseTimeout, logger)
	return nil
}

// waitWithTimeout waits for the task goroutines to exit, logging rather
// than blocking forever if one ignores ctx cancellation past the phase
// budget.
func waitWithTimeout(wg *sync.WaitGroup, timeout time.Duration, logger *zap.Logger) {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		logger.Warn("task goroutines did not exit within shutdown budget", zap.Duration("timeout", timeout))
	}
}

func seedStartupSnapshot(ctx context.Context, cfg *config.Config, quotes *quotecache.Cache, logger *zap.Logger) {
	var rows []snapshotfeed.Row
	var err error

	if cfg.Snapshot.StartupFile != "" {
		rows, err = snapshotfeed.LoadFile(cfg.Snapshot.StartupFile)
	} else if cfg.Snapshot.StartupURL != "" {
		client := snapshotfeed.NewClient(cfg.Snapshot.StartupURL, cfg.Snapshot.StartupFallbackURL,
			cfg.Ingest.APIKey, 2, 30*time.Second, time.Second, 3, logger)
		rows, err = client.Fetch(ctx)
	} else {
		return
	}
	if err != nil {
		logger.Warn("startup snapshot seed failed", zap.Error(err))
		return
	}

	now := time.Now()
	for _, r := range rows {
		quotes.Update(r.Symbol, r.Bid, r.Ask, now)
	}
	logger.Info("seeded startup snapshot", zap.Int("rows", len(rows)))
}

func runSnapshotLoop(ctx context.Context, cfg *config.Config, engine *dealer.Engine, sink *gammastore.Sink, hub *bookhub.Hub, notifier alert.Notifier, logger *zap.Logger) {
	ticker := time.NewTicker(cfg.Snapshot.EmitInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			rows := engine.Book.ByStrike()
			total := engine.Book.AggregateGamma()

			if sink != nil {
				sink.Append(ctx, gammastore.Row{Ts: now, DealerGamma: total})
				sink.FlushSpool(ctx)
			}

			hub.Publish(bookhub.Update{Ts: now.Unix(), DealerGamma: total, StrikeCount: len(rows)})

			if spot, ok := engine.Quotes.Mid(engine.IndexSymbol, now, engine.StaleCutoff); ok {
				if analysis, found := pin.Detect(rows, spot, 50); found && analysis.RiskLevel == pin.High {
					logger.Warn("high pin risk detected",
						zap.Float64("strike", analysis.Candidate.Strike),
						zap.Float64("strength", analysis.Strength))
					_ = notifier.Alert(ctx, "High pin risk", "strike-concentration risk elevated")
				}
				forces := directional.Estimate(rows, spot)
				logger.Debug("directional force", zap.Float64("net", directional.NetForce(forces)))
			}
		}
	}
}
