package config

import "time"

// IngestConfig configures the upstream WebSocket feed connection.
type IngestConfig struct {
	URL            string        `mapstructure:"url"`
	APIKey         string        `mapstructure:"api_key"`
	Symbols        []string      `mapstructure:"symbols"`
	IndexSymbol    string        `mapstructure:"index_symbol"`
	SubscribeChunk int           `mapstructure:"subscribe_chunk"`
	SubscribeDelay time.Duration `mapstructure:"subscribe_delay"`
	PingInterval   time.Duration `mapstructure:"ping_interval"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff"`
	JitterFrac     float64       `mapstructure:"jitter_frac"`
	TradeQueueSize int           `mapstructure:"trade_queue_size"`
	MarketCalendar string        `mapstructure:"market_calendar"`
}

// SurfaceConfig configures the volatility surface cache.
type SurfaceConfig struct {
	PriceBucket float64       `mapstructure:"price_bucket"`
	TTMBucket   time.Duration `mapstructure:"ttm_bucket"`
	MaxEntries  int           `mapstructure:"max_entries"`
	SolvedTTL   time.Duration `mapstructure:"solved_ttl"`
	FallbackTTL time.Duration `mapstructure:"fallback_ttl"`
}

// QuoteConfig configures the NBBO cache.
type QuoteConfig struct {
	StaleCutoff time.Duration `mapstructure:"stale_cutoff"`
}

// BookConfig configures the strike book.
type BookConfig struct {
	ContractMultiplier float64 `mapstructure:"contract_multiplier"`
}

// SnapshotConfig configures both the startup snapshot fetch and the
// periodic gamma-snapshot emission.
type SnapshotConfig struct {
	StartupURL         string        `mapstructure:"startup_url"`
	StartupFallbackURL string        `mapstructure:"startup_fallback_url"`
	StartupFile        string        `mapstructure:"startup_file"`
	EmitInterval       time.Duration `mapstructure:"emit_interval"`
	SpoolPath          string        `mapstructure:"spool_path"`
}

// ClickHouseConfig configures the gamma-snapshot sink.
type ClickHouseConfig struct {
	Addr     []string `mapstructure:"addr"`
	Database string   `mapstructure:"database"`
	Username string   `mapstructure:"username"`
	Password string   `mapstructure:"password"`
}

// HTTPConfig configures the operability HTTP surface.
type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// AlertConfig configures operator alerting (sent on high pin risk).
type AlertConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Server  string `mapstructure:"server"`
	Topic   string `mapstructure:"topic"`
	Token   string `mapstructure:"token"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Production bool   `mapstructure:"production"`
	File       string `mapstructure:"file"`
}

// Config is the full engine configuration surface.
type Config struct {
	Ingest        IngestConfig     `mapstructure:"ingest"`
	Surface       SurfaceConfig    `mapstructure:"surface"`
	Quote         QuoteConfig      `mapstructure:"quote"`
	Book          BookConfig       `mapstructure:"book"`
	Snapshot      SnapshotConfig   `mapstructure:"snapshot"`
	ClickHouse    ClickHouseConfig `mapstructure:"clickhouse"`
	HTTP          HTTPConfig       `mapstructure:"http"`
	Alert         AlertConfig      `mapstructure:"alert"`
	Logging       LoggingConfig    `mapstructure:"logging"`
	RiskFreeRate  float64          `mapstructure:"risk_free_rate"`
	DividendYield float64          `mapstructure:"dividend_yield"`
}
