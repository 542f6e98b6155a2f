package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Load reads the engine's configuration from this file's defaults,
// configPath (or the default search locations), and env vars prefixed
// DEALER_, in that ascending order of precedence.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("ingest.symbols", []string{"O:SPXW*"})
	v.SetDefault("ingest.index_symbol", "I:SPX")
	v.SetDefault("ingest.subscribe_chunk", 50)
	v.SetDefault("ingest.subscribe_delay", "50ms")
	v.SetDefault("ingest.ping_interval", "25s")
	v.SetDefault("ingest.read_timeout", "60s")
	v.SetDefault("ingest.initial_backoff", "1s")
	v.SetDefault("ingest.max_backoff", "60s")
	v.SetDefault("ingest.jitter_frac", 0.2)
	v.SetDefault("ingest.trade_queue_size", 4096)
	v.SetDefault("ingest.market_calendar", "XNYS")

	v.SetDefault("surface.price_bucket", 1.0)
	v.SetDefault("surface.ttm_bucket", "60s")
	v.SetDefault("surface.max_entries", 50_000)
	v.SetDefault("surface.solved_ttl", "30s")
	v.SetDefault("surface.fallback_ttl", "10s")

	v.SetDefault("quote.stale_cutoff", "5s")
	v.SetDefault("book.contract_multiplier", 100.0)

	v.SetDefault("snapshot.emit_interval", "1s")
	v.SetDefault("snapshot.spool_path", "./data/gamma-spool.zst")

	v.SetDefault("clickhouse.addr", []string{"localhost:9000"})
	v.SetDefault("clickhouse.database", "default")

	v.SetDefault("http.addr", ":8090")

	v.SetDefault("alert.enabled", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.production", false)

	v.SetEnvPrefix("DEALER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("ingest.api_key", "DEALER_INGEST_API_KEY")
	_ = v.BindEnv("clickhouse.password", "DEALER_CLICKHOUSE_PASSWORD")
	_ = v.BindEnv("alert.token", "DEALER_ALERT_TOKEN")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("dealer")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the configuration for the invariants the engine
// depends on at startup.
func (c *Config) Validate() error {
	errs := &ValidationErrors{}

	if c.Ingest.URL == "" {
		errs.Add("ingest.url is required")
	}
	if c.Ingest.APIKey == "" {
		errs.Add("ingest.api_key is required (set DEALER_INGEST_API_KEY)")
	}
	if len(c.Ingest.Symbols) == 0 {
		errs.Add("ingest.symbols must list at least one symbol")
	}
	if c.Ingest.TradeQueueSize < 1 {
		errs.Add("ingest.trade_queue_size must be >= 1")
	}
	if c.Surface.MaxEntries < 1 {
		errs.Add("surface.max_entries must be >= 1")
	}
	if c.Book.ContractMultiplier <= 0 {
		errs.Add("book.contract_multiplier must be > 0")
	}
	if len(c.ClickHouse.Addr) == 0 {
		errs.Add("clickhouse.addr must list at least one host")
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}
