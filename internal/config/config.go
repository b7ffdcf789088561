// Package config defines the top-level configuration for the private pool
// arbitrage bot and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

// Chain names accepted in venue and pool entries.
const (
	ChainLisk = "lisk"
	ChainZama = "zama"
)

// Strategy names accepted in arbitrage.strategies.
const (
	StrategyTriangular = "triangular"
	StrategyCrossVenue = "cross_venue"
)

// Config is the root configuration structure. Fields are populated from a TOML
// or YAML file and then optionally overridden by PRIVPOOL_* environment
// variables.
type Config struct {
	Chains            ChainsConfig     `toml:"chains" yaml:"chains"`
	Venues            []VenueConfig    `toml:"venues" yaml:"venues"`
	Tokens            []TokenConfig    `toml:"tokens" yaml:"tokens"`
	ConfidentialPools []PoolConfig     `toml:"confidential_pools" yaml:"confidential_pools"`
	Arbitrage         ArbitrageConfig  `toml:"arbitrage" yaml:"arbitrage"`
	Risk              RiskConfig       `toml:"risk" yaml:"risk"`
	Monitoring        MonitoringConfig `toml:"monitoring" yaml:"monitoring"`
	Wallet            WalletConfig     `toml:"wallet" yaml:"wallet"`
	Postgres          PostgresConfig   `toml:"postgres" yaml:"postgres"`
	Redis             RedisConfig      `toml:"redis" yaml:"redis"`
	S3                S3Config         `toml:"s3" yaml:"s3"`
	Journal           JournalConfig    `toml:"journal" yaml:"journal"`
	Server            ServerConfig     `toml:"server" yaml:"server"`
	Notify            NotifyConfig     `toml:"notify" yaml:"notify"`
	Mode              string           `toml:"mode" yaml:"mode"`
	LogLevel          string           `toml:"log_level" yaml:"log_level"`
}

// ChainsConfig holds the RPC endpoints of both chains.
type ChainsConfig struct {
	Lisk ChainConfig `toml:"lisk" yaml:"lisk"`
	Zama ChainConfig `toml:"zama" yaml:"zama"`
}

// ChainConfig lists RPC endpoints in failover order.
type ChainConfig struct {
	RPCURLs []string `toml:"rpc_urls" yaml:"rpc_urls"`
}

// VenueConfig describes one UniswapV2-style venue.
type VenueConfig struct {
	Name    string `toml:"name" yaml:"name"`
	Chain   string `toml:"chain" yaml:"chain"`
	Router  string `toml:"router" yaml:"router"`
	Factory string `toml:"factory" yaml:"factory"`
	// Anchor is the token symbol pools are listed against in pools mode.
	Anchor string `toml:"anchor" yaml:"anchor"`
}

// TokenConfig is one entry of the ordered token list. An empty or zero
// address marks a token that is not deployed yet.
type TokenConfig struct {
	Symbol  string `toml:"symbol" yaml:"symbol"`
	Address string `toml:"address" yaml:"address"`
}

// PoolConfig describes a confidential pool handle.
type PoolConfig struct {
	Name    string `toml:"name" yaml:"name"`
	Chain   string `toml:"chain" yaml:"chain"`
	Address string `toml:"address" yaml:"address"`
	KeyRef  string `toml:"key_ref" yaml:"key_ref"`
}

// ArbitrageConfig selects strategies and the token sets they run on.
type ArbitrageConfig struct {
	Strategies []string `toml:"strategies" yaml:"strategies"`
	// TriangularVenues restricts the triangular search. Empty means every venue.
	TriangularVenues []string `toml:"triangular_venues" yaml:"triangular_venues"`
	TriangularTokens int      `toml:"triangular_tokens" yaml:"triangular_tokens"`
	PriceVenue       string   `toml:"price_venue" yaml:"price_venue"`
	// PricePairs and CrossPair are written "IN/OUT" using token symbols.
	PricePairs         []string `toml:"price_pairs" yaml:"price_pairs"`
	CrossPair          string   `toml:"cross_pair" yaml:"cross_pair"`
	TopN               int      `toml:"top_n" yaml:"top_n"`
	MinProfitThreshold float64  `toml:"min_profit_threshold" yaml:"min_profit_threshold"`
}

// RiskConfig holds gas parameters for the execution gate.
type RiskConfig struct {
	GasLimitPerTx int    `toml:"gas_limit_per_tx" yaml:"gas_limit_per_tx"`
	GasChain      string `toml:"gas_chain" yaml:"gas_chain"`
}

// MonitoringConfig holds scan loop timing.
type MonitoringConfig struct {
	ScanInterval    duration `toml:"scan_interval" yaml:"scan_interval"`
	BackoffInterval duration `toml:"backoff_interval" yaml:"backoff_interval"`
	StatsEvery      int      `toml:"stats_every" yaml:"stats_every"`
	CallTimeout     duration `toml:"call_timeout" yaml:"call_timeout"`
	ConnectTimeout  duration `toml:"connect_timeout" yaml:"connect_timeout"`
	LockTTL         duration `toml:"lock_ttl" yaml:"lock_ttl"`
}

// WalletConfig holds the optional signing key. Without one the bot only
// simulates.
type WalletConfig struct {
	PrivateKey       string `toml:"private_key" yaml:"private_key"`
	EncryptedKeyPath string `toml:"encrypted_key_path" yaml:"encrypted_key_path"`
	KeyPassword      string `toml:"key_password" yaml:"key_password"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Enabled       bool   `toml:"enabled" yaml:"enabled"`
	DSN           string `toml:"dsn" yaml:"dsn"`
	Host          string `toml:"host" yaml:"host"`
	Port          int    `toml:"port" yaml:"port"`
	Database      string `toml:"database" yaml:"database"`
	User          string `toml:"user" yaml:"user"`
	Password      string `toml:"password" yaml:"password"`
	SSLMode       string `toml:"ssl_mode" yaml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns" yaml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns" yaml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations" yaml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled" yaml:"enabled"`
	Addr       string `toml:"addr" yaml:"addr"`
	Password   string `toml:"password" yaml:"password"`
	DB         int    `toml:"db" yaml:"db"`
	PoolSize   int    `toml:"pool_size" yaml:"pool_size"`
	MaxRetries int    `toml:"max_retries" yaml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled" yaml:"tls_enabled"`
	// CacheTTLMinutes bounds how long a cached quote survives; 0 keeps it.
	CacheTTLMinutes int `toml:"cache_ttl_minutes" yaml:"cache_ttl_minutes"`
	StreamMaxLen    int `toml:"stream_max_len" yaml:"stream_max_len"`
}

// S3Config holds S3-compatible object storage parameters.
type S3Config struct {
	Enabled              bool     `toml:"enabled" yaml:"enabled"`
	Endpoint             string   `toml:"endpoint" yaml:"endpoint"`
	Region               string   `toml:"region" yaml:"region"`
	Bucket               string   `toml:"bucket" yaml:"bucket"`
	AccessKey            string   `toml:"access_key" yaml:"access_key"`
	SecretKey            string   `toml:"secret_key" yaml:"secret_key"`
	UseSSL               bool     `toml:"use_ssl" yaml:"use_ssl"`
	ForcePathStyle       bool     `toml:"force_path_style" yaml:"force_path_style"`
	ArchiveRetentionDays int      `toml:"archive_retention_days" yaml:"archive_retention_days"`
	ArchiveInterval      duration `toml:"archive_interval" yaml:"archive_interval"`
}

// JournalConfig holds the write-ahead log parameters of the decision ledger.
type JournalConfig struct {
	Enabled          bool   `toml:"enabled" yaml:"enabled"`
	Dir              string `toml:"dir" yaml:"dir"`
	SegmentThreshold int    `toml:"segment_threshold" yaml:"segment_threshold"`
	MaxSegments      int    `toml:"max_segments" yaml:"max_segments"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled" yaml:"enabled"`
	Port        int      `toml:"port" yaml:"port"`
	CORSOrigins []string `toml:"cors_origins" yaml:"cors_origins"`
	// APIKey protects every route except /api/health when set.
	APIKey string `toml:"api_key" yaml:"api_key"`
	// RateLimitPerMinute applies per client IP when Redis is enabled.
	RateLimitPerMinute int `toml:"rate_limit_per_minute" yaml:"rate_limit_per_minute"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token" yaml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id" yaml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url" yaml:"discord_webhook_url"`
	Events            []string `toml:"events" yaml:"events"`
	DedupWindow       duration `toml:"dedup_window" yaml:"dedup_window"`
	MaxPerMinute      int      `toml:"max_per_minute" yaml:"max_per_minute"`
}

// duration is a wrapper around time.Duration that supports string decoding
// (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// UnmarshalYAML accepts "30s" style strings and bare numbers, which are read
// as seconds.
func (d *duration) UnmarshalYAML(value *yaml.Node) error {
	if tag := value.ShortTag(); tag == "!!int" || tag == "!!float" {
		var secs float64
		if err := value.Decode(&secs); err != nil {
			return err
		}
		d.Duration = time.Duration(secs * float64(time.Second))
		return nil
	}
	return d.UnmarshalText([]byte(value.Value))
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Chains: ChainsConfig{
			Lisk: ChainConfig{RPCURLs: []string{"https://rpc.api.lisk.com"}},
			Zama: ChainConfig{RPCURLs: []string{"https://devnet.zama.ai"}},
		},
		Venues: []VenueConfig{
			{
				Name:    "liskswap",
				Chain:   ChainLisk,
				Router:  "0x1234567890123456789012345678901234567890",
				Factory: "0x2345678901234567890123456789012345678901",
				Anchor:  "LSK",
			},
		},
		Tokens: []TokenConfig{
			{Symbol: "WLSK", Address: "0x5678901234567890123456789012345678901234"},
			{Symbol: "LSK", Address: "0x6789012345678901234567890123456789012345"},
			{Symbol: "USDC", Address: "0x2345678901234567890123456789012345678901"},
			{Symbol: "USDT"},
			{Symbol: "WBTC"},
			{Symbol: "ZAMA"},
			{Symbol: "FHEUSDC"},
		},
		ConfidentialPools: []PoolConfig{
			{Name: "pool_a", Chain: ChainZama, Address: "0x3456789012345678901234567890123456789012"},
			{Name: "pool_b", Chain: ChainZama, Address: "0x4567890123456789012345678901234567890123"},
		},
		Arbitrage: ArbitrageConfig{
			Strategies:       []string{StrategyTriangular, StrategyCrossVenue},
			TriangularTokens: 3,
			PriceVenue:       "liskswap",
			PricePairs: []string{
				"WLSK/LSK",
				"LSK/USDC",
				"WLSK/USDT",
				"ZAMA/FHEUSDC",
				"WBTC/USDC",
			},
			CrossPair:          "WLSK/FHEUSDC",
			TopN:               10,
			MinProfitThreshold: 0.005,
		},
		Risk: RiskConfig{
			GasLimitPerTx: 300_000,
			GasChain:      ChainLisk,
		},
		Monitoring: MonitoringConfig{
			ScanInterval:    duration{10 * time.Second},
			BackoffInterval: duration{30 * time.Second},
			StatsEvery:      10,
			CallTimeout:     duration{10 * time.Second},
			ConnectTimeout:  duration{15 * time.Second},
			LockTTL:         duration{60 * time.Second},
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "privpool",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:            "localhost:6379",
			PoolSize:        20,
			MaxRetries:      3,
			CacheTTLMinutes: 10,
			StreamMaxLen:    10000,
		},
		S3: S3Config{
			Endpoint:             "http://localhost:9000",
			Region:               "us-east-1",
			Bucket:               "privpool-archive",
			ForcePathStyle:       true,
			ArchiveRetentionDays: 30,
			ArchiveInterval:      duration{24 * time.Hour},
		},
		Journal: JournalConfig{
			Dir:              "data/journal",
			SegmentThreshold: 1000,
			MaxSegments:      100,
		},
		Server: ServerConfig{
			Enabled:            true,
			Port:               8000,
			CORSOrigins:        []string{"http://localhost:3000", "http://localhost:5173"},
			RateLimitPerMinute: 120,
		},
		Notify: NotifyConfig{
			Events:       []string{EventWouldExecute, EventScanError},
			DedupWindow:  duration{5 * time.Minute},
			MaxPerMinute: 20,
		},
		Mode:     "scan",
		LogLevel: "info",
	}
}

// Notification event names.
const (
	EventOpportunity  = "opportunity"
	EventWouldExecute = "would_execute"
	EventScanError    = "scan_error"
	EventStats        = "stats"
)

var validModes = map[string]bool{
	"scan":   true,
	"status": true,
	"pools":  true,
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validChains = map[string]bool{ChainLisk: true, ChainZama: true}

var validStrategies = map[string]bool{StrategyTriangular: true, StrategyCrossVenue: true}

var validEvents = map[string]bool{
	EventOpportunity:  true,
	EventWouldExecute: true,
	EventScanError:    true,
	EventStats:        true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: scan, status, pools)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Chains
	if len(c.Chains.Lisk.RPCURLs) == 0 {
		errs = append(errs, "chains.lisk: rpc_urls must not be empty")
	}
	if len(c.Chains.Zama.RPCURLs) == 0 {
		errs = append(errs, "chains.zama: rpc_urls must not be empty")
	}

	// Tokens
	symbols := make(map[string]bool, len(c.Tokens))
	for i, t := range c.Tokens {
		if t.Symbol == "" {
			errs = append(errs, fmt.Sprintf("tokens[%d]: symbol must not be empty", i))
			continue
		}
		if symbols[t.Symbol] {
			errs = append(errs, fmt.Sprintf("tokens[%d]: duplicate symbol %q", i, t.Symbol))
		}
		symbols[t.Symbol] = true
		if t.Address != "" && !common.IsHexAddress(t.Address) {
			errs = append(errs, fmt.Sprintf("tokens.%s: invalid address %q", t.Symbol, t.Address))
		}
	}

	// Venues
	venues := make(map[string]bool, len(c.Venues))
	if len(c.Venues) == 0 {
		errs = append(errs, "venues: at least one venue is required")
	}
	for i, v := range c.Venues {
		if v.Name == "" {
			errs = append(errs, fmt.Sprintf("venues[%d]: name must not be empty", i))
			continue
		}
		if venues[v.Name] {
			errs = append(errs, fmt.Sprintf("venues[%d]: duplicate name %q", i, v.Name))
		}
		venues[v.Name] = true
		if !validChains[v.Chain] {
			errs = append(errs, fmt.Sprintf("venues.%s: unknown chain %q (valid: lisk, zama)", v.Name, v.Chain))
		}
		if !common.IsHexAddress(v.Router) {
			errs = append(errs, fmt.Sprintf("venues.%s: invalid router address %q", v.Name, v.Router))
		}
		if !common.IsHexAddress(v.Factory) {
			errs = append(errs, fmt.Sprintf("venues.%s: invalid factory address %q", v.Name, v.Factory))
		}
		if v.Anchor != "" && !symbols[v.Anchor] {
			errs = append(errs, fmt.Sprintf("venues.%s: anchor %q is not a configured token", v.Name, v.Anchor))
		}
	}

	// Confidential pools
	for i, p := range c.ConfidentialPools {
		if p.Name == "" {
			errs = append(errs, fmt.Sprintf("confidential_pools[%d]: name must not be empty", i))
		}
		if !validChains[p.Chain] {
			errs = append(errs, fmt.Sprintf("confidential_pools[%d]: unknown chain %q", i, p.Chain))
		}
		if !common.IsHexAddress(p.Address) {
			errs = append(errs, fmt.Sprintf("confidential_pools[%d]: invalid address %q", i, p.Address))
		}
	}

	// Arbitrage
	crossEnabled := false
	for _, s := range c.Arbitrage.Strategies {
		if !validStrategies[s] {
			errs = append(errs, fmt.Sprintf("arbitrage: unknown strategy %q (valid: triangular, cross_venue)", s))
		}
		if s == StrategyCrossVenue {
			crossEnabled = true
		}
	}
	if c.Arbitrage.TriangularTokens < 3 {
		errs = append(errs, "arbitrage: triangular_tokens must be >= 3")
	}
	for _, v := range c.Arbitrage.TriangularVenues {
		if !venues[v] {
			errs = append(errs, fmt.Sprintf("arbitrage: triangular venue %q is not configured", v))
		}
	}
	if len(c.Arbitrage.PricePairs) > 0 && !venues[c.Arbitrage.PriceVenue] {
		errs = append(errs, fmt.Sprintf("arbitrage: price_venue %q is not configured", c.Arbitrage.PriceVenue))
	}
	for _, p := range c.Arbitrage.PricePairs {
		if _, _, err := ParsePair(p); err != nil {
			errs = append(errs, "arbitrage: price_pairs: "+err.Error())
		}
	}
	if crossEnabled {
		in, out, err := ParsePair(c.Arbitrage.CrossPair)
		switch {
		case err != nil:
			errs = append(errs, "arbitrage: cross_pair: "+err.Error())
		case !symbols[in] || !symbols[out]:
			errs = append(errs, fmt.Sprintf("arbitrage: cross_pair %q names an unknown token", c.Arbitrage.CrossPair))
		}
	}
	if c.Arbitrage.TopN < 0 {
		errs = append(errs, "arbitrage: top_n must be >= 0")
	}
	if c.Arbitrage.MinProfitThreshold < 0 {
		errs = append(errs, "arbitrage: min_profit_threshold must be >= 0")
	}

	// Risk
	if c.Risk.GasLimitPerTx <= 0 {
		errs = append(errs, "risk: gas_limit_per_tx must be > 0")
	}
	if !validChains[c.Risk.GasChain] {
		errs = append(errs, fmt.Sprintf("risk: unknown gas_chain %q", c.Risk.GasChain))
	}

	// Monitoring
	if c.Monitoring.ScanInterval.Duration <= 0 {
		errs = append(errs, "monitoring: scan_interval must be > 0")
	}
	if c.Monitoring.BackoffInterval.Duration <= 0 {
		errs = append(errs, "monitoring: backoff_interval must be > 0")
	}
	if c.Monitoring.StatsEvery < 1 {
		errs = append(errs, "monitoring: stats_every must be >= 1")
	}
	if c.Monitoring.CallTimeout.Duration <= 0 {
		errs = append(errs, "monitoring: call_timeout must be > 0")
	}
	if c.Monitoring.ConnectTimeout.Duration <= 0 {
		errs = append(errs, "monitoring: connect_timeout must be > 0")
	}

	// Wallet
	if c.Wallet.EncryptedKeyPath != "" && c.Wallet.KeyPassword == "" {
		errs = append(errs, "wallet: key_password is required when encrypted_key_path is set")
	}

	// Postgres
	if c.Postgres.Enabled {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Host == "" {
				errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns < 0 || c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must be between 0 and pool_max_conns")
		}
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	// S3
	if c.S3.Enabled {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty")
		}
		if c.S3.ArchiveRetentionDays < 1 {
			errs = append(errs, "s3: archive_retention_days must be >= 1")
		}
		if c.S3.ArchiveInterval.Duration <= 0 {
			errs = append(errs, "s3: archive_interval must be > 0")
		}
	}

	// Journal
	if c.Journal.Enabled {
		if c.Journal.Dir == "" {
			errs = append(errs, "journal: dir must not be empty")
		}
		if c.Journal.SegmentThreshold < 1 || c.Journal.MaxSegments < 1 {
			errs = append(errs, "journal: segment_threshold and max_segments must be >= 1")
		}
	}

	// Server
	if c.Server.Enabled && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.RateLimitPerMinute < 0 {
		errs = append(errs, "server: rate_limit_per_minute must be >= 0")
	}

	// Notify
	for _, e := range c.Notify.Events {
		if !validEvents[e] {
			errs = append(errs, fmt.Sprintf("notify: unknown event %q", e))
		}
	}
	if c.Notify.MaxPerMinute < 0 {
		errs = append(errs, "notify: max_per_minute must be >= 0")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ParsePair splits an "IN/OUT" pair expression into its token symbols.
func ParsePair(s string) (in, out string, err error) {
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("pair %q must be written IN/OUT", s)
	}
	in, out = strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	if in == "" || out == "" || in == out {
		return "", "", fmt.Errorf("pair %q must name two different tokens", s)
	}
	return in, out, nil
}

// Token returns the configured token with the given symbol.
func (c *Config) Token(symbol string) (TokenConfig, bool) {
	for _, t := range c.Tokens {
		if t.Symbol == symbol {
			return t, true
		}
	}
	return TokenConfig{}, false
}

// StrategyEnabled reports whether the named strategy is listed.
func (c *Config) StrategyEnabled(name string) bool {
	for _, s := range c.Arbitrage.Strategies {
		if s == name {
			return true
		}
	}
	return false
}
