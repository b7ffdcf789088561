package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load reads a configuration file at path, merges it on top of the built-in
// defaults, applies PRIVPOOL_* environment variable overrides, and returns the
// final Config. Files ending in .yaml or .yml are decoded as YAML, everything
// else as TOML. The returned Config has NOT been validated; the caller should
// invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("config: decode yaml %s: %w", path, err)
		}
	default:
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known PRIVPOOL_* environment variables and
// overwrites the corresponding Config fields when a variable is set.
func applyEnvOverrides(cfg *Config) {
	// ── Chains ──
	setStringSlice(&cfg.Chains.Lisk.RPCURLs, "PRIVPOOL_LISK_RPC_URLS")
	setStringSlice(&cfg.Chains.Zama.RPCURLs, "PRIVPOOL_ZAMA_RPC_URLS")

	// ── Wallet ──
	setStr(&cfg.Wallet.PrivateKey, "PRIVPOOL_WALLET_PRIVATE_KEY")
	setStr(&cfg.Wallet.EncryptedKeyPath, "PRIVPOOL_WALLET_ENCRYPTED_KEY_PATH")
	setStr(&cfg.Wallet.KeyPassword, "PRIVPOOL_WALLET_KEY_PASSWORD")

	// ── Arbitrage ──
	setStringSlice(&cfg.Arbitrage.Strategies, "PRIVPOOL_ARBITRAGE_STRATEGIES")
	setStringSlice(&cfg.Arbitrage.TriangularVenues, "PRIVPOOL_ARBITRAGE_TRIANGULAR_VENUES")
	setInt(&cfg.Arbitrage.TriangularTokens, "PRIVPOOL_ARBITRAGE_TRIANGULAR_TOKENS")
	setStr(&cfg.Arbitrage.PriceVenue, "PRIVPOOL_ARBITRAGE_PRICE_VENUE")
	setStringSlice(&cfg.Arbitrage.PricePairs, "PRIVPOOL_ARBITRAGE_PRICE_PAIRS")
	setStr(&cfg.Arbitrage.CrossPair, "PRIVPOOL_ARBITRAGE_CROSS_PAIR")
	setInt(&cfg.Arbitrage.TopN, "PRIVPOOL_ARBITRAGE_TOP_N")
	setFloat64(&cfg.Arbitrage.MinProfitThreshold, "PRIVPOOL_ARBITRAGE_MIN_PROFIT_THRESHOLD")

	// ── Risk ──
	setInt(&cfg.Risk.GasLimitPerTx, "PRIVPOOL_RISK_GAS_LIMIT_PER_TX")
	setStr(&cfg.Risk.GasChain, "PRIVPOOL_RISK_GAS_CHAIN")

	// ── Monitoring ──
	setDuration(&cfg.Monitoring.ScanInterval, "PRIVPOOL_MONITORING_SCAN_INTERVAL")
	setDuration(&cfg.Monitoring.BackoffInterval, "PRIVPOOL_MONITORING_BACKOFF_INTERVAL")
	setInt(&cfg.Monitoring.StatsEvery, "PRIVPOOL_MONITORING_STATS_EVERY")
	setDuration(&cfg.Monitoring.CallTimeout, "PRIVPOOL_MONITORING_CALL_TIMEOUT")
	setDuration(&cfg.Monitoring.ConnectTimeout, "PRIVPOOL_MONITORING_CONNECT_TIMEOUT")
	setDuration(&cfg.Monitoring.LockTTL, "PRIVPOOL_MONITORING_LOCK_TTL")

	// ── Postgres ──
	setBool(&cfg.Postgres.Enabled, "PRIVPOOL_POSTGRES_ENABLED")
	setStr(&cfg.Postgres.DSN, "PRIVPOOL_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "PRIVPOOL_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "PRIVPOOL_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "PRIVPOOL_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "PRIVPOOL_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "PRIVPOOL_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "PRIVPOOL_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "PRIVPOOL_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "PRIVPOOL_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "PRIVPOOL_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "PRIVPOOL_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "PRIVPOOL_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "PRIVPOOL_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "PRIVPOOL_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "PRIVPOOL_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "PRIVPOOL_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "PRIVPOOL_REDIS_TLS_ENABLED")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "PRIVPOOL_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "PRIVPOOL_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "PRIVPOOL_S3_REGION")
	setStr(&cfg.S3.Bucket, "PRIVPOOL_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "PRIVPOOL_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "PRIVPOOL_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "PRIVPOOL_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "PRIVPOOL_S3_FORCE_PATH_STYLE")
	setInt(&cfg.S3.ArchiveRetentionDays, "PRIVPOOL_S3_ARCHIVE_RETENTION_DAYS")
	setDuration(&cfg.S3.ArchiveInterval, "PRIVPOOL_S3_ARCHIVE_INTERVAL")

	// ── Journal ──
	setBool(&cfg.Journal.Enabled, "PRIVPOOL_JOURNAL_ENABLED")
	setStr(&cfg.Journal.Dir, "PRIVPOOL_JOURNAL_DIR")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "PRIVPOOL_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "PRIVPOOL_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "PRIVPOOL_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "PRIVPOOL_SERVER_API_KEY")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "PRIVPOOL_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "PRIVPOOL_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "PRIVPOOL_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "PRIVPOOL_NOTIFY_EVENTS")
	setDuration(&cfg.Notify.DedupWindow, "PRIVPOOL_NOTIFY_DEDUP_WINDOW")
	setInt(&cfg.Notify.MaxPerMinute, "PRIVPOOL_NOTIFY_MAX_PER_MINUTE")

	// ── Top-level ──
	setStr(&cfg.Mode, "PRIVPOOL_MODE")
	setStr(&cfg.LogLevel, "PRIVPOOL_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
