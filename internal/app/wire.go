package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	s3blob "github.com/alanyoungcy/privpoolbot/internal/blob/s3"
	"github.com/alanyoungcy/privpoolbot/internal/cache/redis"
	"github.com/alanyoungcy/privpoolbot/internal/config"
	"github.com/alanyoungcy/privpoolbot/internal/crypto"
	"github.com/alanyoungcy/privpoolbot/internal/domain"
	"github.com/alanyoungcy/privpoolbot/internal/executor"
	"github.com/alanyoungcy/privpoolbot/internal/notify"
	"github.com/alanyoungcy/privpoolbot/internal/store/postgres"
	"github.com/alanyoungcy/privpoolbot/internal/store/wal"
)

// Dependencies bundles the infrastructure the modes need. Optional backends
// that are disabled in config leave their fields nil.
type Dependencies struct {
	Credential *crypto.Credential

	// Stores
	Postgres  *postgres.Client
	Decisions domain.DecisionStore
	Audit     domain.AuditStore

	// Caches
	Redis       *redis.Client
	PriceCache  domain.PriceCache
	RateLimiter domain.RateLimiter
	LockManager domain.LockManager
	SignalBus   domain.SignalBus

	// Blob storage
	S3       *s3blob.Client
	Archiver domain.Archiver

	// Decision journal and the ledger restored from it.
	Journal *wal.Journal
	Ledger  *executor.Ledger

	Notifier *notify.Notifier
}

// needsStores reports whether mode runs the scan loop and therefore uses
// persistence, caches and notifications.
func needsStores(mode string) bool {
	return mode == "scan"
}

// Wire constructs the concrete dependencies and returns them with a cleanup
// function that releases them in reverse order.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (*Dependencies, func(), error) {
		cleanup()
		return nil, nil, err
	}

	deps := &Dependencies{}

	// --- Credential ---
	cred, err := crypto.LoadCredential(crypto.KeyConfig{
		RawPrivateKey:    cfg.Wallet.PrivateKey,
		EncryptedKeyPath: cfg.Wallet.EncryptedKeyPath,
		KeyPassword:      cfg.Wallet.KeyPassword,
	})
	if err != nil {
		return fail(fmt.Errorf("wire: credential: %w", err))
	}
	deps.Credential = cred

	if !needsStores(cfg.Mode) {
		return deps, cleanup, nil
	}

	// --- PostgreSQL ---
	if cfg.Postgres.Enabled {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			return fail(fmt.Errorf("wire: postgres: %w", err))
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				return fail(fmt.Errorf("wire: postgres migrations: %w", err))
			}
		}
		deps.Postgres = pgClient
		deps.Decisions = postgres.NewDecisionStore(pgClient.Pool())
		deps.Audit = postgres.NewAuditStore(pgClient.Pool())
	}

	// --- Redis ---
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			return fail(fmt.Errorf("wire: redis: %w", err))
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		ttl := time.Duration(cfg.Redis.CacheTTLMinutes) * time.Minute
		streamMaxLen := int64(10000)
		if cfg.Redis.StreamMaxLen > 0 {
			streamMaxLen = int64(cfg.Redis.StreamMaxLen)
		}
		deps.Redis = redisClient
		deps.PriceCache = redis.NewPriceCache(redisClient, ttl)
		deps.RateLimiter = redis.NewRateLimiter(redisClient)
		deps.LockManager = redis.NewLockManager(redisClient)
		deps.SignalBus = redis.NewSignalBusWithMaxLen(redisClient, streamMaxLen)
	}

	// --- S3 archive (needs Postgres as the source) ---
	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			return fail(fmt.Errorf("wire: s3: %w", err))
		}
		deps.S3 = s3Client
		if deps.Decisions != nil {
			deps.Archiver = s3blob.NewArchiver(s3blob.ArchiverConfig{
				Writer:    s3blob.NewWriter(s3Client),
				Reader:    s3blob.NewReader(s3Client),
				Decisions: deps.Decisions,
				Audit:     deps.Audit,
			})
		} else {
			logger.WarnContext(ctx, "s3 enabled without postgres; archival disabled")
		}
	}

	// --- Decision journal ---
	var journal executor.Journal
	if cfg.Journal.Enabled {
		j, err := wal.Open(wal.Config{
			Dir:              cfg.Journal.Dir,
			SegmentThreshold: cfg.Journal.SegmentThreshold,
			MaxSegments:      cfg.Journal.MaxSegments,
		})
		if err != nil {
			return fail(fmt.Errorf("wire: journal: %w", err))
		}
		closers = append(closers, func() { _ = j.Close() })
		deps.Journal = j
		journal = j
	}
	deps.Ledger = executor.NewLedger(journal)
	if deps.Journal != nil {
		entries, err := deps.Journal.Replay()
		if err != nil {
			return fail(fmt.Errorf("wire: journal replay: %w", err))
		}
		deps.Ledger.Restore(entries)
		logger.InfoContext(ctx, "ledger restored",
			slog.Int("decisions", len(entries)),
			slog.Float64("simulated_profit", deps.Ledger.SimulatedProfit()),
		)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(notify.Options{
		Senders:      senders,
		Events:       cfg.Notify.Events,
		DedupWindow:  cfg.Notify.DedupWindow.Duration,
		Limiter:      deps.RateLimiter,
		MaxPerMinute: cfg.Notify.MaxPerMinute,
		Logger:       logger,
	})

	return deps, cleanup, nil
}
