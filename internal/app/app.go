// Package app assembles the service graph shared by the server, the worker and
// the CLI.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"crimescape.app/dna/core/config"
	"crimescape.app/dna/core/db"
	"crimescape.app/dna/internal/dna"
	"crimescape.app/dna/internal/intel"
	"crimescape.app/dna/internal/lock"
	"crimescape.app/dna/internal/queue"
	"crimescape.app/dna/internal/service"
	"crimescape.app/dna/internal/store"
)

type App struct {
	DB       *db.DB
	Redis    *redis.Client // nil when REDIS_URL is unset
	Producer queue.Producer
	Services *service.Services
}

// LoadEngine builds the engine and synthesizer from the rules file, which
// carries both the `dna:` and `intel:` sections.
func LoadEngine(cfg config.EngineConfig) (*dna.Engine, *intel.Synthesizer, error) {
	rules, err := dna.LoadRules(cfg.RulesFile)
	if err != nil {
		return nil, nil, err
	}
	engine, err := dna.New(rules)
	if err != nil {
		return nil, nil, err
	}
	policy, err := intel.LoadPolicy(cfg.RulesFile)
	if err != nil {
		return nil, nil, err
	}
	return engine, intel.New(policy), nil
}

func ConnectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return client, nil
}

// NewLocker picks the find-or-create lock for the configured mode. client may
// be nil unless the mode is redis.
func NewLocker(cfg config.EngineConfig, client redis.Cmdable) (lock.Locker, error) {
	switch cfg.LockMode {
	case config.LockModeRedis:
		if client == nil {
			return nil, fmt.Errorf("lock mode %q needs a redis client", cfg.LockMode)
		}
		return lock.NewRedisLocker(client, lock.RedisConfig{TTL: cfg.LockTTL}), nil
	case config.LockModeNone:
		return lock.Noop{}, nil
	case config.LockModeLocal, "":
		return lock.NewKeyedMutex(), nil
	default:
		return nil, fmt.Errorf("unknown lock mode %q", cfg.LockMode)
	}
}

// New connects to postgres, and to redis when configured, and builds the
// services. Callers own Close.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	engine, synthesizer, err := LoadEngine(cfg.Engine)
	if err != nil {
		return nil, fmt.Errorf("loading engine rules: %w", err)
	}

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	a := &App{DB: database}
	if cfg.Pipeline.Enabled() {
		a.Redis, err = ConnectRedis(ctx, cfg.Pipeline.RedisURL)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Producer = queue.NewRedisProducer(a.Redis, cfg.Pipeline.RedisStream, logger)
	}

	var cmd redis.Cmdable
	if a.Redis != nil {
		cmd = a.Redis
	}
	locker, err := NewLocker(cfg.Engine, cmd)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Services = service.NewServices(
		store.NewStores(database.Conn()),
		service.NewTxRunner(database),
		engine,
		synthesizer,
		locker,
		a.Producer,
		logger,
	)
	return a, nil
}

func (a *App) Close() {
	// the producer owns the redis client
	if a.Producer != nil {
		_ = a.Producer.Close()
	}
	if a.DB != nil {
		a.DB.Close()
	}
}
