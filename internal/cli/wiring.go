package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ppiankov/verifier/internal/cache"
	"github.com/ppiankov/verifier/internal/collect"
	"github.com/ppiankov/verifier/internal/engine"
	"github.com/ppiankov/verifier/internal/lock"
	"github.com/ppiankov/verifier/internal/metrics"
	"github.com/ppiankov/verifier/internal/model"
	"github.com/ppiankov/verifier/internal/store"
	"github.com/ppiankov/verifier/internal/store/memory"
	"github.com/ppiankov/verifier/internal/store/sqlstore"
	"github.com/ppiankov/verifier/internal/util"
	"github.com/ppiankov/verifier/internal/validate"
	"github.com/ppiankov/verifier/internal/worker"
)

// app holds the wired components for one CLI invocation
type app struct {
	cfg      *model.Config
	logger   *slog.Logger
	client   *http.Client
	store    store.Store
	liveness *validate.LivenessChecker
	engine   *engine.Engine

	closers []func(context.Context) error
}

// newApp wires the datastore, checkers, collectors and locker from cfg.
// withEngine=false skips the datastore and collectors (used by check-url).
func newApp(ctx context.Context, cfg *model.Config, logger *slog.Logger, withEngine bool) (*app, error) {
	a := &app{
		cfg:    cfg,
		logger: logger,
		client: util.NewHTTPClient(cfg.HTTP),
	}

	if cfg.Metrics.Addr != "" {
		srv := metrics.NewServer(cfg.Metrics.Addr)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "addr", cfg.Metrics.Addr, "error", err)
			}
		}()
		a.closers = append(a.closers, srv.Stop)
		logger.Info("metrics server listening", "addr", cfg.Metrics.Addr)
	}

	a.liveness = newLivenessChecker(cfg, a.client, logger)

	if !withEngine {
		return a, nil
	}

	st, err := openStore(ctx, cfg.Store, logger)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	a.store = st
	a.closers = append(a.closers, func(context.Context) error { return st.Close() })

	locker, closeLocker, err := newLocker(ctx, cfg.Redis, logger)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	if closeLocker != nil {
		a.closers = append(a.closers, closeLocker)
	}

	registry, err := collect.NewRegistryFromConfig(cfg.Collector, a.client, logger)
	if err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("configuring collectors: %w", err)
	}

	validator := validate.NewItemValidator(
		a.liveness,
		validate.NewRecencyChecker(cfg.Recency),
		validate.NewDuplicateDetector(cfg.Duplicate.TitleSimilarity),
		cfg.Validation.Workers,
	)

	a.engine = engine.New(st, validator, registry,
		engine.WithLocker(locker),
		engine.WithLogger(logger),
		engine.WithConcurrency(cfg.Collector.Concurrency),
	)
	return a, nil
}

// Close releases resources in reverse order of acquisition
func (a *app) Close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.logger.Warn("error during shutdown", "error", err)
		}
	}
	a.closers = nil
}

func newLivenessChecker(cfg *model.Config, client *http.Client, logger *slog.Logger) *validate.LivenessChecker {
	opts := []validate.LivenessOption{
		validate.WithHTTPClient(client),
		validate.WithLogger(logger),
		validate.WithLimiter(worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)),
	}
	if cfg.RateLimiting.RespectRobots {
		opts = append(opts, validate.WithRobots(util.NewRobotsChecker(client, cfg.HTTP.UserAgent, cfg.Liveness.AttemptTimeout)))
	}
	if c := cache.New(cfg.Cache); c != nil {
		opts = append(opts, validate.WithVerdictCache(cache.NewVerdictCache(c)))
	}
	return validate.NewLivenessChecker(cfg.Liveness, cfg.HTTP, opts...)
}

func openStore(ctx context.Context, cfg model.StoreConfig, logger *slog.Logger) (store.Store, error) {
	if cfg.Driver == "" {
		cfg.Driver = string(sqlstore.DriverSQLite)
	}
	switch strings.ToLower(cfg.Driver) {
	case "memory":
		logger.Warn("using in-memory store; nothing will be persisted")
		return memory.New(), nil
	case "sqlite", "sqlite3", "postgres", "pgx":
		st, err := sqlstore.Open(ctx, cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("opening store: %w", err)
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown store driver: %s (supported: memory, sqlite, postgres)", cfg.Driver)
	}
}

func newLocker(ctx context.Context, cfg model.RedisConfig, logger *slog.Logger) (lock.Locker, func(context.Context) error, error) {
	if cfg.URL == "" {
		return lock.NewKeyedMutex(), nil, nil
	}
	rdb, err := lock.NewRedisClient(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to redis: %w", err)
	}
	logger.Info("using redis group locks", "ttl", cfg.LockTTL)
	return lock.NewRedisLocker(rdb, cfg.LockTTL, logger), func(context.Context) error { return rdb.Close() }, nil
}
