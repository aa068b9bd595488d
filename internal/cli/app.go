package cli

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/maintainly/fssync/internal/config"
	"github.com/maintainly/fssync/internal/logging"
	"github.com/maintainly/fssync/internal/queue"
	"github.com/maintainly/fssync/internal/store"
	"github.com/maintainly/fssync/internal/syncer"
	"github.com/maintainly/fssync/internal/syncer/source/freshservice"
)

// app is the wired process: config, logger, store, cursors and orchestrator.
type app struct {
	cfg     config.Config
	logger  *zap.Logger
	store   *store.GormStore
	cursors store.CursorStore
	orch    *syncer.Orchestrator
	redis   *redis.Client
}

func newApp(ctx context.Context, opts *RootOptions) (*app, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, wrapExitError(ExitCommandError, "load config", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, wrapExitError(ExitCommandError, "invalid config", err)
	}
	level := cfg.LogLevel
	if opts.Verbose {
		level = "debug"
	}
	logger, err := logging.New(level, cfg.LogFormat, "fssync")
	if err != nil {
		return nil, wrapExitError(ExitCommandError, "build logger", err)
	}

	a := &app{cfg: cfg, logger: logger}
	if err := a.openStore(ctx); err != nil {
		a.Close()
		return nil, wrapExitError(ExitCommandError, "open store", err)
	}

	src, err := freshservice.NewClient(freshservice.Config{
		Domain:  cfg.FreshserviceDomain,
		APIKey:  cfg.FreshserviceAPIKey,
		PerPage: cfg.FreshservicePerPage,
		Timeout: cfg.FreshserviceTimeout,
	}, logger.Named("freshservice"))
	if err != nil {
		a.Close()
		return nil, wrapExitError(ExitCommandError, "freshservice client", err)
	}
	a.orch = syncer.NewOrchestrator(src, a.store,
		syncer.WithCursorStore(a.cursors),
		syncer.WithLogger(logger.Named("syncer")),
		syncer.WithAssetTypes(cfg.SyncAssetTypes),
	)
	return a, nil
}

func (a *app) openStore(ctx context.Context) error {
	var err error
	if a.cfg.MySQLDSN != "" {
		a.store, err = store.NewGormStore(a.cfg.MySQLDSN)
		a.logger.Info("using MySQL store")
	} else {
		a.store, err = store.NewSQLiteStore(a.cfg.SQLitePath)
		a.logger.Info("using sqlite store", zap.String("path", a.cfg.SQLitePath))
	}
	if err != nil {
		return err
	}
	a.store.SetBatchSize(a.cfg.SyncBatchSize)
	a.cursors = a.store

	if a.cfg.CursorBackend == config.CursorBackendRedis {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     a.cfg.RedisAddr,
			Password: a.cfg.RedisPassword,
			DB:       a.cfg.RedisDB,
		})
		if err := a.redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis %s: %w", a.cfg.RedisAddr, err)
		}
		a.cursors = store.NewRedisCursorStore(a.redis)
		a.logger.Info("cursors kept in redis", zap.String("addr", a.cfg.RedisAddr))
	}
	return nil
}

// queueClient connects to RabbitMQ when configured. Without a broker jobs
// stay in process, which only works when the worker runs inside serve.
func (a *app) queueClient() (queue.Client, error) {
	if a.cfg.RabbitMQURL == "" {
		return queue.NewMemoryClient(64), nil
	}
	return queue.NewRabbitClient(a.cfg.RabbitMQURL, queue.DefaultQueue, a.logger.Named("queue"))
}

func (a *app) Close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.store != nil {
		_ = a.store.Close()
	}
	_ = a.logger.Sync()
}
