package main

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/target/translation-queue/internal/adapters/maintenance"
	"github.com/target/translation-queue/internal/adapters/processor"
	"github.com/target/translation-queue/internal/bootstrap"
)

// infra bundles the connections a command needs.
type infra struct {
	DB    *sql.DB
	Redis redis.UniversalClient
}

// connectInfra opens Postgres and, when enabled, Redis.
func connectInfra(cmdCtx *commandContext) (*infra, error) {
	dbCfg := bootstrap.DatabaseConfig{
		DBConfig:    cmdCtx.Config.Postgres,
		RedisConfig: cmdCtx.Config.Redis,
		Logger:      cmdCtx.Logger,
	}
	db, err := bootstrap.ConnectDB(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	client, err := bootstrap.ConnectRedis(dbCfg)
	if err != nil {
		if closeErr := db.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close db: %w", closeErr))
		}
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return &infra{DB: db, Redis: client}, nil
}

// Close releases every open connection.
func (r *infra) Close() error {
	var closeErr error
	if r.DB != nil {
		if err := r.DB.Close(); err != nil {
			closeErr = errors.Join(closeErr, fmt.Errorf("close db: %w", err))
		}
	}
	if r.Redis != nil {
		if err := r.Redis.Close(); err != nil {
			closeErr = errors.Join(closeErr, fmt.Errorf("close redis: %w", err))
		}
	}
	return closeErr
}

func (r *infra) processor(cmdCtx *commandContext) (*processor.Runner, error) {
	return bootstrap.NewProcessorRunner(bootstrap.ProcessorConfig{
		DB:          r.DB,
		RedisClient: r.Redis,
		Config:      &cmdCtx.Config,
		Logger:      cmdCtx.Logger,
	})
}

func (r *infra) maintenance(cmdCtx *commandContext) (*maintenance.Runner, error) {
	return bootstrap.NewMaintenanceRunner(bootstrap.MaintenanceConfig{
		DB:          r.DB,
		RedisClient: r.Redis,
		Config:      &cmdCtx.Config,
		Logger:      cmdCtx.Logger,
	})
}

// withRuntime connects, runs fn and closes the connections.
func withRuntime(cmdCtx *commandContext, fn func(rt *infra) error) error {
	rt, err := connectInfra(cmdCtx)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := rt.Close(); closeErr != nil {
			cmdCtx.Logger.Warn("close infrastructure failed", "error", closeErr)
		}
	}()
	return fn(rt)
}
