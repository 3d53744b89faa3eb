package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/burugo/henry"
	"github.com/burugo/henry/common"
	"github.com/burugo/henry/drivers/db/mysql"
	"github.com/burugo/henry/drivers/db/postgres"
	"github.com/burugo/henry/drivers/db/sqlite"
	"github.com/burugo/henry/drivers/mapstore/redis"
	"github.com/burugo/henry/internal/config"
	"github.com/burugo/henry/internal/logging"
	"github.com/burugo/henry/typemap"
)

// App bundles what the explore and types commands need.
type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	Registry *henry.Registry
}

// MapsApp is App plus the Redis type-map store.
type MapsApp struct {
	Config *config.Config
	Logger *zap.Logger
	Store  *redis.Store
}

// --- Providers ---

// provideConfig loads the config file and applies the --log-level override.
func provideConfig(path configPath) (*config.Config, error) {
	cfg, err := config.Load(string(path))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	return cfg, nil
}

// provideLogger builds the process logger. Includes cleanup.
func provideLogger(cfg *config.Config) (*zap.Logger, func(), error) {
	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Development)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = logger.Sync()
	}
	return logger, cleanup, nil
}

// provideRegistry binds every bundled explorer, each sharing the process logger.
func provideRegistry(logger *zap.Logger) (*henry.Registry, error) {
	r := henry.NewRegistry()
	if err := mysql.Register(r, mysql.WithLogger(logger)); err != nil {
		return nil, err
	}
	if err := postgres.Register(r, postgres.WithLogger(logger)); err != nil {
		return nil, err
	}
	if err := sqlite.Register(r, sqlite.WithLogger(logger)); err != nil {
		return nil, err
	}
	return r, nil
}

// provideStore connects the type-map store. Includes cleanup.
func provideStore(cfg *config.Config, logger *zap.Logger) (*redis.Store, func(), error) {
	store, err := redis.NewStore(nil, &redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Logger:   logger,
	})
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := store.Close(); err != nil {
			logger.Warn("closing type map store", zap.Error(err))
		}
	}
	return store, cleanup, nil
}

// configPath distinguishes the config file path from other strings in the graph.
type configPath string

// typeMaps returns the maps from the configured file, or the built-in ones.
func typeMaps(cfg *config.Config) ([]*typemap.TypeMap, error) {
	if cfg.TypeMaps.File == "" {
		return typemap.Defaults(), nil
	}
	return typemap.Load(cfg.TypeMaps.File)
}

// mapGetter reads a single stored map.
type mapGetter interface {
	Get(ctx context.Context, from, to string) (*typemap.TypeMap, error)
}

// selectMap finds the map translating from into to. The configured map file
// is searched first, then store when it is not nil, then the built-in maps.
func selectMap(ctx context.Context, cfg *config.Config, store mapGetter, from, to string) (*typemap.TypeMap, error) {
	if cfg.TypeMaps.File != "" {
		maps, err := typemap.Load(cfg.TypeMaps.File)
		if err != nil {
			return nil, err
		}
		if tm, ok := typemap.Select(maps, from, to); ok {
			return tm, nil
		}
	}
	if store != nil {
		tm, err := store.Get(ctx, from, to)
		if err == nil {
			return tm, nil
		}
		if !errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("reading stored type map: %w", err)
		}
	}
	if tm, ok := typemap.Select(typemap.Defaults(), from, to); ok {
		return tm, nil
	}
	return nil, fmt.Errorf("no type map from %s to %s", from, to)
}

// typeMap selects a map for app, opening the Redis store when
// type_maps.store is set.
func (app *App) typeMap(ctx context.Context, from, to string) (*typemap.TypeMap, error) {
	if !app.Config.TypeMaps.Store {
		return selectMap(ctx, app.Config, nil, from, to)
	}
	store, cleanup, err := provideStore(app.Config, app.Logger)
	if err != nil {
		return nil, fmt.Errorf("opening type map store: %w", err)
	}
	defer cleanup()
	return selectMap(ctx, app.Config, store, from, to)
}
