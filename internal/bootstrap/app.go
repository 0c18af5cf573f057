// Package bootstrap assembles the application from configuration. The API
// server and the CLI share it.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"g2-yoyodex/internal/annotation"
	"g2-yoyodex/internal/cache"
	"g2-yoyodex/internal/config"
	"g2-yoyodex/internal/handler"
	"g2-yoyodex/internal/images"
	"g2-yoyodex/internal/logger"
	"g2-yoyodex/internal/normalize"
	"g2-yoyodex/internal/repository"
	"g2-yoyodex/internal/router"
	"g2-yoyodex/internal/service"
	"g2-yoyodex/internal/source"
	"g2-yoyodex/internal/syncer"
)

// App holds every long-lived component.
type App struct {
	Config *config.Config
	Log    *logger.Logger

	Store       cache.Backend
	Datasets    *cache.DatasetCache
	Normalizer  *normalize.Normalizer
	Annotations *annotation.Store
	Catalog     *service.Catalog
	Sessions    *service.SessionService
	Engine      *syncer.Engine
	Debouncer   *syncer.Debouncer
	Cleanup     *service.CleanupScheduler

	refreshCtx    context.Context
	cancelRefresh context.CancelFunc
}

// OpenStore opens the storage backend selected by cfg.Type.
func OpenStore(cfg config.CacheConfig, app string, log *logger.Logger) (cache.Backend, error) {
	switch strings.ToLower(cfg.Type) {
	case "memory":
		return cache.NewMemoryStore(), nil
	case "redis":
		return cache.NewRedisStore(cache.RedisConfig{
			Addr:      cfg.RedisAddress(),
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			KeyPrefix: app,
		}, log)
	case "postgres", "postgresql":
		return repository.NewPostgresStore(cfg.PostgresDSN(), log)
	case "mysql":
		return repository.NewMySQLStore(cfg.MySQLDSN(), log)
	case "sqlite", "":
		return repository.NewSQLiteStore(cfg.SQLitePath, log)
	}
	return nil, fmt.Errorf("unsupported cache type %q", cfg.Type)
}

// New wires the application on top of an already opened store.
func New(cfg *config.Config, store cache.Backend, log *logger.Logger) *App {
	log = logger.OrNop(log)
	app := cfg.App.Name

	a := &App{
		Config: cfg,
		Log:    log,
		Store:  store,
		Datasets: cache.NewDatasetCache(store, cache.DatasetConfig{
			App:            app,
			SchemaVersion:  cfg.App.SchemaVersion(),
			MaxAge:         cfg.Cache.MaxAge,
			FastPathLength: cfg.Cache.FastPathLength,
		}, log),
		Normalizer: normalize.New(cfg.Catalog.PlaceholderImage, log),
	}
	a.Annotations = annotation.NewStore(store, app, log)
	a.Catalog = service.NewCatalog(a.Normalizer, a.Annotations, log)
	a.Sessions = service.NewSessionService(store, app, cfg.Cache.SessionTTL, cfg.Catalog.DefaultPageSize, log)

	client := source.NewClient(source.Config{
		ItemsURL:  cfg.Source.ItemsURL,
		SpecsURL:  cfg.Source.SpecsURL,
		Timeout:   cfg.Source.Timeout,
		UserAgent: cfg.Source.UserAgent,
	}, nil)
	a.Engine = syncer.New(source.NewRecordFetcher(client, a.Normalizer, log), a.Datasets, a.Catalog.OnData, log)

	a.refreshCtx, a.cancelRefresh = context.WithCancel(context.Background())
	a.Debouncer = syncer.NewDebouncer(cfg.Catalog.RefreshDebounce, func() {
		a.Engine.Refresh(a.refreshCtx)
	})

	a.Cleanup = service.NewCleanupScheduler(map[string]service.Sweeper{
		"store":    store,
		"datasets": a.Datasets,
	}, service.CleanupConfig{
		Interval:     cfg.Cache.SweepInterval,
		InitialDelay: service.DefaultCleanupConfig().InitialDelay,
	}, log)

	return a
}

// Open opens the configured store and wires the application.
func Open(cfg *config.Config, log *logger.Logger) (*App, error) {
	store, err := OpenStore(cfg.Cache, cfg.App.Name, log)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Cache.Type, err)
	}
	return New(cfg, store, log), nil
}

// Router builds the HTTP handler tree.
func (a *App) Router() http.Handler {
	cfg := a.Config
	return router.New(router.Config{
		Handler:        handler.New(cfg.App.Name, cfg.App.Version, a.Engine),
		CatalogHandler: handler.NewCatalogHandler(a.Catalog, a.Engine, cfg.Catalog.DefaultPageSize, a.Log),
		SessionHandler: handler.NewSessionHandler(a.Sessions, a.Catalog, a.Log),
		SyncHandler:    handler.NewSyncHandler(a.Engine, a.Debouncer),
		AdminHandler: handler.NewAdminHandler(handler.AdminConfig{
			Catalog:   a.Catalog,
			Datasets:  a.Datasets,
			Sweeper:   a.Cleanup,
			Store:     a.Store,
			Engine:    a.Engine,
			StoreType: cfg.Cache.Type,
		}, a.Log),
		LoginKey: cfg.App.LoginKey,
		Logger:   a.Log,
	})
}

// Downloader builds an image downloader from the images configuration.
func (a *App) Downloader() *images.Downloader {
	ic := a.Config.Images
	return images.NewDownloader(images.Config{
		Workers:       ic.Workers,
		Retries:       ic.Retries,
		RetryDelay:    ic.RetryDelay,
		RatePerSecond: ic.RatePerSecond,
		ThumbWidth:    ic.ThumbWidth,
		UserAgent:     a.Config.Source.UserAgent,
	}, nil, a.Log)
}

// Close stops background work and closes the store.
func (a *App) Close() error {
	a.Debouncer.Stop()
	a.cancelRefresh()
	a.Cleanup.Stop()
	return a.Store.Close()
}
