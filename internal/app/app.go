package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/shelf/internal/audit"
	"github.com/MrSnakeDoc/shelf/internal/config"
	"github.com/MrSnakeDoc/shelf/internal/crawler"
	"github.com/MrSnakeDoc/shelf/internal/describe"
	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/engine"
	"github.com/MrSnakeDoc/shelf/internal/httpserver"
	"github.com/MrSnakeDoc/shelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/shelf/internal/logger"
	"github.com/MrSnakeDoc/shelf/internal/ratings"
	"github.com/MrSnakeDoc/shelf/internal/redis"
	"github.com/MrSnakeDoc/shelf/internal/scheduler"
	"github.com/MrSnakeDoc/shelf/internal/storage"
	redisstore "github.com/MrSnakeDoc/shelf/internal/store/redis"
	"github.com/MrSnakeDoc/shelf/internal/tree"
	"github.com/MrSnakeDoc/shelf/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	engine      *engine.Engine
	server      *httpserver.Server
	redisClient *goredis.Client
	refresher   *scheduler.AutoRefresher
	checker     *scheduler.LinkChecker
}

// New wires the storage, audit and catalog layers and loads every category
// the cached passwords can open. The HTTP server is built but not started.
func New(ctx context.Context, cfg *config.Config, loggerClient logger.Logger) (*App, error) {
	passwords := storage.NewPasswordCache()
	if cfg.GlobalPassword != "" {
		passwords.CacheGlobalPassword(cfg.GlobalPassword)
	}
	store := storage.NewStore(cfg.DataDir, passwords, loggerClient)
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	ratingsCfg, err := ratings.NewLoader(cfg.RatingsFile).Load()
	if err != nil {
		return nil, err
	}
	registry := ratings.NewRegistry(ratingsCfg)

	var dirCrawler *crawler.Crawler
	if cfg.DescribeFileTypes {
		dirCrawler = crawler.New(describe.New(cfg.DescribeMaxBytes), loggerClient)
	} else {
		dirCrawler = crawler.New(nil, loggerClient)
	}

	// Redis only backs the audit trail: failing to reach it is not fatal
	memory := audit.NewMemorySink(cfg.AuditRecentLimit)
	sinks := audit.Multi{memory}
	var redisClient *goredis.Client
	if cfg.RedisEnabled() {
		redisClient, err = redis.Connect(ctx, redis.OptionsFromConfig(cfg), loggerClient)
		if err != nil {
			loggerClient.Warn("redis unavailable, audit history kept in memory only",
				logger.Error(err))
			redisClient = nil
		} else {
			rs := redisstore.NewStore(redisClient, cfg.AuditRecentLimit)
			if err := scheduler.NewAuditSyncer(rs, memory, loggerClient).Sync(ctx); err != nil {
				loggerClient.Warn("failed to sync audit history from redis",
					logger.Error(err))
			}
			sinks = append(sinks, audit.NewRedisSink(rs, loggerClient))
		}
	}
	sinks = append(sinks, audit.NewLogSink(loggerClient))

	eng := engine.New(engine.Options{
		Store:   store,
		Crawler: dirCrawler,
		Audit:   sinks,
		Ratings: registry,
	}, loggerClient)

	roots, failures, err := eng.LoadAllCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	for _, f := range failures {
		if errors.Is(f.Err, domain.ErrDecryptionFailed) {
			loggerClient.Info("category stays locked until unlocked",
				logger.String("category", f.Name))
			continue
		}
		loggerClient.Error("failed to load category",
			logger.String("path", f.Path),
			logger.Error(f.Err))
	}
	warnOrphanedRatings(roots, registry, loggerClient)

	refreshTrigger := make(chan struct{}, 1)
	refresher := scheduler.NewAutoRefresher(eng, loggerClient, cfg.AutoRefreshInterval, refreshTrigger)
	checker := scheduler.NewLinkChecker(eng, loggerClient, cfg.LinkCheckInterval, cfg.LinkCheckTimeout)

	d := deps.Deps{
		Logger:           loggerClient,
		StartTime:        time.Now(),
		Version:          version.Version,
		Commit:           version.Commit,
		BuildDate:        version.BuildDate,
		GoVersion:        version.GoVersion,
		TimeNow:          time.Now,
		AllowedHosts:     cfg.AllowedHosts,
		AllowedCIDRS:     cfg.AllowedCIDRS,
		TrustProxy:       cfg.TrustProxy,
		Engine:           eng,
		RedisClient:      redisClient,
		RefreshTrigger:   refreshTrigger,
		UnlockRatePerMin: cfg.UnlockRatePerMin,
		RequestTimeout:   cfg.RequestTimeout,
		CatalogOpTimeout: cfg.CatalogOpTimeout,
		AuditRecentLimit: cfg.AuditRecentLimit,
	}

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		engine:      eng,
		server:      httpserver.New(cfg, loggerClient, d),
		redisClient: redisClient,
		refresher:   refresher,
		checker:     checker,
	}, nil
}

// Engine exposes the loaded engine to one-shot commands.
func (a *App) Engine() *engine.Engine { return a.engine }

// Run starts the schedulers and the HTTP server and blocks until SIGINT or
// SIGTERM.
func (a *App) Run() error {
	a.logger.Infof("🚀 Starting Shelf v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("Shelf %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// Startup refresh can take a while, the server answers meanwhile
	if err := a.refresher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start auto refresher: %w", err)
	}
	a.logger.Info("auto refresher started",
		logger.Duration("interval", a.cfg.AutoRefreshInterval))

	if err := a.checker.Start(ctx); err != nil {
		return fmt.Errorf("failed to start link checker: %w", err)
	}

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	a.refresher.Stop()
	a.checker.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	a.Close()
	a.logger.Info("✅ Shelf stopped cleanly")
	return nil
}

// Close releases the redis connection, if any.
func (a *App) Close() {
	if a.redisClient == nil {
		return
	}
	if err := a.redisClient.Close(); err != nil {
		a.logger.Warnf("failed to close redis: %v", err)
	} else {
		a.logger.Info("✅ Redis closed cleanly")
	}
	a.redisClient = nil
}

func warnOrphanedRatings(roots []*tree.Node, reg *ratings.Registry, log logger.Logger) {
	for _, root := range roots {
		root.Walk(func(n *tree.Node) bool {
			if l := n.Link(); l != nil {
				for _, key := range reg.Orphaned(l.Ratings) {
					log.Warn("rating has no template",
						logger.String("link", l.Title),
						logger.String("rating", key))
				}
			}
			return true
		})
	}
}
