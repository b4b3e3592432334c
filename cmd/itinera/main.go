package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"itinera/internal/api"
	"itinera/pkg/apisession"
	"itinera/pkg/cache"
	"itinera/pkg/catalog"
	"itinera/pkg/config"
	"itinera/pkg/db"
	"itinera/pkg/db/maintenance"
	"itinera/pkg/events"
	"itinera/pkg/geo"
	"itinera/pkg/geometry"
	"itinera/pkg/itinerary"
	"itinera/pkg/llm"
	"itinera/pkg/llm/gemini"
	"itinera/pkg/llm/openai"
	"itinera/pkg/llm/prompts"
	"itinera/pkg/logging"
	"itinera/pkg/pipeline"
	"itinera/pkg/planner"
	"itinera/pkg/probe"
	"itinera/pkg/ratelimit"
	"itinera/pkg/request"
	"itinera/pkg/store"
	"itinera/pkg/tracker"
	"itinera/pkg/version"
)

var (
	configPath = flag.String("config", "configs/itinera.yaml", "Path to the config file")
	initConfig = flag.Bool("init-config", false, "Generate default config file and exit")
	fixtureDir = flag.String("fixtures", "data/catalog", "Directory of catalog fixtures imported at startup")
)

func main() {
	flag.Parse()

	if *initConfig {
		if err := config.GenerateDefault(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Config file generated:", *configPath)
		return
	}

	// Secrets may come from a local .env; a missing file is fine.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Failed to read .env: %v\n", err)
	}

	if err := run(context.Background(), *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL ERROR: Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfgPath string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	appCfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cleanupLogs, err := logging.Init(&appCfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer cleanupLogs()

	slog.Info("Itinera Started", "version", version.Version)

	dbConn, st, err := initDB(appCfg)
	if err != nil {
		return err
	}
	defer dbConn.Close()

	if err := maintenance.Run(ctx, st, dbConn, *fixtureDir); err != nil {
		slog.Error("Maintenance tasks failed", "error", err)
	}

	tr := tracker.New()

	provider, closeProvider, err := initProvider(appCfg, tr)
	if err != nil {
		return err
	}
	defer closeProvider()

	snapshotCache, closeCache, err := initCache(ctx, appCfg, st)
	if err != nil {
		return err
	}
	defer closeCache()

	promptMgr, err := prompts.Default()
	if err != nil {
		return fmt.Errorf("failed to initialize prompt manager: %w", err)
	}

	pub := events.New(appCfg.Events)
	defer func() {
		if err := pub.Close(); err != nil {
			slog.Warn("Event publisher close failed", "error", err)
		}
	}()

	gen := pipeline.NewGenerator(
		catalog.NewLoader(st, snapshotCache, appCfg.Catalog.CacheTTL.Std(), tr),
		planner.NewRequester(provider, promptMgr, tr),
		itinerary.NewMaterializer(nil),
		pub,
	)
	gen.SetPlanTimeout(appCfg.LLM.Timeout.Std())

	resolver, err := initResolver(appCfg)
	if err != nil {
		return err
	}

	probes := []probe.Probe{
		{Name: "Catalog Database", Check: dbConn.PingContext, Critical: true},
		// The server still starts without a planner; generation answers 503.
		{Name: "Planning Service", Check: provider.HealthCheck, Timeout: 15 * time.Second},
	}
	if err := probe.Analyze(probe.Run(ctx, probes)); err != nil {
		return fmt.Errorf("startup checks failed: %w", err)
	}

	return runServer(ctx, appCfg, gen, resolver, tr)
}

func initDB(appCfg *config.Config) (*db.DB, *store.SQLiteStore, error) {
	dbConn, err := db.Init(appCfg.DB.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return dbConn, store.NewSQLiteStore(dbConn), nil
}

func initProvider(appCfg *config.Config, tr *tracker.Tracker) (llm.Provider, func(), error) {
	switch appCfg.LLM.Provider {
	case "openai":
		rc := request.New(tr, appCfg.Request.Timeout.Std(), appCfg.LLM.RPS)
		client, err := openai.NewClient(appCfg.LLM, rc)
		if err != nil {
			rc.Close()
			return nil, nil, fmt.Errorf("failed to initialize openai provider: %w", err)
		}
		return client, rc.Close, nil
	default:
		client, err := gemini.NewClient(appCfg.LLM, appCfg.Log.LLM.Path, tr)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize gemini provider: %w", err)
		}
		return client, client.Close, nil
	}
}

func initCache(ctx context.Context, appCfg *config.Config, st *store.SQLiteStore) (cache.Cacher, func(), error) {
	switch appCfg.Catalog.Cache {
	case "sqlite":
		slog.Info("Catalog cache: sqlite", "ttl", appCfg.Catalog.CacheTTL.Std())
		return cache.NewSQLiteCache(st), func() {}, nil
	case "redis":
		dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		rdb, err := cache.DialRedis(dialCtx, appCfg.Redis.Addr, appCfg.Redis.Password, appCfg.Redis.DB)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", appCfg.Redis.Addr, err)
		}
		slog.Info("Catalog cache: redis", "addr", appCfg.Redis.Addr, "ttl", appCfg.Catalog.CacheTTL.Std())
		return cache.NewRedisCache(rdb, "itinera:"), func() { _ = rdb.Close() }, nil
	default:
		return nil, func() {}, nil
	}
}

func initResolver(appCfg *config.Config) (*geometry.Resolver, error) {
	gaz := geo.Default()
	if path := appCfg.Geometry.Gazetteer; path != "" {
		n, err := gaz.LoadGeoJSON(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load gazetteer overlay: %w", err)
		}
		slog.Info("Gazetteer overlay loaded", "path", path, "features", n)
	}
	return geometry.NewResolver(appCfg.Geometry, gaz), nil
}

func runServer(ctx context.Context, cfg *config.Config, gen *pipeline.Generator, res *geometry.Resolver, tr *tracker.Tracker) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	sessions := apisession.New(cfg.Ledger.SessionTTL.Std(), func() *pipeline.Session {
		return pipeline.NewSession(cfg.Ledger, nil)
	})
	sessions.OnEvict(func(id string, s *pipeline.Session) {
		s.Close()
		slog.Debug("Session closed", "session", id)
	})
	go cleanupLoop(ctx, sessions, time.Minute)

	var limiter *ratelimit.KeyedRateLimiter
	if cfg.RateLimit.GenerateRPS > 0 {
		limiter = ratelimit.New(cfg.RateLimit.GenerateRPS, cfg.RateLimit.GenerateBurst)
		defer limiter.Stop()
	}

	srv := api.NewServer(cfg.Server,
		api.NewSessionHandler(sessions, gen, res, limiter),
		api.NewStatsHandler(tr, sessions.Len),
	)
	return runServerLifecycle(ctx, srv, quit)
}

func cleanupLoop(ctx context.Context, sessions *apisession.Store[pipeline.Session], every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sessions.Cleanup()
		}
	}
}

func runServerLifecycle(ctx context.Context, srv *http.Server, quit chan os.Signal) error {
	slog.Info("Starting server", "addr", srv.Addr)
	serverErrors := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()
	select {
	case <-quit:
		slog.Info("Shutting down server...")
	case <-ctx.Done():
		slog.Info("Context cancelled, shutting down...")
	case err := <-serverErrors:
		return fmt.Errorf("server failed: %w", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
