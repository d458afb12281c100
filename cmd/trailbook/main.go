package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"trailbook/internal/api"
	"trailbook/pkg/config"
	"trailbook/pkg/db"
	"trailbook/pkg/logging"
	"trailbook/pkg/probe"
	"trailbook/pkg/session"
	"trailbook/pkg/store"
	"trailbook/pkg/version"
)

var (
	initConfig = flag.Bool("init-config", false, "Generate default config file and exit")
	configPath = flag.String("config", "configs/trailbook.yaml", "Path to config file")
)

func main() {
	flag.Parse()

	// .env is optional; it can override TRAILBOOK_ADDR and friends in dev.
	_ = godotenv.Load()

	if *initConfig {
		if err := config.GenerateDefault(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Config file generated: %s\n", *configPath)
		return
	}

	if err := run(context.Background(), *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL ERROR: Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	appCfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if addr := os.Getenv("TRAILBOOK_ADDR"); addr != "" {
		appCfg.Server.Address = addr
	}

	cleanupLogs, err := logging.Init(&appCfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer cleanupLogs()

	slog.Info("Trailbook Started", "version", version.Version)

	dbConn, st, err := initDB(appCfg)
	if err != nil {
		return err
	}
	defer dbConn.Close()

	if err := os.MkdirAll(appCfg.Media.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create media directory: %w", err)
	}

	results := probe.Run(ctx, []probe.Probe{
		{
			Name:     "Database",
			Check:    func(ctx context.Context) error { return dbConn.PingContext(ctx) },
			Critical: true,
		},
		{
			Name: "Media Directory",
			Check: func(context.Context) error {
				f, err := os.CreateTemp(appCfg.Media.Dir, ".probe-*")
				if err != nil {
					return err
				}
				f.Close()
				return os.Remove(f.Name())
			},
			Critical: false,
		},
	})
	if err := probe.AnalyzeResults(results); err != nil {
		return fmt.Errorf("startup checks failed: %w", err)
	}

	sessionMgr := session.NewManager(appCfg.Playback.SessionTTL.Std(), slog.Default())
	defer sessionMgr.CloseAll()

	sessionCfg := session.Config{
		ResampleInterval: appCfg.Playback.ResampleInterval.Std(),
		BaseInterval:     appCfg.Playback.BaseInterval.Std(),
		FrameInterval:    appCfg.Playback.FrameInterval.Std(),
		SnapRadiusM:      appCfg.Media.SnapRadius.Meters(),
		RevealDuration:   appCfg.Media.RevealDuration.Std(),
	}

	return runServer(ctx, appCfg, st, sessionMgr, sessionCfg)
}

func initDB(appCfg *config.Config) (*db.DB, store.Store, error) {
	dbConn, err := db.Init(appCfg.DB.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return dbConn, store.NewSQLiteStore(dbConn), nil
}

func runServer(ctx context.Context, cfg *config.Config, st store.Store, sessionMgr *session.Manager, sessionCfg session.Config) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	shutdownFunc := func() { quit <- syscall.SIGTERM }

	entryH := api.NewEntryHandler(st, cfg.Chart.Budget)
	replayH := api.NewReplayHandler(ctx, st, sessionMgr, sessionCfg, cfg.Chart.Budget, slog.Default())
	prefsH := api.NewPrefsHandler(st)

	srv := api.NewServer(cfg.Server.Address,
		entryH,
		replayH,
		prefsH,
		cfg.Media.Dir,
		logging.RequestLogger,
		shutdownFunc,
	)

	return runServerLifecycle(ctx, srv, quit)
}

func runServerLifecycle(ctx context.Context, srv *http.Server, quit chan os.Signal) error {
	slog.Info("Starting server", "addr", srv.Addr)
	serverErrors := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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
