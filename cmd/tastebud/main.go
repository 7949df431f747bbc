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
	"github.com/prometheus/client_golang/prometheus"

	"tastebud/internal/api"
	"tastebud/pkg/auth"
	"tastebud/pkg/cache"
	"tastebud/pkg/config"
	"tastebud/pkg/core"
	"tastebud/pkg/db"
	"tastebud/pkg/db/maintenance"
	"tastebud/pkg/gateway"
	"tastebud/pkg/logging"
	"tastebud/pkg/metrics"
	"tastebud/pkg/places"
	"tastebud/pkg/probe"
	"tastebud/pkg/request"
	"tastebud/pkg/store"
	"tastebud/pkg/tracker"
	"tastebud/pkg/version"
)

const defaultConfigPath = "configs/tastebud.yaml"

func main() {
	initConfig := flag.Bool("init-config", false, "Generate default config file and exit")
	configPath := flag.String("config", defaultConfigPath, "Path to the config file")
	flag.Parse()

	// Handle --init-config flag
	if *initConfig {
		if err := config.GenerateDefault(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Config file generated:", *configPath)
		return
	}

	// Secrets may come from a local .env; a missing file is fine.
	_ = godotenv.Load()

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

	logCleanup, err := logging.Init(&appCfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logCleanup()

	slog.Info("Tastebud Started", "version", version.Version, "db_driver", appCfg.DB.Driver)

	st, err := initStore(ctx, appCfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := maintenance.Run(ctx, st, time.Now()); err != nil {
		slog.Error("Maintenance tasks failed", "error", err)
	}

	tr := tracker.New()
	prometheus.MustRegister(metrics.NewTrackerCollector(tr))

	reqClient := request.New(tr, time.Duration(appCfg.Request.Timeout))
	placesClient := places.NewClient(appCfg.Places.BaseURL, appCfg.Places.APIKey, reqClient)
	verifier := auth.NewSupabaseVerifier(appCfg.Auth.URL, appCfg.Auth.AnonKey, reqClient, time.Duration(appCfg.Auth.CacheTTL))
	queryCache := cache.New(st, time.Duration(appCfg.Cache.TTL), nil)
	gw := gateway.New(placesClient, queryCache, st, tr, gateway.Options{
		RejectZeroCoordinates: appCfg.Places.RejectZeroCoordinates,
		Coalesce:              appCfg.Cache.Coalesce,
	})

	// Startup Probes
	probes := []probe.Probe{
		probe.Database(st),
		probe.BaseURL("Auth URL", appCfg.Auth.URL, true),
		probe.Setting("Auth anon key", appCfg.Auth.AnonKey),
		probe.BaseURL("Places URL", appCfg.Places.BaseURL, true),
		probe.Setting("Foursquare API key", appCfg.Places.APIKey),
	}
	if err := probe.AnalyzeResults(probe.Run(ctx, probes)); err != nil {
		return fmt.Errorf("startup checks failed: %w", err)
	}

	sched := core.NewScheduler(core.DefaultTick, nil)
	sched.AddJob(core.NewCacheSweepJob(queryCache, time.Duration(appCfg.Cache.SweepInterval)))
	go sched.Start(ctx)

	srv := api.NewServer(appCfg.Server.Address, api.Handlers{
		Auth:        api.NewAuthenticator(verifier),
		Restaurants: api.NewRestaurantHandler(gw),
		Posts:       api.NewPostHandler(st, nil),
		Social:      api.NewSocialHandler(st, nil),
		Profiles:    api.NewProfileHandler(st, nil),
		Stats:       api.NewStatsHandler(tr),
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	return runServerLifecycle(ctx, srv, quit)
}

func initStore(ctx context.Context, appCfg *config.Config) (store.Store, error) {
	switch appCfg.DB.Driver {
	case "postgres":
		pool, err := db.OpenPostgres(ctx, appCfg.DB.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		return store.NewPostgresStore(pool), nil
	default:
		dbConn, err := db.Init(appCfg.DB.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		return store.NewSQLiteStore(dbConn), nil
	}
}

func runServerLifecycle(ctx context.Context, srv *http.Server, quit chan os.Signal) error {
	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("Starting server", "addr", srv.Addr)
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
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	slog.Info("Server stopped")
	return nil
}
