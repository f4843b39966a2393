// Package main is the entry point for the API server.
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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/studxhq/studx/internal/api"
	"github.com/studxhq/studx/internal/config"
	"github.com/studxhq/studx/internal/db"
	"github.com/studxhq/studx/internal/feed"
	"github.com/studxhq/studx/internal/health"
	"github.com/studxhq/studx/internal/listing"
	"github.com/studxhq/studx/internal/middleware"
	"github.com/studxhq/studx/internal/privilege"
	"github.com/studxhq/studx/internal/search"
	"github.com/studxhq/studx/internal/source"
	"github.com/studxhq/studx/internal/sponsorship"
)

func main() {
	help := flag.Bool("help", false, "display help message")
	configFile := flag.String("config", "", "path to an optional YAML config file")
	flag.Parse()

	if *help {
		fmt.Println("StudX Listings API Server")
		fmt.Println()
		fmt.Println("Usage: api [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	// Load .env if present; real environments set variables directly.
	_ = godotenv.Load()

	cfg, errs := config.Load(*configFile)
	if len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		}
		os.Exit(1)
	}

	logger := middleware.NewLogger(cfg.Env)
	slog.SetDefault(logger)

	summary := make([]any, 0)
	for key, value := range cfg.LogSummary() {
		summary = append(summary, key, value)
	}
	logger.Info("configuration loaded", summary...)

	startCtx, cancelStart := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelStart()

	conn, err := db.Open(startCtx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error("invalid REDIS_URL", "error", err)
			os.Exit(1)
		}
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()

		if err := redisClient.Ping(startCtx).Err(); err != nil {
			// The sponsorship cache fails open, so a down Redis only
			// costs repeated slot lookups.
			logger.Warn("redis unreachable at startup, continuing without cache", "error", err)
		}
	}

	adapters := make([]source.Adapter, 0, len(listing.Kinds()))
	for _, kind := range listing.Kinds() {
		adapter, err := source.NewPostgresAdapter(conn, kind)
		if err != nil {
			logger.Error("failed to build source adapter", "kind", string(kind), "error", err)
			os.Exit(1)
		}
		adapters = append(adapters, adapter)
	}
	sources := source.NewSet(adapters...)

	var privileges privilege.Map
	if cfg.PrivilegeFile != "" {
		privileges, err = privilege.Load(cfg.PrivilegeFile)
		if err != nil {
			logger.Warn("failed to load privilege registry, continuing without badges",
				"path", cfg.PrivilegeFile, "error", err)
			privileges = privilege.Map{}
		}
	}

	weights := search.DefaultWeights()
	if cfg.CalibrationFile != "" {
		calibration, err := search.LoadCalibration(cfg.CalibrationFile)
		if err != nil {
			logger.Warn("failed to load ranking calibration, using defaults",
				"path", cfg.CalibrationFile, "error", err)
		} else {
			weights = search.MergeCalibration(weights, calibration)
		}
	}

	aggregator := feed.New(sources, feed.Options{
		AdapterTimeout: cfg.SourceTimeout(),
		Privileges:     privileges,
	})

	slotStore := sponsorship.NewPostgresSlotStore(conn)
	legacyStore := sponsorship.NewPostgresLegacyStore(conn)
	resolver := sponsorship.NewResolver(slotStore, sources, cfg.SourceTimeout())

	var sponsored search.SponsoredProvider = resolver
	if redisClient != nil {
		sponsored = sponsorship.NewCachedResolver(resolver, redisClient, sponsorship.DefaultCacheTTL)
	}

	searchService := search.NewService(aggregator, sponsored, weights, privileges)
	featuredService := sponsorship.NewFeaturedService(
		&sponsorship.SlotStrategy{Resolver: resolver},
		&sponsorship.LegacyStrategy{Store: legacyStore, Resolver: resolver},
	)

	metrics := middleware.NewMetrics()
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if err := metrics.Register(registry); err != nil {
		logger.Error("failed to register metrics", "error", err)
		os.Exit(1)
	}

	feedHandlers := api.NewFeedHandlers(aggregator, cfg.DefaultPageSize, cfg.MaxPageSize)
	searchHandlers := api.NewSearchHandlers(searchService)
	featuredHandlers := api.NewFeaturedHandlers(featuredService)
	listingHandlers := api.NewListingHandlers(aggregator, cfg.DefaultPageSize, cfg.MaxPageSize)

	healthConfig := api.HealthHandlersConfig{DBChecker: health.NewDBChecker(conn)}
	if redisClient != nil {
		healthConfig.RedisChecker = health.NewRedisChecker(redisClient)
	}
	healthHandlers := api.NewHealthHandlers(healthConfig)

	mux := http.NewServeMux()
	mux.HandleFunc("/feed", feedHandlers.Feed)
	mux.HandleFunc("/search", searchHandlers.Search)
	mux.HandleFunc("/featured", featuredHandlers.Featured)
	mux.HandleFunc("/listings/similar", listingHandlers.Similar)
	mux.HandleFunc("/listings/seller", listingHandlers.Seller)
	mux.HandleFunc("/health", healthHandlers.Health)
	mux.HandleFunc("/ready", healthHandlers.Ready)
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		// Only handle exact root path, everything else returns 404
		if r.URL.Path != "/" {
			ctx := middleware.SetErrorCode(r.Context(), api.ErrCodeNotFound)
			api.WriteError(w, ctx, http.StatusNotFound, api.ErrCodeNotFound, "The requested resource was not found")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"service":"studx-api","version":"0.1.0"}`)); err != nil {
			slog.Error("failed to write response", "error", err)
		}
	})

	// Apply middleware: RequestID -> Logging -> HTTPMetrics
	handler := middleware.RequestID(middleware.Logging(logger)(middleware.HTTPMetrics(metrics)(mux)))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting server", "port", cfg.Port, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
