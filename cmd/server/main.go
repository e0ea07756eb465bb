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

	"github.com/iconidentify/shortsrelay/internal/api"
	"github.com/iconidentify/shortsrelay/internal/api/handler"
	"github.com/iconidentify/shortsrelay/internal/config"
	"github.com/iconidentify/shortsrelay/internal/downloader"
	"github.com/iconidentify/shortsrelay/internal/fetcher"
	"github.com/iconidentify/shortsrelay/internal/repository"
	"github.com/iconidentify/shortsrelay/internal/service"
	"github.com/iconidentify/shortsrelay/internal/worker"
	"github.com/iconidentify/shortsrelay/pkg/ffmpeg"
	"github.com/iconidentify/shortsrelay/pkg/telegram"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Path to config file")
	showVersion := flag.Bool("version", false, "Show version and exit")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	if *showVersion {
		fmt.Printf("shortsrelay %s (built %s)\n", Version, BuildTime)
		os.Exit(0)
	}

	// Setup logger
	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	logger.Info("starting shortsrelay",
		"version", Version,
		"build_time", BuildTime,
	)

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(cfg.Storage.DownloadDir, 0755); err != nil {
		logger.Error("failed to create download directory", "error", err)
		os.Exit(1)
	}

	// Initialize dependencies
	jobRepo := repository.NewInMemoryJobRepository()
	limiter := worker.NewLimiter(cfg.Worker.MaxConcurrent)

	mediaFetcher, err := fetcher.New(cfg.Fetcher, cfg.Storage.DownloadDir, logger)
	if err != nil {
		logger.Error("failed to create fetcher", "error", err)
		os.Exit(1)
	}

	dl := downloader.NewHTTPDownloader(cfg.Download)
	dl.SetLogger(logger)

	tg := telegram.NewClient(telegram.Config{
		Token:          cfg.Telegram.Token,
		APIEndpoint:    cfg.Telegram.APIEndpoint,
		RequestTimeout: cfg.Telegram.RequestTimeout,
		UploadTimeout:  cfg.Telegram.UploadTimeout,
	}, logger)

	if cfg.Relay.ProbeEnabled {
		prober, err := ffmpeg.NewProber()
		if err != nil {
			logger.Warn("video probing disabled", "error", err)
		} else {
			tg.SetProber(prober)
		}
	}

	relaySvc := service.NewRelayService(
		limiter,
		mediaFetcher,
		dl,
		tg,
		jobRepo,
		cfg.Relay,
		cfg.Worker,
		logger,
	)

	pool := worker.NewPool(logger)

	// Initialize handlers
	webhookHandler := handler.NewWebhookHandler(pool, relaySvc, logger)
	healthHandler := handler.NewHealthHandler(jobRepo, limiter, cfg.Storage.DownloadDir)
	uiHandler := handler.NewUIHandler()

	// Setup router
	router := api.NewRouter(webhookHandler, healthHandler, uiHandler, cfg.Telegram.Token)

	// Setup HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting HTTP server",
			"addr", srv.Addr,
			"max_concurrent", cfg.Worker.MaxConcurrent,
			"fetcher", cfg.Fetcher.Backend,
		)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	registerWebhook(tg, cfg.Telegram, logger)

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Stop accepting new updates
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	// Let in-flight jobs finish; their files are removed as they unwind
	if err := pool.Stop(cfg.Worker.ShutdownTimeout); err != nil {
		logger.Error("worker pool shutdown error", "error", err, "active", pool.Active())
	}

	logger.Info("shutdown complete")
}

// registerWebhook points the bot at this server when a public URL is configured.
// Failure is logged and startup continues.
func registerWebhook(tg *telegram.Client, cfg config.TelegramConfig, logger *slog.Logger) {
	endpoint := cfg.WebhookEndpoint()
	if endpoint == "" {
		logger.Info("WEBHOOK_URL not set, skipping webhook registration")
		return
	}

	if err := tg.SetWebhook(endpoint); err != nil {
		logger.Error("webhook registration failed", "error", err)
		return
	}
	logger.Info("webhook registered", "base_url", cfg.WebhookURL)
}
