package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/web3-frozen/llama-sentinel/internal/config"
	"github.com/web3-frozen/llama-sentinel/internal/handler"
	"github.com/web3-frozen/llama-sentinel/internal/middleware"
	"github.com/web3-frozen/llama-sentinel/internal/monitor"
	"github.com/web3-frozen/llama-sentinel/internal/monitor/sources"
	"github.com/web3-frozen/llama-sentinel/internal/notify"
	"github.com/web3-frozen/llama-sentinel/internal/store"
	"github.com/web3-frozen/llama-sentinel/internal/telegram"
)

func main() {
	// A missing .env is normal in containers.
	_ = godotenv.Load()
	cfg := config.Load()

	var out io.Writer = os.Stdout
	if cfg.LogFile != "" {
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    50, // MB
			MaxBackups: 5,
			MaxAge:     14, // days
			Compress:   true,
		})
	}
	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	scanCfg, err := config.LoadScanConfig(cfg.ScanConfigFile)
	if err != nil {
		logger.Error("invalid scan config", "error", err)
		os.Exit(1)
	}
	if cfg.TelegramToken == "" {
		logger.Error("TELEGRAM_BOT_TOKEN is required")
		os.Exit(1)
	}
	if cfg.TelegramChatID == "" {
		logger.Error("TELEGRAM_CHAT_ID is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Signal store. It connects in the background so liveness is answered
	// from the start; any failure leaves the server up in degraded mode.
	db := store.NewDeferred()
	defer db.Close()

	bot := telegram.NewBot(cfg.TelegramToken, logger)

	engine := monitor.NewEngine(monitor.Options{
		Feed:     sources.NewDefiLlama(cfg.FeedURL),
		Store:    db,
		Notifier: notify.NewTelegram(bot, cfg.TelegramChatID),
		Config:   scanCfg,
		Logger:   logger,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      newRouter(cfg.FrontendOrigin, db, engine, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	engineDone := make(chan struct{})
	go func() {
		defer close(engineDone)
		db.Set(openStore(ctx, cfg.StoreCredentials, logger))
		if ctx.Err() != nil {
			return
		}
		engine.Run(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down gracefully")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)

	select {
	case <-engineDone:
	case <-shutdownCtx.Done():
		logger.Warn("scan still running at shutdown deadline")
	}
}

func newRouter(origin string, db store.Store, engine handler.ScanStatus, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics("/", "/metrics", "/healthz"))
	r.Use(middleware.CORS(origin))

	r.Get("/", handler.Liveness())
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", handler.Health())
	r.Get("/readyz", handler.Ready(db))

	r.Route("/api", func(r chi.Router) {
		r.Get("/signals", handler.ListSignals(db, logger))
		r.Get("/stats", handler.Stats(engine))
	})
	return r
}

// Store connection retries, long enough for secrets to sync.
var (
	storeAttempts  = 6
	storeRetryWait = 5 * time.Second
)

// openStore connects the configured backend, retrying while it is not yet
// reachable. It never fails: on error or cancellation it returns a store
// whose every call reports the cause.
func openStore(ctx context.Context, raw string, logger *slog.Logger) store.Store {
	creds, err := config.ParseStoreCredentials(raw)
	if err != nil {
		logger.Error("store credentials unusable, running degraded", "error", err)
		return store.NewUnavailable(err)
	}

	for i := 0; i < storeAttempts; i++ {
		var db store.Store
		db, err = store.Open(ctx, creds)
		if err == nil {
			logger.Info("signal store connected", "backend", creds.Backend)
			return db
		}
		logger.Warn("signal store not ready, retrying...", "backend", creds.Backend, "attempt", i+1, "error", err)

		select {
		case <-ctx.Done():
			return store.NewUnavailable(ctx.Err())
		case <-time.After(storeRetryWait):
		}
	}
	logger.Error("signal store unreachable, running degraded", "backend", creds.Backend, "error", err)
	return store.NewUnavailable(err)
}
