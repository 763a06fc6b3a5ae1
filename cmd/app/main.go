package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"tradedesk_go/internal/app"
	"tradedesk_go/internal/infra/stream"

	"github.com/joho/godotenv"

	_ "net/http/pprof" // For pprof profiling
)

func main() {
	// 0. Local overrides (.env is optional)
	_ = godotenv.Load()

	// 1. Pprof Server (for performance profiling)
	go func() {
		// Localhost only for security
		slog.Info("🕵️ Pprof server started on localhost:6060")
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			slog.Error("Pprof server failed", slog.Any("error", err))
		}
	}()

	// 2. Graceful Shutdown Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. System Bootstrapping
	bootstrap := app.NewBootstrap()
	onSessionExpired := func() {
		slog.Warn("🔒 Session expired, sign in again")
	}
	if err := bootstrap.Initialize(onSessionExpired); err != nil {
		slog.Error("❌ Bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer bootstrap.Shutdown()

	// 4. Query cache sweep + market freshness loop
	bootstrap.QueryCache.Start(ctx)
	if err := bootstrap.Market.Start(ctx); err != nil {
		slog.Error("Failed to start market service", slog.Any("error", err))
	}

	// 5. Background Asset Sync (Loading Screen logic)
	go bootstrap.SyncAssets(ctx)

	// 6. Live price stream (optional)
	cfg := bootstrap.Config
	if cfg.Stream.URL != "" && len(cfg.Stream.Symbols) > 0 {
		worker := stream.NewWorker(cfg.Stream.URL, cfg.Stream.Symbols, bootstrap.Market.ApplyQuote)
		if err := worker.Connect(ctx); err != nil {
			slog.Error("Failed to connect live stream", slog.Any("error", err))
		}
		defer worker.Disconnect()
		slog.InfoContext(ctx, "✅ Live stream started", slog.Int("symbols", len(cfg.Stream.Symbols)))
	}

	slog.InfoContext(ctx, "✨ TradeDesk fully operational. Press Ctrl+C to exit.")

	// Wait for shutdown signal
	<-ctx.Done()

	slog.InfoContext(ctx, "👋 Shutting down gracefully...")
}
