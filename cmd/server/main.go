// Robux purchase bot: chat-driven purchase flow with Mercado Pago checkout.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/proliferam/teste-mercado-pago/internal/api"
	"github.com/proliferam/teste-mercado-pago/internal/config"
	"github.com/proliferam/teste-mercado-pago/internal/discord"
	"github.com/proliferam/teste-mercado-pago/internal/ledger"
	"github.com/proliferam/teste-mercado-pago/internal/mercadopago"
	"github.com/proliferam/teste-mercado-pago/internal/middleware"
	"github.com/proliferam/teste-mercado-pago/internal/monitor"
	"github.com/proliferam/teste-mercado-pago/internal/purchase"
	"github.com/proliferam/teste-mercado-pago/internal/roblox"
	"github.com/proliferam/teste-mercado-pago/internal/store"
	"github.com/proliferam/teste-mercado-pago/internal/ui"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment())

	// Initialize dependencies.
	orderLedger, err := ledger.NewSQLite(cfg.LedgerPath)
	if err != nil {
		slog.Error("Failed to initialize order ledger", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := orderLedger.Close(); closeErr != nil {
			slog.Error("Failed to close order ledger", "error", closeErr)
		}
	}()

	if err := orderLedger.Ping(context.Background()); err != nil {
		slog.Error("Order ledger health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Order ledger connected", "path", cfg.LedgerPath)

	robloxClient := roblox.New(roblox.Config{SecurityCookie: cfg.RobloxCookie})
	mpClient := mercadopago.New(mercadopago.Config{
		AccessToken: cfg.MPAccessToken,
		BackBase:    cfg.BaseURL,
		APIBase:     cfg.MPAPIBase,
	})
	messenger := discord.New(discord.Config{
		BotToken: cfg.DiscordToken,
		APIBase:  cfg.DiscordAPIBase,
	})
	renderer := ui.New()

	// Wire the purchase flow.
	sessions := store.New()
	reaper := purchase.NewReaper(cfg.SessionTTL)
	defer reaper.Stop()

	machine := purchase.NewMachine(sessions, robloxClient, robloxClient, mpClient, renderer, messenger, reaper)
	reaper.OnExpire(machine.Expire)

	hub := monitor.NewHub(cfg.IsDevelopment())
	machine.SetSink(hub)

	reconciler := purchase.NewReconciler(sessions, mpClient, machine, orderLedger)

	handler := api.NewHandler(machine, reconciler, renderer, orderLedger)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS([]string{"*"}))

	handler.RegisterRoutes(r)

	// WebSocket endpoint for operator dashboards.
	r.Get("/ws/monitor", hub.ServeHTTP)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Idle session reaper armed", "session_ttl", cfg.SessionTTL)

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
