package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/anupsamy/squadup/internal/adapters/http"
	natsadapter "github.com/anupsamy/squadup/internal/adapters/nats"
	"github.com/anupsamy/squadup/internal/bootstrap"
	"github.com/anupsamy/squadup/internal/pkg/config"
	"github.com/anupsamy/squadup/internal/pkg/logging"
	"github.com/anupsamy/squadup/internal/pkg/telemetry"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	const service = "squadup-api"

	cfg, err := config.Load(service)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	// run returns instead of exiting so its deferred cleanup always runs.
	if err := run(cfg, service); err != nil {
		slog.Error("api stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, service string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	svc, err := bootstrap.Build(ctx, cfg, service)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	defer svc.Close()

	go svc.DB.ReportPoolStats(ctx, 15*time.Second)

	deps := &http.Dependencies{
		Groups:        svc.Groups,
		MeetingPoints: svc.MeetingPoints,
		Venues:        svc.Venues,
		DB:            svc.DB,
		Version:       version,
	}
	if svc.Cache != nil {
		deps.Cache = svc.Cache
	}

	// Raw NATS connection for the WebSocket relay
	if natsConn, err := natsadapter.RawConn(cfg.NATS.URL); err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	} else {
		deps.NATS = natsConn
		defer natsConn.Close()
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:           time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:          time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:             256 * 1024,
		AppName:               "SquadUp API",
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowOrigins,
		AllowMethods:     "GET,POST,PUT,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	listenErr := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "version", version)
		listenErr <- app.Listen(addr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		slog.Info("shutdown signal received, draining connections...", "signal", sig.String())
	case err := <-listenErr:
		return fmt.Errorf("listen: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
	return nil
}
