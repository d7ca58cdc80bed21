package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/mjsgreen01/Instatrip/internal/adapters/http"
	natsadapter "github.com/mjsgreen01/Instatrip/internal/adapters/nats"
	"github.com/mjsgreen01/Instatrip/internal/adapters/providers"
	"github.com/mjsgreen01/Instatrip/internal/adapters/valkey"
	"github.com/mjsgreen01/Instatrip/internal/core/ports"
	"github.com/mjsgreen01/Instatrip/internal/core/usecases"
	"github.com/mjsgreen01/Instatrip/internal/pkg/config"
	"github.com/mjsgreen01/Instatrip/internal/pkg/logging"
	"github.com/mjsgreen01/Instatrip/internal/pkg/telemetry"
)

func main() {
	var level atomic.Pointer[slog.LevelVar]

	cfg, err := config.LoadAndWatch("instatrip-api", func(next *config.Config) {
		if lv := level.Load(); lv != nil {
			lv.Set(logging.ParseLevel(next.Log.Level))
			slog.Info("log level changed", "level", next.Log.Level)
		}
	})
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	level.Store(logging.Setup(cfg.Log.Level, cfg.Log.Format))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Cache. A nil *valkey.Cache must not leak into the interface.
	var routeCache ports.CacheService
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable, routes will not be cached", "error", err)
	} else {
		defer cache.Close()
		routeCache = cache
	}

	// NATS
	var publisher ports.EventPublisher
	nc, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, async trips disabled", "error", err)
	} else {
		defer nc.Close()
		publisher = nc
	}

	// Raw NATS connection for WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	} else {
		defer natsConn.Close()
	}

	// Use cases
	aggregator := usecases.NewPhotoAggregator(
		providers.Photos(cfg), cfg.Photos.SearchRadiusMeters, cfg.Photos.CallTimeout)
	tripSvc := usecases.NewTripService(
		providers.Routes(cfg), aggregator, routeCache, publisher, cfg.Cache.RouteTTLSeconds)

	deps := &http.Dependencies{
		Trips: tripSvc,
		NATS:  natsConn,
		Cache: cache,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    64 * 1024,
		AppName:      "Instatrip API",
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173",
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "route_provider", cfg.RouteProvider)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// In-flight plans are bounded by the photo call timeout, well inside 10s.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
