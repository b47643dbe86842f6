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
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.temporal.io/sdk/client"

	badgerstore "github.com/angrychow/train-ticket/internal/adapters/badger"
	"github.com/angrychow/train-ticket/internal/adapters/gateway"
	"github.com/angrychow/train-ticket/internal/adapters/http"
	natsadapter "github.com/angrychow/train-ticket/internal/adapters/nats"
	"github.com/angrychow/train-ticket/internal/adapters/postgres"
	"github.com/angrychow/train-ticket/internal/adapters/valkey"
	"github.com/angrychow/train-ticket/internal/core/ports"
	"github.com/angrychow/train-ticket/internal/core/usecases"
	"github.com/angrychow/train-ticket/internal/pkg/config"
	"github.com/angrychow/train-ticket/internal/pkg/logging"
	"github.com/angrychow/train-ticket/internal/pkg/telemetry"
	"github.com/angrychow/train-ticket/internal/pkg/workerpool"
	"github.com/angrychow/train-ticket/internal/workflows"
)

// tripStore is a trip repository the readiness check can ping.
type tripStore interface {
	ports.TripRepository
	http.Pinger
}

func main() {
	cfg, err := config.Load("ts-travel-service")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

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

	// Trip store
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("trip store: %v", err)
	}
	defer closeStore()

	// Downstream services, with station ids cached in valkey when reachable
	var gw ports.Gateway = gateway.New(cfg.Gateway)
	var cached *gateway.CachedGateway
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable, station ids not cached", "error", err)
		cache = nil
	} else {
		defer cache.Close()
		cached = gateway.NewCached(gw, cache, cfg.Valkey.StationTTL)
		gw = cached
	}

	// NATS
	var publisher ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, trip events disabled", "error", err)
	} else {
		defer pub.Close()
		publisher = pub
	}

	if cached != nil {
		sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats subscriber unavailable", "error", err)
		} else {
			defer sub.Close()
			if err := sub.SubscribeStationEvents(ctx, cached.HandleStationEvent); err != nil {
				slog.Warn("subscribe station events", "error", err)
			}
		}
	}

	// Raw NATS connection for WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	} else {
		defer natsConn.Close()
	}

	// Shared pool for parallel availability queries
	pool := workerpool.New(cfg.Query.Workers, cfg.Query.QueueSize)
	defer pool.Close()

	// Use cases
	travelSvc := usecases.NewTravelService(store, gw, publisher)
	querySvc := usecases.NewQueryService(store, gw, usecases.NewOfferBuilder(gw), pool)

	deps := &http.Dependencies{
		Travel:  travelSvc,
		Queries: querySvc,
		NATS:    natsConn,
		Store:   store,
		Cache:   cache,
	}

	// Temporal (batch import)
	if cfg.Temporal.Enabled {
		tc, err := client.Dial(client.Options{
			HostPort:  cfg.Temporal.HostPort,
			Namespace: cfg.Temporal.Namespace,
		})
		if err != nil {
			slog.Warn("temporal unavailable, trip import disabled", "error", err)
		} else {
			defer tc.Close()
			deps.Importer = workflows.NewImporter(tc, cfg.Temporal.TaskQueue)
		}
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    4 * 1024 * 1024, // batch imports can be large
		AppName:      "ts-travel-service",
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "*",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps, http.RouterConfig{
		RequestTimeout: 15 * time.Second,
		RateLimit:      600,
		SpecDir:        "api",
	})

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "store", cfg.Store.Driver, "workers", pool.Size())
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

// openStore opens the trip store selected by store.driver.
func openStore(ctx context.Context, cfg *config.Config) (tripStore, func(), error) {
	switch cfg.Store.Driver {
	case "badger":
		db, err := badgerstore.Open(cfg.Store.BadgerPath)
		if err != nil {
			return nil, nil, err
		}
		return badgerstore.NewTripRepo(db), func() { _ = db.Close() }, nil
	default:
		db, err := postgres.New(ctx, cfg.Database.DSN(), 0)
		if err != nil {
			return nil, nil, err
		}
		return &pgStore{TripRepo: postgres.NewTripRepo(db), db: db}, db.Close, nil
	}
}

// pgStore pairs the postgres trip repository with its pool for readiness.
type pgStore struct {
	*postgres.TripRepo
	db *postgres.DB
}

func (s *pgStore) Ping(ctx context.Context) error { return s.db.Ping(ctx) }
