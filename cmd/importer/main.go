package main

import (
	"context"
	"log"
	"log/slog"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	badgerstore "github.com/angrychow/train-ticket/internal/adapters/badger"
	natsadapter "github.com/angrychow/train-ticket/internal/adapters/nats"
	"github.com/angrychow/train-ticket/internal/adapters/postgres"
	"github.com/angrychow/train-ticket/internal/core/ports"
	"github.com/angrychow/train-ticket/internal/core/usecases"
	"github.com/angrychow/train-ticket/internal/pkg/config"
	"github.com/angrychow/train-ticket/internal/pkg/logging"
	"github.com/angrychow/train-ticket/internal/workflows"
)

func main() {
	cfg, err := config.Load("ts-travel-importer")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx := context.Background()

	var trips ports.TripRepository
	switch cfg.Store.Driver {
	case "badger":
		db, err := badgerstore.Open(cfg.Store.BadgerPath)
		if err != nil {
			log.Fatalf("badger: %v", err)
		}
		defer db.Close()
		trips = badgerstore.NewTripRepo(db)
	default:
		db, err := postgres.New(ctx, cfg.Database.DSN(), 0)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()
		trips = postgres.NewTripRepo(db)
	}

	// Imported trips announce themselves like any other create
	var publisher ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, trip events disabled", "error", err)
	} else {
		defer pub.Close()
		publisher = pub
	}

	// Connect to Temporal
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	taskQueue := cfg.Temporal.TaskQueue
	if taskQueue == "" {
		taskQueue = workflows.TaskQueue
	}
	w := worker.New(c, taskQueue, worker.Options{})

	// Register workflow & activities; the gateway is not needed for writes
	w.RegisterWorkflow(workflows.TripImportWorkflow)
	w.RegisterActivity(&workflows.TripActivities{
		Travel: usecases.NewTravelService(trips, nil, publisher),
	})

	slog.Info("importer worker started", "task_queue", taskQueue, "store", cfg.Store.Driver)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
