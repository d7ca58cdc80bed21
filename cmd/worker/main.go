package main

import (
	"context"
	"log"
	"log/slog"

	"go.temporal.io/sdk/client"
	tlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"

	natsadapter "github.com/mjsgreen01/Instatrip/internal/adapters/nats"
	"github.com/mjsgreen01/Instatrip/internal/adapters/providers"
	"github.com/mjsgreen01/Instatrip/internal/core/ports"
	"github.com/mjsgreen01/Instatrip/internal/pkg/config"
	"github.com/mjsgreen01/Instatrip/internal/pkg/logging"
	"github.com/mjsgreen01/Instatrip/internal/pkg/telemetry"
	"github.com/mjsgreen01/Instatrip/internal/workflows"
)

func main() {
	cfg, err := config.Load("instatrip-worker")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

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

	// Connect to Temporal
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    tlog.NewStructuredLogger(slog.Default()),
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	// Planned trips are published back for the WebSocket relay.
	var publisher ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats publisher: %v", err)
	}
	defer pub.Close()
	publisher = pub

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	// Register workflow & activities
	w.RegisterWorkflow(workflows.TripWorkflow)
	w.RegisterActivity(&workflows.TripActivities{
		Routes:             providers.Routes(cfg),
		Photos:             providers.Photos(cfg),
		Publisher:          publisher,
		SearchRadiusMeters: cfg.Photos.SearchRadiusMeters,
	})

	// Trip requests queued by the API start one workflow each.
	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats subscriber: %v", err)
	}
	defer sub.Close()

	starter := &workflows.Starter{Client: c, TaskQueue: cfg.Temporal.TaskQueue}
	if err := sub.SubscribeTripRequests(ctx, starter.Start); err != nil {
		log.Fatalf("subscribe trip requests: %v", err)
	}

	slog.Info("trip worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
