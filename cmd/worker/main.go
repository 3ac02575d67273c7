package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"go.temporal.io/sdk/client"
	temporallog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"

	natsadapter "github.com/anupsamy/squadup/internal/adapters/nats"
	"github.com/anupsamy/squadup/internal/bootstrap"
	"github.com/anupsamy/squadup/internal/pkg/config"
	"github.com/anupsamy/squadup/internal/pkg/logging"
	"github.com/anupsamy/squadup/internal/pkg/telemetry"
	"github.com/anupsamy/squadup/internal/workflows"
)

func main() {
	const service = "squadup-worker"

	cfg, err := config.Load(service)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.Setup(cfg.Log.Level, cfg.Log.Format)

	// run returns instead of exiting so its deferred cleanup always runs.
	if err := run(cfg, service, logger); err != nil {
		slog.Error("worker stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, service string, logger *slog.Logger) error {
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

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    temporallog.NewStructuredLogger(logger),
	})
	if err != nil {
		return fmt.Errorf("temporal client: %w", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.MeetingPointWorkflow)
	(&workflows.MeetingPointActivities{MeetingPoints: svc.MeetingPoints}).Register(w)

	// Member updates start or signal the group's workflow.
	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("nats subscriber: %w", err)
	}
	defer sub.Close()

	trigger := workflows.NewTrigger(c, cfg.Temporal.TaskQueue, cfg.Optimizer.MaxIterations)
	if err := sub.SubscribeMemberUpdates(ctx, trigger.HandleMemberUpdated); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	slog.Info("meeting-point worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		return fmt.Errorf("worker: %w", err)
	}
	return nil
}
