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

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/your-org/footwatch/internal/config"
	"github.com/your-org/footwatch/internal/control"
	"github.com/your-org/footwatch/internal/matching"
	"github.com/your-org/footwatch/internal/observability"
	"github.com/your-org/footwatch/internal/queue"
	"github.com/your-org/footwatch/internal/scan"
	"github.com/your-org/footwatch/internal/scheduler"
	"github.com/your-org/footwatch/internal/storage"
	"github.com/your-org/footwatch/internal/vision"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	observability.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("starting footwatch scan worker",
		"scheduler", cfg.Scheduler.IsEnabled(),
		"batch_size", cfg.Scheduler.BatchSize,
		"interval", cfg.Scheduler.Interval,
	)

	if err := vision.InitRuntime(); err != nil {
		slog.Error("init onnx runtime", "error", err)
		os.Exit(1)
	}
	defer vision.DestroyRuntime()

	// Connect to Postgres
	db, err := storage.NewPostgresStore(cfg.Database)
	if err != nil {
		slog.Error("connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Connect to MinIO
	minioStore, err := storage.NewMinIOStore(cfg.MinIO)
	if err != nil {
		slog.Error("connect to minio", "error", err)
		os.Exit(1)
	}

	// Connect to NATS
	producer, err := queue.NewProducer(cfg.NATS.URL, cfg.NATS.ControlSubject)
	if err != nil {
		slog.Error("connect to nats producer", "error", err)
		os.Exit(1)
	}
	defer producer.Close()

	if err := producer.EnsureStreams(context.Background()); err != nil {
		slog.Warn("ensure nats streams", "error", err)
	}

	pipeline, err := vision.NewPipeline(cfg.Vision, nil)
	if err != nil {
		slog.Error("init vision pipeline", "error", err)
		os.Exit(1)
	}
	defer pipeline.Close()

	runner := scan.NewRunner(db, minioStore, pipeline, producer, scan.Options{
		TempDir:        cfg.Vision.TempDir,
		MaxScanSeconds: cfg.Vision.MaxScanSeconds,
	})
	matcher := matching.NewMatcher(db, cfg.Matching.MinScore)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var trigger control.Trigger
	var sched *scheduler.Scheduler
	if cfg.Scheduler.IsEnabled() {
		sched = scheduler.New(db, runner, scheduler.Options{
			BatchSize:    cfg.Scheduler.BatchSize,
			Interval:     cfg.Scheduler.Interval,
			ErrorBackoff: cfg.Scheduler.ErrorBackoff,
		})
		sched.Start(ctx)
		trigger = sched
	}

	// Control commands from the upload service and the API
	consumer, err := queue.NewConsumer(cfg.NATS.URL)
	if err != nil {
		slog.Error("create consumer", "error", err)
		os.Exit(1)
	}
	defer consumer.Close()

	commands := control.NewHandler(matcher, trigger)
	sub, err := consumer.SubscribeControl(cfg.NATS.ControlSubject, func(data []byte) {
		commands.HandleMessage(ctx, data)
	})
	if err != nil {
		slog.Error("subscribe control subject", "error", err)
		os.Exit(1)
	}
	defer func() { _ = sub.Unsubscribe() }()

	// Metrics endpoint
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.MetricsPort)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
		slog.Info("worker metrics listening", "addr", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			slog.Error("metrics server error", "error", err)
		}
	}()

	// Periodically report the pending backlog
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				stats, err := db.MatchStats(ctx)
				if err == nil {
					observability.PendingMatches.Set(float64(stats.Pending))
				}
			}
		}
	}()

	// Wait for shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down worker...")
	if sched != nil {
		sched.Stop()
	}
	cancel()
	slog.Info("worker stopped")
}
