package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/your-org/footwatch/internal/api"
	"github.com/your-org/footwatch/internal/api/handlers"
	"github.com/your-org/footwatch/internal/api/ws"
	"github.com/your-org/footwatch/internal/config"
	"github.com/your-org/footwatch/internal/matching"
	"github.com/your-org/footwatch/internal/models"
	"github.com/your-org/footwatch/internal/observability"
	"github.com/your-org/footwatch/internal/queue"
	"github.com/your-org/footwatch/internal/scan"
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

	slog.Info("starting footwatch API service", "port", cfg.Server.Port)

	// Connect to Postgres
	db, err := storage.NewPostgresStore(cfg.Database)
	if err != nil {
		slog.Error("connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(context.Background()); err != nil {
		slog.Error("apply migrations", "error", err)
		os.Exit(1)
	}

	// Connect to MinIO
	minioStore, err := storage.NewMinIOStore(cfg.MinIO)
	if err != nil {
		slog.Error("connect to minio", "error", err)
		os.Exit(1)
	}
	if err := minioStore.EnsureBucket(context.Background()); err != nil {
		slog.Warn("ensure minio bucket", "error", err)
	}

	// Connect to NATS
	producer, err := queue.NewProducer(cfg.NATS.URL, cfg.NATS.ControlSubject)
	if err != nil {
		slog.Error("connect to nats", "error", err)
		os.Exit(1)
	}
	defer producer.Close()

	if err := producer.EnsureStreams(context.Background()); err != nil {
		slog.Warn("ensure nats streams", "error", err)
	}

	// WebSocket hub
	hub := ws.NewHub()
	go hub.Run()

	consumer, err := queue.NewConsumer(cfg.NATS.URL)
	if err != nil {
		slog.Error("create event consumer", "error", err)
		os.Exit(1)
	}
	defer consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err = consumer.ConsumeMatchEvents(ctx, "api-match-events", func(ctx context.Context, msg jetstream.Msg) error {
		var evt models.MatchEvent
		if err := json.Unmarshal(msg.Data(), &evt); err != nil {
			slog.Warn("unmarshal match event", "error", err)
			return nil
		}
		hub.BroadcastEvent(handlers.ToWSEvent(evt))
		return nil
	})
	if err != nil {
		slog.Warn("start match event consumer", "error", err)
	}

	matcher := matching.NewMatcher(db, cfg.Matching.MinScore)

	// Synchronous scans (assign, reprocess) need the vision stack. Without it
	// the API hands them to the worker.
	var scanner handlers.Scanner
	if err := vision.InitRuntime(); err != nil {
		slog.Warn("onnx runtime unavailable, scans deferred to worker", "error", err)
	} else {
		defer vision.DestroyRuntime()
		pipeline, err := vision.NewPipeline(cfg.Vision, nil)
		if err != nil {
			slog.Warn("vision pipeline unavailable, scans deferred to worker", "error", err)
		} else {
			defer pipeline.Close()
			scanner = scan.NewRunner(db, minioStore, pipeline, producer, scan.Options{
				TempDir:        cfg.Vision.TempDir,
				MaxScanSeconds: cfg.Vision.MaxScanSeconds,
			})
			slog.Info("vision pipeline ready for API scans")
		}
	}

	router := api.NewRouter(api.RouterConfig{
		APIKey:   cfg.Server.APIKey,
		DB:       db,
		Blob:     minioStore,
		Matcher:  matcher,
		Scanner:  scanner,
		Control:  producer,
		Hub:      hub,
		DBPing:   db,
		BlobPing: minioStore,
		NATSPing: producer,
	})

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:     router,
		ReadTimeout: 30 * time.Second,
		// Assign and reprocess scan in the request.
		WriteTimeout: 35 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("API server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down API server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("API server stopped")
}
