package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/your-org/footwatch/internal/queue"
	"github.com/your-org/footwatch/internal/scan"
	"github.com/your-org/footwatch/internal/storage"
	"github.com/your-org/footwatch/internal/vision"
)

var scanCmd = &cobra.Command{
	Use:   "scan <match-id>",
	Short: "Scan the footage of one match for the missing person",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScan(args[0], false)
	},
}

var reprocessCmd = &cobra.Command{
	Use:   "reprocess <match-id>",
	Short: "Reset a match to pending and scan it again",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScan(args[0], true)
	},
}

func init() {
	rootCmd.AddCommand(scanCmd, reprocessCmd)
}

func runScan(rawID string, reset bool) error {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return fmt.Errorf("invalid match id %q: %w", rawID, err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Println("Connecting to PostgreSQL...")
	db, err := storage.NewPostgresStore(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer db.Close()

	minioStore, err := storage.NewMinIOStore(cfg.MinIO)
	if err != nil {
		return fmt.Errorf("connect to minio: %w", err)
	}

	fmt.Println("Connecting to NATS...")
	producer, err := queue.NewProducer(cfg.NATS.URL, cfg.NATS.ControlSubject)
	if err != nil {
		return fmt.Errorf("connect to nats: %w", err)
	}
	defer producer.Close()

	if err := vision.InitRuntime(); err != nil {
		return err
	}
	defer vision.DestroyRuntime()

	fmt.Println("Loading models...")
	pipeline, err := vision.NewPipeline(cfg.Vision, nil)
	if err != nil {
		return fmt.Errorf("init vision pipeline: %w", err)
	}
	defer pipeline.Close()

	runner := scan.NewRunner(db, minioStore, pipeline, producer, scan.Options{
		TempDir:        cfg.Vision.TempDir,
		MaxScanSeconds: cfg.Vision.MaxScanSeconds,
	})

	if reset {
		found, err := db.ResetMatch(ctx, id)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("match %s not found", id)
		}
	}

	var bar *progressbar.ProgressBar
	progress := func(done, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetDescription("Scanning"),
				progressbar.OptionShowCount(),
				progressbar.OptionShowIts(),
				progressbar.OptionSetItsString("frames"),
				progressbar.OptionShowElapsedTimeOnFinish(),
				progressbar.OptionSetPredictTime(true),
				progressbar.OptionFullWidth(),
			)
		}
		_ = bar.Set(done)
	}

	completed := runner.RunWithProgress(ctx, id, progress)
	if bar != nil {
		_ = bar.Finish()
		fmt.Println()
	}

	match, err := db.GetMatch(context.Background(), id)
	if err != nil {
		return err
	}
	if match == nil {
		return fmt.Errorf("match %s not found", id)
	}

	fmt.Printf("Status:      %s\n", match.Status)
	fmt.Printf("Person found: %t\n", match.PersonFound)
	fmt.Printf("Detections:  %d\n", match.DetectionCount)
	if match.ConfidenceScore != nil {
		fmt.Printf("Confidence:  %.3f\n", *match.ConfidenceScore)
	}
	if !completed {
		return fmt.Errorf("scan of match %s did not complete", id)
	}
	return nil
}
