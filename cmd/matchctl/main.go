// Command matchctl runs matching and scan operations by hand.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/your-org/footwatch/internal/config"
	"github.com/your-org/footwatch/internal/observability"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "matchctl",
	Short: "Operate the footage matching pipeline",
	Long: `matchctl pairs missing-person cases with surveillance footage and runs
video scans outside the worker.

Examples:
  # Pair a new case with existing footage
  matchctl match-case 6f1c...

  # Scan one match with a progress bar
  matchctl scan 0b7e...`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "configs/config.yaml", "path to config file")
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	observability.SetupLogger(cfg.Logging.Level, "text")
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
