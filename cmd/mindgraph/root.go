package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mindgraph/infrastructure/config"
	"mindgraph/infrastructure/di"
)

var (
	ownerFlag    string
	backendFlag  string
	dataFileFlag string
	dsnFlag      string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mindgraph",
	Short: "document store and connection analysis tool",
	Example: `mindgraph stats -o alice@example.com
mindgraph analyze -o alice@example.com --min-strength 0.4
mindgraph export -o alice@example.com > backup.json
mindgraph import -o alice@example.com backup.json
mindgraph clear -o alice@example.com --yes
mindgraph score --step 2 "first I measured the baseline"
mindgraph token -o alice@example.com`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&ownerFlag, "owner", "o", "", "owner whose documents the command works on")
	flags.StringVarP(&backendFlag, "backend", "b", "", "storage backend, overrides STORAGE_BACKEND")
	flags.StringVarP(&dataFileFlag, "data-file", "f", "", "data file for the file backend, overrides DATA_FILE")
	flags.StringVar(&dsnFlag, "dsn", "", "database DSN for the sqlite and postgres backends, overrides DATABASE_DSN")

	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(clearCmd())
	rootCmd.AddCommand(scoreCmd())
	rootCmd.AddCommand(tokenCmd())

	rootCmd.SetHelpCommand(&cobra.Command{Use: "no-help", Hidden: true})
	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	cobra.EnableCommandSorting = false
}

// loadConfig reads the environment and applies the persistent flag overrides
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	if backendFlag != "" {
		cfg.StorageBackend = backendFlag
	}
	if dataFileFlag != "" {
		cfg.DataFile = dataFileFlag
	}
	if dsnFlag != "" {
		cfg.DatabaseDSN = dsnFlag
	}
	// the cli serves no http traffic
	cfg.EnableMetrics = false
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// withContainer builds the application graph, runs fn against it and releases
// storage connections afterwards
func withContainer(ctx context.Context, fn func(*di.Container) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	container, cleanup, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()
	defer func() { _ = container.Logger.Sync() }()

	if err := fn(container); err != nil {
		container.Logger.Debug("command failed", zap.Error(err))
		return err
	}
	return nil
}

func requireOwner() error {
	if ownerFlag == "" {
		return fmt.Errorf("--owner is required")
	}
	return nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
