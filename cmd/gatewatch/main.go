// ABOUTME: Entry point and cobra root command for the gatewatch CLI
// ABOUTME: Shared setup helpers (config, logging, store) live here

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/gatewatch/gatewatch/internal/config"
	"github.com/gatewatch/gatewatch/internal/store"
)

var (
	configPath string
	dbPath     string
)

var rootCmd = &cobra.Command{
	Use:   "gatewatch",
	Short: "QR gate scan matching and sequencing engine",
	Long: `gatewatch ingests QR scans, matches them against configured gate doors,
tracks per-gate door sequences, and records action events when a gate
completes its cycle.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	// A local .env is optional; absence is not an error.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to SQLite database (overrides config)")
}

// loadConfig resolves the effective configuration from the --config flag,
// the GATEWATCH_CONFIG environment variable, or built-in defaults.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = os.Getenv("GATEWATCH_CONFIG")
	}

	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if dbPath != "" {
		cfg.Database.Path = dbPath
	}
	if env := os.Getenv("GATEWATCH_DB"); dbPath == "" && env != "" {
		cfg.Database.Path = env
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// openStore opens the SQLite store described by cfg and runs migrations.
// The caller owns the returned store and must Close it.
func openStore(cfg *config.Config, logger *slog.Logger) (*store.SQLiteStore, error) {
	st, err := store.NewSQLiteStore(cfg.Database.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("opening store at %s: %w", cfg.Database.Path, err)
	}
	return st, nil
}
