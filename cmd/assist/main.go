package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	stdlog "log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"landcharges/assist/internal/config"
	"landcharges/assist/internal/lib/logger/sl"
	"landcharges/assist/internal/lib/logger/slogpretty"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

var (
	// Global flags
	verbose bool

	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "assist",
	Short: "Land charges acceptance runner",
	Long: `assist drives the land charges registration API through an acceptance
scenario: reset fixture data, post a registration, rectify it and print the
registration dates and numbers the service assigned.

Run without a subcommand to execute the type 1 rectification scenario.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		logger = setupLogger(cfg.Env, cmd.ErrOrStderr())
		logger.Debug("config loaded",
			"env", cfg.Env,
			"land_charges", cfg.Endpoints.LandCharges,
			"kafka", cfg.Kafka.Enabled,
		)
		return nil
	},
	RunE: runScenario,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(runCmd, resetCmd, checkCmd, stubCmd)
}

func main() {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		stdlog.Printf("Warning: failed to load .env: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if logger != nil {
			logger.Error("assist failed", sl.Err(err))
		} else {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		stop()
		os.Exit(1)
	}
}

func setupLogger(env string, w io.Writer) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = setupPrettySlog(w)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(w, &slog.HandlerOptions{Level: levelFor(slog.LevelInfo)}),
		)
	default:
		log = setupPrettySlog(w)
	}

	return log
}

func setupPrettySlog(w io.Writer) *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: levelFor(slog.LevelInfo),
		},
	}

	handler := opts.NewPrettyHandler(w)

	return slog.New(handler)
}

func levelFor(base slog.Level) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return base
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
