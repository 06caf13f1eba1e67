package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/shaibs3/uniload/internal/app"
	"github.com/shaibs3/uniload/internal/config"
	"github.com/shaibs3/uniload/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// cli holds what every subcommand needs once the root has bootstrapped
type cli struct {
	cfg    *config.Config
	logger *zap.Logger
}

func main() {
	// Initialize logger first (for configuration loading)
	initialLogger, err := logger.NewLogger("production", "info")
	if err != nil {
		log.Fatal("failed to initialize logger:", err)
	}
	defer func() {
		_ = initialLogger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := &cli{}
	root := newRootCommand(c, initialLogger)
	if err := root.ExecuteContext(ctx); err != nil {
		if c.logger != nil {
			_ = c.logger.Sync()
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
	if c.logger != nil {
		_ = c.logger.Sync()
	}
}

func newRootCommand(c *cli, initialLogger *zap.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:           "uniload",
		Short:         "Load the public university directory into a relational store",
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(initialLogger)
			if err != nil {
				return err
			}

			// Create application logger with proper configuration
			appLogger, err := logger.NewLogger(cfg.Environment, cfg.LogLevel)
			if err != nil {
				return fmt.Errorf("failed to create application logger: %w", err)
			}
			appLogger.Info("Build info",
				zap.String("version", version),
				zap.String("commit", commit),
				zap.String("date", date),
			)

			c.cfg = cfg
			c.logger = appLogger
			return nil
		},
	}

	root.AddCommand(
		newLoadCommand(c),
		newReportCommand(c),
		newServeCommand(c),
	)
	return root
}

// openApp builds the application and hands it to fn, closing it afterwards
func (c *cli) openApp(ctx context.Context, fn func(*app.App) error) error {
	a, err := app.NewApp(ctx, c.cfg, c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			c.logger.Warn("failed to close application", zap.Error(err))
		}
	}()
	return fn(a)
}
