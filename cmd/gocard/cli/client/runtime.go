package client

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/mwantia/gocard/internal/agent"
	"github.com/mwantia/gocard/pkg/log"
	"github.com/spf13/cobra"

	config "github.com/mwantia/gocard/internal/config/server"
)

// loadConfig loads the configuration for one-shot commands. Unless a level
// was requested explicitly only warnings are logged so they do not mix with
// the command output.
func loadConfig(cmd *cobra.Command) (*config.BaseServerConfig, log.LoggerService, error) {
	cfg, err := config.LoadServerConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load server configuration: %w", err)
	}

	level := ""
	if !cmd.Flags().Changed("log-level") {
		level = "warn"
	}
	cfg.Log = cfg.Log.ForCommand(level)

	return cfg, log.NewLoggerService("gocard", cfg.Log), nil
}

func withRuntime(cmd *cobra.Command, fn func(ctx context.Context, rt *agent.Runtime) error) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer cancel()

	rt, err := agent.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	return fn(ctx, rt)
}
