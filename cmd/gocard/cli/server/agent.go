package server

import (
	"fmt"

	"github.com/mwantia/gocard/internal/agent"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	config "github.com/mwantia/gocard/internal/config/server"
)

func NewAgentCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Start the GoCard cache agent",
		Long: `Start the GoCard cache agent.

The agent keeps the local cache warm: it probes the remote content service,
preloads metadata periodically and serves the local HTTP API.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadServerConfig()
			if err != nil {
				return fmt.Errorf("failed to load server configuration: %w", err)
			}

			return agent.NewAgent(cfg).Serve(cmd.Context())
		},
	}

	cmd.Flags().String("http", "", "address of the local HTTP API (empty keeps the configured one)")
	cmd.Flags().Bool("no-preload", false, "disable the periodic metadata preload")

	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		if address, _ := cmd.Flags().GetString("http"); address != "" {
			viper.Set("http.address", address)
		}
		if disabled, _ := cmd.Flags().GetBool("no-preload"); disabled {
			viper.Set("preload.enabled", false)
		}
		return nil
	}

	return cmd
}
