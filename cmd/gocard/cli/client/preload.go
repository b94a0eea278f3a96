package client

import (
	"context"
	"fmt"

	"github.com/mwantia/gocard/internal/agent"
	"github.com/spf13/cobra"
)

func NewPreloadCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "preload",
		Short: "Copy remote metadata into the cache",
		Long:  "Page through the remote metadata listing and store every record as a metadata-only entry. Runs are skipped when the last one is more recent than the configured interval unless --force is given.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *agent.Runtime) error {
				if !rt.Signal.Online() {
					return fmt.Errorf("remote content service is not reachable")
				}

				result := rt.Preload.PreloadAll(ctx, force)
				switch {
				case result.Skipped:
					fmt.Fprintln(cmd.OutOrStdout(), "Skipped, the last preload is recent (use --force)")
				case result.Err != nil:
					fmt.Fprintf(cmd.OutOrStdout(), "Preloaded %d records from %d pages before failing: %v\n",
						result.Records, result.Pages, result.Err)
				default:
					fmt.Fprintf(cmd.OutOrStdout(), "Preloaded %d records from %d pages\n", result.Records, result.Pages)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "ignore the preload interval")

	return cmd
}
