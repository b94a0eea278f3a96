package client

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/mwantia/gocard/internal/agent"
	"github.com/mwantia/gocard/pkg/card"
	"github.com/spf13/cobra"
)

func NewCacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the local cache",
		Long:  "Inspect and manage the local content cache: show statistics, fetch, search, remove or clear entries.",
	}

	cmd.AddCommand(NewCacheStatsCommand())
	cmd.AddCommand(NewCacheGetCommand())
	cmd.AddCommand(NewCacheSearchCommand())
	cmd.AddCommand(NewCacheRemoveCommand())
	cmd.AddCommand(NewCacheClearCommand())

	return cmd
}

func NewCacheStatsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *agent.Runtime) error {
				stats := rt.Cache.Stats(ctx)

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintf(w, "Items:\t%s\n", humanize.Comma(stats.TotalItems))
				fmt.Fprintf(w, "Size:\t%s\n", stats.FormattedSize)
				fmt.Fprintf(w, "Oldest:\t%s\n", orDash(stats.OldestTimestamp))
				fmt.Fprintf(w, "Newest:\t%s\n", orDash(stats.NewestTimestamp))
				fmt.Fprintf(w, "Online:\t%t\n", rt.Signal.Online())
				return w.Flush()
			})
		},
	}

	return cmd
}

func NewCacheGetCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "get <hash>",
		Short: "Fetch content by hash",
		Long:  "Fetch content by hash from the cache, or from the remote service when it is not cached and the service is reachable.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *agent.Runtime) error {
				fetched, err := rt.Router.FetchContent(ctx, args[0])
				if err != nil {
					return err
				}

				data := card.Bytes(fetched.Content)
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s, %s (from %s)\n",
					fetched.Hash, fetched.ContentType, humanize.IBytes(uint64(len(data))), fetched.Source)

				if output == "" {
					_, err = cmd.OutOrStdout().Write(data)
					return err
				}
				if err := os.WriteFile(output, data, 0644); err != nil {
					return fmt.Errorf("failed to write %s: %w", output, err)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write content to file instead of stdout")

	return cmd
}

func NewCacheSearchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search cards",
		Long:  "Search cards on the remote service, or in the local index while offline.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *agent.Runtime) error {
				results, err := rt.Router.Search(ctx, args[0])
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "HASH\tSCORE\tSNIPPET")
				for _, r := range results {
					fmt.Fprintf(w, "%s\t%.2f\t%s\n", r.Hash, r.RelevanceScore, oneLine(r.Snippet, 60))
				}
				return w.Flush()
			})
		},
	}

	return cmd
}

func NewCacheRemoveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rm <hash>...",
		Short: "Remove entries from the cache",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *agent.Runtime) error {
				for _, hash := range args {
					if rt.Cache.Delete(ctx, hash) {
						fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", hash)
					} else {
						fmt.Fprintf(cmd.OutOrStdout(), "Not cached: %s\n", hash)
					}
				}
				return nil
			})
		},
	}

	return cmd
}

func NewCacheClearCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *agent.Runtime) error {
				before := rt.Cache.Stats(ctx)
				rt.Cache.Clear(ctx)
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s entries (%s)\n",
					humanize.Comma(before.TotalItems), before.FormattedSize)
				return nil
			})
		},
	}

	return cmd
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func oneLine(s string, limit int) string {
	out := make([]rune, 0, limit)
	for _, r := range s {
		if len(out) == limit {
			return string(out) + "..."
		}
		if r == '\n' || r == '\r' || r == '\t' {
			r = ' '
		}
		out = append(out, r)
	}
	return string(out)
}
