package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/gamasenninn/mcp-agent/internal/config"
	"github.com/gamasenninn/mcp-agent/internal/history"
)

// NewHistoryCommand creates the history command group
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect the execution-history database",
	}
	cmd.PersistentFlags().String("state-dir", "", "Directory for session state")

	cmd.AddCommand(newHistoryStatsCommand())
	cmd.AddCommand(newHistoryClearCommand())
	return cmd
}

func openHistory(cmd *cobra.Command) (*history.Store, error) {
	cfg, err := config.LoadConfigFromDir(".")
	if err != nil {
		return nil, err
	}
	if dir, _ := cmd.Flags().GetString("state-dir"); dir != "" {
		cfg.StateDir = dir
	}
	return history.NewStore(cfg.HistoryDB())
}

func newHistoryStatsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show execution statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistory(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			sessionID, _ := cmd.Flags().GetString("session")
			stats, err := store.SessionStats(cmd.Context(), sessionID)
			if err != nil {
				return err
			}

			if stats.Total == 0 {
				fmt.Println("No executions recorded.")
				return nil
			}

			fmt.Printf("Executions: %d\n", stats.Total)
			fmt.Printf("Succeeded:  %d\n", stats.Succeeded)
			fmt.Printf("Failed:     %d\n", stats.Failed)
			fmt.Printf("Avg time:   %dms\n", stats.AvgMs)

			if len(stats.ByTool) > 0 {
				fmt.Println("\nBy tool:")
				names := make([]string, 0, len(stats.ByTool))
				for name := range stats.ByTool {
					names = append(names, name)
				}
				sort.Strings(names)
				for _, name := range names {
					fmt.Printf("  %-12s %d\n", name, stats.ByTool[name])
				}
			}
			return nil
		},
	}
	cmd.Flags().String("session", "", "Limit statistics to one session id")
	return cmd
}

func newHistoryClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all recorded executions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistory(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("Execution history cleared.")
			return nil
		},
	}
}
