// Command fhist shows or clears the local history of fluffy uploads.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/opd-ai/fluffy/config"
	"github.com/opd-ai/fluffy/history"
	"github.com/opd-ai/fluffy/humanize"
	"github.com/opd-ai/fluffy/internal/cli"
)

// defaultLimit matches the number of recent uploads the home page shows.
const defaultLimit = 3

func newCommand(settings *config.Settings, store history.Store, now func() time.Time) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "fhist [list|clear]",
		Short:        "Show or clear the history of fluffy uploads",
		Long:         "Show or clear the local history of files and pastes uploaded with fput and fpb.\n\n" + cli.Description,
		SilenceUsage: true,
		Version:      cli.BuildVersion(),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, _ := cmd.Flags().GetString("log-level")
			return cli.SetupLogging(cmd.ErrOrStderr(), level)
		},
	}
	cmd.PersistentFlags().String("log-level", settings.LogLevel, "log level (panic, fatal, error, warning, info, debug, trace)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recent uploads, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			return runList(cmd, store, limit, now())
		},
	}
	listCmd.Flags().Int("limit", defaultLimit, "number of entries to show (0 for all)")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Forget every recorded upload",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := store.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("clearing history: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "History cleared.")
			return nil
		},
	}

	cmd.AddCommand(listCmd, clearCmd)
	cmd.Flags().AddFlagSet(listCmd.Flags())
	cmd.Args = cobra.NoArgs
	cmd.RunE = listCmd.RunE
	return cmd
}

func runList(cmd *cobra.Command, store history.Store, limit int, now time.Time) error {
	entries, err := store.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("reading history: %w", err)
	}

	out := cmd.OutOrStdout()
	recent := history.Recent(entries, limit)
	if len(recent) == 0 {
		fmt.Fprintln(out, "No uploads yet.")
		return nil
	}
	for _, e := range recent {
		title := history.Title(e, history.DefaultIconExtensions)
		fmt.Fprintf(out, "%s  %s\n", cli.Bold(out, title), cli.Muted(out, humanize.TimeAgo(e.Time, now)))
		fmt.Fprintf(out, "    %s\n", e.URL)
	}
	return nil
}

func main() {
	settings, err := cli.LoadSettings()
	if err != nil {
		fmt.Fprintf(os.Stderr, "getting settings: %v\n", err)
		os.Exit(1)
	}
	if err := newCommand(settings, cli.HistoryStore(settings), time.Now).Execute(); err != nil {
		os.Exit(1)
	}
}
