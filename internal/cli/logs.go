package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vicoolz/palimpseste/internal/config"
	"github.com/vicoolz/palimpseste/internal/logtail"
)

// NewLogsCommand prints the tail of the reader's log file.
func NewLogsCommand(rootOpts *RootOptions) *cobra.Command {
	var lines int

	cmd := &cobra.Command{
		Use:          "logs",
		Short:        "Show recent reader log entries",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(rootOpts.ConfigPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			entries, err := logtail.Tail(cfg.LogPath(), lines)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if rootOpts.Format == "json" {
				return writeJSON(out, entries)
			}
			if len(entries) == 0 {
				fmt.Fprintf(out, "no log entries in %s\n", cfg.LogPath())
				return nil
			}
			for _, e := range entries {
				fmt.Fprintln(out, logtail.Format(e))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 20, "number of entries to show")
	return cmd
}
