package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vicoolz/palimpseste/internal/eventbus"
)

// NewEventsCommand lists the event catalog grouped by namespace.
func NewEventsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "events",
		Short:        "List the events modules can emit and listen to",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			namespaces, groups := eventbus.ByNamespace()
			out := cmd.OutOrStdout()

			if rootOpts.Format == "json" {
				data := make(map[string][]string, len(groups))
				for ns, events := range groups {
					names := make([]string, len(events))
					for i, e := range events {
						names[i] = string(e)
					}
					data[ns] = names
				}
				return writeJSON(out, data)
			}

			for _, ns := range namespaces {
				fmt.Fprintf(out, "%s (%d)\n", ns, len(groups[ns]))
				for _, e := range groups[ns] {
					fmt.Fprintf(out, "  %s\n", e)
				}
			}
			return nil
		},
	}
}
