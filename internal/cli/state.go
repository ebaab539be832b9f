package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vicoolz/palimpseste/internal/app"
	"github.com/vicoolz/palimpseste/internal/persist"
	"github.com/vicoolz/palimpseste/internal/state"
	"github.com/vicoolz/palimpseste/internal/storage"
	"github.com/vicoolz/palimpseste/internal/tree"
)

// NewStateCommand groups commands over the persisted state snapshot.
func NewStateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect or reset the saved reading state",
	}
	cmd.AddCommand(newStateShowCommand(rootOpts))
	cmd.AddCommand(newStateResetCommand(rootOpts))
	return cmd
}

func newStateShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "show",
		Short:        "Print the saved state",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(rootOpts)
			if err != nil {
				return err
			}
			defer ws.Close()

			adapter := persist.NewAdapter(ws.backend, persist.KeyFor(app.Name))
			snapshot, err := adapter.Read(cmd.Context())
			if errors.Is(err, storage.ErrNotFound) {
				fmt.Fprintln(cmd.OutOrStdout(), "no saved state")
				return nil
			}
			if err != nil {
				return fmt.Errorf("read state: %w", err)
			}

			if rootOpts.Format == "json" {
				data, err := persist.Encode(snapshot)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return err
			}
			printSummary(cmd.OutOrStdout(), tree.Merge(state.Default(), snapshot))
			return nil
		},
	}
}

func newStateResetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "reset",
		Short:        "Forget likes, progress and achievements",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(rootOpts)
			if err != nil {
				return err
			}
			defer ws.Close()

			adapter := persist.NewAdapter(ws.backend, persist.KeyFor(app.Name))
			if err := adapter.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "state cleared")
			return nil
		},
	}
}

func printSummary(out io.Writer, s tree.Tree) {
	user := "anonyme"
	if u, ok := state.User(s); ok && state.IsAuthenticated(s) {
		if email, _ := u["email"].(string); email != "" {
			user = email
		}
	}
	fmt.Fprintf(out, "user:         %s\n", user)
	fmt.Fprintf(out, "theme:        %s\n", state.Theme(s))
	fmt.Fprintf(out, "read:         %d\n", state.ReadCount(s))
	fmt.Fprintf(out, "likes:        %d\n", state.Likes(s).Len())
	fmt.Fprintf(out, "cache:        %d entries\n", state.Cache(s).Len())

	achievements := state.Achievements(s)
	fmt.Fprintf(out, "achievements: %d\n", len(achievements))
	for _, a := range achievements {
		title, _ := a["title"].(string)
		fmt.Fprintf(out, "  - %s\n", title)
	}
	if path := state.ReadingPath(s); len(path) > 0 {
		fmt.Fprintf(out, "path:         %s\n", strings.Join(path, " > "))
	}
}
