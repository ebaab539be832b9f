package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vicoolz/palimpseste/internal/logging"
	"github.com/vicoolz/palimpseste/internal/session"
)

// EnvPassword supplies the login password when --password is omitted.
const EnvPassword = "PALIMPSESTE_PASSWORD"

var errSessionUnconfigured = errors.New("sessions are not configured: set supabase_url and supabase_key")

// NewLoginCommand signs in and stores the session for the next reader start.
func NewLoginCommand(rootOpts *RootOptions) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:          "login",
		Short:        "Sign in to sync likes and progress",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv(EnvPassword)
			}
			if strings.TrimSpace(email) == "" || password == "" {
				return fmt.Errorf("--email and --password (or %s) are required", EnvPassword)
			}

			provider, ws, err := openProvider(rootOpts)
			if err != nil {
				return err
			}
			defer ws.Close()

			sess, err := provider.SignIn(cmd.Context(), strings.TrimSpace(email), password)
			if err != nil {
				return err
			}
			if rootOpts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), map[string]any{
					"user":      sess.User,
					"expiresAt": sess.ExpiresAt,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s\n", displayName(sess.User))
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

// NewLogoutCommand forgets the stored session.
func NewLogoutCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "logout",
		Short:        "Sign out",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, ws, err := openProvider(rootOpts)
			if err != nil {
				return err
			}
			defer ws.Close()

			if err := provider.SignOut(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "signed out")
			return nil
		},
	}
}

func openProvider(rootOpts *RootOptions) (*session.HTTPProvider, *workspace, error) {
	ws, err := openWorkspace(rootOpts)
	if err != nil {
		return nil, nil, err
	}
	if !ws.cfg.SessionConfigured() {
		_ = ws.Close()
		return nil, nil, errSessionUnconfigured
	}
	log := logging.Component("session")
	sdk := &session.HTTPSDK{URL: ws.cfg.SupabaseURL, Store: ws.backend, Log: &log}
	provider, err := sdk.NewProvider(ws.cfg.SupabaseURL, ws.cfg.SupabaseKey)
	if err != nil {
		_ = ws.Close()
		return nil, nil, err
	}
	return provider, ws, nil
}

func displayName(u session.User) string {
	if u.Email != "" {
		return u.Email
	}
	return u.ID
}
