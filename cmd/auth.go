package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/teemow/taskcal/internal/app"
)

func newLoginCmd() *cobra.Command {
	var (
		code  string
		token string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to Google Calendar",
		Long: `Sign in to Google Calendar.

Without flags the command prints the consent URL. Visit it, grant calendar
access and run the command again with --code. An access token obtained
elsewhere can be passed with --token instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if code != "" && token != "" {
				return fmt.Errorf("--code and --token are mutually exclusive")
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				switch {
				case code != "":
					return notified(a.SignIn(ctx, code))
				case token != "":
					return notified(a.SignInWithToken(ctx, token))
				}

				authURL, err := a.AuthURL(uuid.NewString())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), `To connect Google Calendar:

1. Visit this URL in your browser:
   %s

2. Sign in with your Google account and grant calendar access
3. Run: taskcal login --code <authorization code>
`, authURL)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&code, "code", "", "Authorization code from the Google consent page")
	cmd.Flags().StringVar(&token, "token", "", "Google access token obtained elsewhere")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out of Google and forget the saved credential",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				return a.SignOut(ctx)
			})
		},
	}
}

func newStatusCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the sign-in state, storage backend and progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(_ context.Context, a *app.App) error {
				st := a.Status()
				out := cmd.OutOrStdout()
				if asJSON {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					return enc.Encode(st)
				}
				calendarState := "not connected"
				if st.CalendarAvailable {
					calendarState = "connected (" + st.CalendarID + ")"
				}
				fmt.Fprintf(out, "Session:  %s\n", st.Session)
				fmt.Fprintf(out, "Calendar: %s\n", calendarState)
				fmt.Fprintf(out, "Storage:  %s\n", st.Backend)
				fmt.Fprintf(out, "Progress: %s\n", formatProgress(st.Progress))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the status as JSON")
	return cmd
}
