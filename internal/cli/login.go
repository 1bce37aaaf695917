package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/raphaelgruber/chatline/internal/auth"
	"github.com/spf13/cobra"
)

var errLoginFailed = errors.New("login failed")

var (
	loginEmail    string
	loginPassword string
	loginNoChat   bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store the session",
	Long: `Log in to the chat service with email and password.

Missing values are prompted for; the password is never echoed. On success
the session id and token are stored and the chat opens.`,
	Example: `  chatline login
  chatline login --email ana@example.com
  chatline login --email ana@example.com --no-chat`,
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "account password (prompted when empty)")
	loginCmd.Flags().BoolVar(&loginNoChat, "no-chat", false, "do not open the chat after logging in")
}

func runLogin(cmd *cobra.Command, args []string) error {
	return loginFlow(cmd.Context(), !loginNoChat)
}

// loginFlow prompts for missing credentials and submits one login attempt.
// When openChat is set a successful login hands off to the chat view.
func loginFlow(ctx context.Context, openChat bool) error {
	email, password, err := promptCredentials(os.Stdin, os.Stdout, loginEmail, loginPassword)
	if err != nil {
		return err
	}

	var nav auth.Navigator
	if openChat {
		nav = auth.NavigatorFunc(openChatView)
	}
	return submitLogin(ctx, os.Stdout, email, password, nav, auth.WithLogger(logger))
}

// submitLogin prints the outcome notice to out. nav is only called after a
// successful login and the redirect delay; a nil nav stops after the notice.
func submitLogin(ctx context.Context, out io.Writer, email, password string, nav auth.Navigator, opts ...auth.Option) error {
	initiator := auth.NewInitiator(api, store, opts...)
	outcome := initiator.Submit(ctx, email, password)
	if !outcome.OK() {
		fmt.Fprintln(out, defaultTheme.errorStyle().Render(outcome.Notice))
		return errLoginFailed
	}
	fmt.Fprintln(out, defaultTheme.successStyle().Render(outcome.Notice))

	if nav == nil {
		return nil
	}
	return initiator.Redirect(ctx, nav)
}
