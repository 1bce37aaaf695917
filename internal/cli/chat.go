package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/raphaelgruber/chatline/internal/session"
	"github.com/raphaelgruber/chatline/internal/transcript"
	"github.com/spf13/cobra"
)

var chatPlain bool

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open the chat with the stored session",
	Long: `Open the chat for the stored session and load its history.

Without a stored session you are asked to log in first. The full-screen
view is used on a terminal; --plain or a non-terminal stdin switches to
line mode.`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().BoolVar(&chatPlain, "plain", false, "line-mode chat instead of the full-screen view")
}

func runChat(cmd *cobra.Command, args []string) error {
	return openChatOrLogin(cmd.Context(), func(ctx context.Context) error {
		return loginFlow(ctx, true)
	})
}

// openChatOrLogin opens the chat, or runs login when no session is stored.
// Any other failure is returned as is.
func openChatOrLogin(ctx context.Context, login func(context.Context) error) error {
	err := openChatView(ctx)
	if errors.Is(err, session.ErrNoSession) {
		logger.Info("no stored session, redirecting to login")
		return login(ctx)
	}
	return err
}

// openChatView opens the synchronizer for the stored session and runs the
// view that fits the terminal.
func openChatView(ctx context.Context) error {
	sync, err := transcript.Open(ctx, store, api, transcript.WithLogger(logger))
	if err != nil {
		return err
	}

	if chatPlain || !isTerminal(os.Stdin) || !isTerminal(os.Stdout) {
		return runREPL(ctx, sync, os.Stdout)
	}
	if err := runChatView(ctx, sync); err != nil {
		return fmt.Errorf("chat view: %w", err)
	}
	return nil
}
