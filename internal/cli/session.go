package cli

import (
	"errors"
	"fmt"

	"github.com/raphaelgruber/chatline/internal/auth"
	"github.com/raphaelgruber/chatline/internal/session"
	"github.com/spf13/cobra"
)

const (
	noticeNoSession = "No hay sesión activa."
	noticeLoggedOut = "Sesión local eliminada."
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Print the stored session id",
	Long: `Print the session id the chat would use, read from the local store.

No request is sent to the service.`,
	RunE: runSession,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored session",
	Long: `Remove the stored session id and token for the configured service.

The service is not contacted; the server-side session is left as is.`,
	RunE: runLogout,
}

func runSession(cmd *cobra.Command, args []string) error {
	notice, err := auth.NewInitiator(api, store, auth.WithLogger(logger)).Handoff(cmd.Context())
	if errors.Is(err, session.ErrNoSession) {
		fmt.Println(defaultTheme.hintStyle().Render(noticeNoSession))
		return nil
	}
	if err != nil {
		return fmt.Errorf("read session: %w", err)
	}

	fmt.Println(notice)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	if err := session.Clear(cmd.Context(), store); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	logger.Info("session cleared", "origin", cfg.Origin())
	fmt.Println(defaultTheme.successStyle().Render(noticeLoggedOut))
	return nil
}
