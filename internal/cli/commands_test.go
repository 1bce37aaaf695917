package cli

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/raphaelgruber/chatline/internal/auth"
	"github.com/raphaelgruber/chatline/internal/client"
	"github.com/raphaelgruber/chatline/internal/client/clienttest"
	"github.com/raphaelgruber/chatline/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// brokenStore fails every read.
type brokenStore struct{ *session.MemoryStore }

func (brokenStore) Get(context.Context, string) (string, bool, error) {
	return "", false, assert.AnError
}

// countingNavigator records chat openings.
type countingNavigator struct{ opened int }

func (n *countingNavigator) OpenChat(context.Context) error {
	n.opened++
	return nil
}

// useService points the command collaborators at a fake service and s for
// the duration of the test.
func useService(t *testing.T, s session.Store) *clienttest.Server {
	t.Helper()
	srv := clienttest.New(t)

	prevAPI, prevStore, prevLogger := api, store, logger
	api = client.New(srv.URL)
	store = s
	logger = slog.New(slog.DiscardHandler)
	t.Cleanup(func() { api, store, logger = prevAPI, prevStore, prevLogger })

	return srv
}

func TestChatWithoutSessionRunsLogin(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]string
	}{
		{"nothing stored", nil},
		{"token missing", map[string]string{session.KeySessionID: "42"}},
		{"session id missing", map[string]string{session.KeyToken: "tok"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := session.NewMemoryStore()
			for k, v := range tt.values {
				require.NoError(t, mem.Set(context.Background(), k, v))
			}
			srv := useService(t, mem)

			logins := 0
			err := openChatOrLogin(context.Background(), func(context.Context) error {
				logins++
				return nil
			})

			require.NoError(t, err)
			assert.Equal(t, 1, logins)
			assert.Zero(t, srv.Count(), "no request before login")
		})
	}
}

func TestChatStoreFailureIsNotALoginRedirect(t *testing.T) {
	srv := useService(t, brokenStore{session.NewMemoryStore()})

	logins := 0
	err := openChatOrLogin(context.Background(), func(context.Context) error {
		logins++
		return nil
	})

	require.ErrorIs(t, err, assert.AnError)
	assert.Zero(t, logins)
	assert.Zero(t, srv.Count())
}

func TestSubmitLoginRejectedNeverNavigates(t *testing.T) {
	mem := session.NewMemoryStore()
	srv := useService(t, mem)
	nav := &countingNavigator{}
	var out bytes.Buffer

	err := submitLogin(context.Background(), &out, clienttest.Email, "wrong", nav, auth.WithRedirectDelay(time.Millisecond))

	require.ErrorIs(t, err, errLoginFailed)
	assert.Zero(t, nav.opened)
	assert.Contains(t, out.String(), "Credenciales inválidas")
	assert.Equal(t, 1, srv.Count())

	_, err = session.Load(context.Background(), mem)
	assert.ErrorIs(t, err, session.ErrNoSession)
}

func TestSubmitLoginOpensChat(t *testing.T) {
	mem := session.NewMemoryStore()
	useService(t, mem)
	nav := &countingNavigator{}
	var out bytes.Buffer

	err := submitLogin(context.Background(), &out, clienttest.Email, clienttest.Password, nav, auth.WithRedirectDelay(time.Millisecond))

	require.NoError(t, err)
	assert.Equal(t, 1, nav.opened)
	assert.Contains(t, out.String(), auth.NoticeSuccess)

	creds, err := session.Load(context.Background(), mem)
	require.NoError(t, err)
	assert.Equal(t, session.Credentials{SessionID: clienttest.SessionID, Token: clienttest.Token}, creds)
}

func TestSubmitLoginWithoutChat(t *testing.T) {
	mem := session.NewMemoryStore()
	useService(t, mem)
	var out bytes.Buffer

	err := submitLogin(context.Background(), &out, clienttest.Email, clienttest.Password, nil)

	require.NoError(t, err)
	assert.Contains(t, out.String(), auth.NoticeSuccess)
	_, err = session.Load(context.Background(), mem)
	assert.NoError(t, err)
}

func TestExecuteReleasesResourcesOnFailure(t *testing.T) {
	srv := clienttest.New(t)
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("CHATLINE_CONFIG", filepath.Join(dir, "missing.toml"))
	t.Setenv("CHATLINE_STATE_DIR", dir)
	t.Setenv("CHATLINE_LOG_FILE", filepath.Join(dir, "chatline.log"))

	rootCmd.SetArgs([]string{
		"login", "--base-url", srv.URL, "--store", "file",
		"--email", clienttest.Email, "--password", "wrong", "--no-chat",
	})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		loginEmail, loginPassword, loginNoChat = "", "", false
		flagBaseURL, flagStore = "", ""
	})

	err := Execute()

	require.ErrorIs(t, err, errLoginFailed)
	assert.Nil(t, store, "store closed")
	assert.Nil(t, logCleanup, "log file closed")
	assert.Equal(t, 1, srv.Count())
}
