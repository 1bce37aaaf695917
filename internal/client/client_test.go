package client_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"testing"

	"github.com/raphaelgruber/chatline/internal/client"
	"github.com/raphaelgruber/chatline/internal/client/clienttest"
	"github.com/raphaelgruber/chatline/internal/metrics"
	"github.com/raphaelgruber/chatline/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCreds = session.Credentials{SessionID: clienttest.SessionID, Token: clienttest.Token}

func newClient(t *testing.T) (*client.Client, *clienttest.Server) {
	t.Helper()
	srv := clienttest.New(t)
	return client.New(srv.URL + "/"), srv
}

func TestBaseURLTrimsTrailingSlash(t *testing.T) {
	c, srv := newClient(t)
	assert.Equal(t, srv.URL, c.BaseURL())
}

func TestLoginSuccess(t *testing.T) {
	c, srv := newClient(t)

	res, err := c.Login(context.Background(), clienttest.Email, clienttest.Password)
	require.NoError(t, err)
	assert.Equal(t, session.Credentials{SessionID: "42", Token: clienttest.Token}, res.Credentials,
		"numeric session_id is accepted as its decimal string")

	reqs := srv.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPost, reqs[0].Method)
	assert.Equal(t, "/login", reqs[0].Path)
	assert.Empty(t, reqs[0].Authorization, "login is unauthenticated")
	assert.Equal(t, clienttest.Email, reqs[0].Body["email"])
	assert.Equal(t, clienttest.Password, reqs[0].Body["password"])
	assert.NotEmpty(t, reqs[0].RequestID)
}

func TestLoginFailures(t *testing.T) {
	tests := []struct {
		name       string
		reply      clienttest.Reply
		wantStatus int
		wantMsg    string
		wantErr    error
	}{
		{
			name:       "non-2xx with message",
			reply:      clienttest.JSON(401, map[string]any{"success": false, "message": "Credenciales inválidas"}),
			wantStatus: 401,
			wantMsg:    "Credenciales inválidas",
		},
		{
			name:       "error preferred over message",
			reply:      clienttest.JSON(403, map[string]any{"error": "bloqueado", "message": "otro"}),
			wantStatus: 403,
			wantMsg:    "bloqueado",
		},
		{
			name:       "2xx with ok false",
			reply:      clienttest.JSON(200, map[string]any{"ok": false, "error": "cuenta inactiva"}),
			wantStatus: 200,
			wantMsg:    "cuenta inactiva",
		},
		{
			name:       "2xx without ok",
			reply:      clienttest.JSON(200, map[string]any{"session_id": "1", "token": "t"}),
			wantStatus: 200,
		},
		{
			name:       "rejection with mistyped error",
			reply:      clienttest.JSON(401, map[string]any{"ok": false, "error": map[string]any{"code": 7}}),
			wantStatus: 401,
		},
		{
			name:    "non-JSON body",
			reply:   clienttest.Reply{Status: 500, Raw: "<html>Internal Server Error</html>"},
			wantErr: client.ErrTransport,
		},
		{
			name:    "ok with mistyped token",
			reply:   clienttest.JSON(200, map[string]any{"ok": true, "session_id": "1", "token": 5}),
			wantErr: client.ErrMalformed,
		},
		{
			name:    "ok without token",
			reply:   clienttest.JSON(200, map[string]any{"ok": true, "session_id": "1"}),
			wantErr: client.ErrMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, srv := newClient(t)
			srv.OnLogin(func(string, string) clienttest.Reply { return tt.reply })

			res, err := c.Login(context.Background(), "a@b.c", "x")
			require.Error(t, err)
			assert.Nil(t, res)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			var apiErr *client.APIError
			require.True(t, errors.As(err, &apiErr), "want APIError, got %v", err)
			assert.Equal(t, tt.wantStatus, apiErr.StatusCode)
			assert.Equal(t, tt.wantMsg, apiErr.Message)
		})
	}
}

func TestLoginTransportFailure(t *testing.T) {
	c, srv := newClient(t)
	srv.Close()

	_, err := c.Login(context.Background(), clienttest.Email, clienttest.Password)
	assert.ErrorIs(t, err, client.ErrTransport)
}

func TestHistory(t *testing.T) {
	c, srv := newClient(t)
	srv.OnHistory(func(id string) clienttest.Reply {
		return clienttest.JSON(200, map[string]any{"ok": true, "mensajes": []map[string]any{
			{"remitente": "usuario", "contenido": "hola", "fecha_envio": "2025-01-01T10:00:00"},
			{"remitente": "bot", "contenido": "¿en qué te ayudo?"},
		}})
	})

	msgs, err := c.History(context.Background(), testCreds)
	require.NoError(t, err)
	assert.Equal(t, []client.HistoryMessage{
		{Sender: "usuario", Content: "hola"},
		{Sender: "bot", Content: "¿en qué te ayudo?"},
	}, msgs)

	reqs := srv.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodGet, reqs[0].Method)
	assert.Equal(t, "/mensajes/42", reqs[0].Path)
	assert.Equal(t, "Bearer "+clienttest.Token, reqs[0].Authorization)
}

func TestHistoryEmptyShapes(t *testing.T) {
	tests := []struct {
		name string
		body any
	}{
		{"empty list", map[string]any{"ok": true, "mensajes": []any{}}},
		{"absent list", map[string]any{"ok": true}},
		{"null list", map[string]any{"ok": true, "mensajes": nil}},
		{"ok false", map[string]any{"ok": false, "mensajes": []map[string]any{{"remitente": "bot", "contenido": "x"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, srv := newClient(t)
			srv.OnHistory(func(string) clienttest.Reply { return clienttest.JSON(200, tt.body) })

			msgs, err := c.History(context.Background(), testCreds)
			require.NoError(t, err)
			assert.Empty(t, msgs)
		})
	}
}

func TestHistoryStatusError(t *testing.T) {
	c, srv := newClient(t)
	srv.OnHistory(func(string) clienttest.Reply {
		return clienttest.Reply{Status: 401, Raw: "unauthorized"}
	})

	_, err := c.History(context.Background(), testCreds)
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 401, apiErr.StatusCode)
}

func TestHistoryMistypedBody(t *testing.T) {
	c, srv := newClient(t)
	srv.OnHistory(func(string) clienttest.Reply {
		return clienttest.JSON(200, map[string]any{"ok": true, "mensajes": "oops"})
	})

	_, err := c.History(context.Background(), testCreds)
	assert.ErrorIs(t, err, client.ErrMalformed)
	assert.NotErrorIs(t, err, client.ErrTransport)
}

func TestHistoryInvalidJSON(t *testing.T) {
	c, srv := newClient(t)
	srv.OnHistory(func(string) clienttest.Reply { return clienttest.Reply{Status: 200, Raw: "not json"} })

	_, err := c.History(context.Background(), testCreds)
	assert.ErrorIs(t, err, client.ErrTransport)
}

func TestChat(t *testing.T) {
	c, srv := newClient(t)
	srv.OnChat(func(id, msg string) clienttest.Reply {
		return clienttest.JSON(200, map[string]any{"ok": true, "data": map[string]any{"reply": "hi there"}})
	})

	reply, err := c.Chat(context.Background(), testCreds, "hello")
	require.NoError(t, err)
	assert.Equal(t, "hi there", reply)

	reqs := srv.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/api/chat", reqs[0].Path)
	assert.Equal(t, "Bearer "+clienttest.Token, reqs[0].Authorization)
	assert.Equal(t, map[string]any{"session_id": "42", "message": "hello"}, reqs[0].Body)
}

func TestChatFailures(t *testing.T) {
	tests := []struct {
		name       string
		reply      clienttest.Reply
		wantErr    error
		wantStatus int
		wantMsg    string
	}{
		{"ok false", clienttest.JSON(200, map[string]any{"ok": false}), client.ErrMalformed, 0, ""},
		{"missing data", clienttest.JSON(200, map[string]any{"ok": true}), client.ErrMalformed, 0, ""},
		{"empty reply", clienttest.JSON(200, map[string]any{"ok": true, "data": map[string]any{"reply": ""}}), client.ErrMalformed, 0, ""},
		{"invalid json", clienttest.Reply{Status: 200, Raw: "{"}, client.ErrTransport, 0, ""},
		{"reply not a string", clienttest.JSON(200, map[string]any{"ok": true, "data": map[string]any{"reply": 5}}), client.ErrMalformed, 0, ""},
		{"data not an object", clienttest.JSON(200, map[string]any{"ok": true, "data": "oops"}), client.ErrMalformed, 0, ""},
		{"error body mistyped", clienttest.JSON(500, map[string]any{"error": map[string]any{"code": 7}}), nil, 500, ""},
		{"server error", clienttest.JSON(500, map[string]any{"error": "overloaded"}), nil, 500, "overloaded"},
		{"server message", clienttest.JSON(400, map[string]any{"success": false, "message": "El mensaje no puede estar vacío."}), nil, 400, "El mensaje no puede estar vacío."},
		{"error body not json", clienttest.Reply{Status: 502, Raw: "Bad Gateway"}, client.ErrTransport, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, srv := newClient(t)
			srv.OnChat(func(string, string) clienttest.Reply { return tt.reply })

			reply, err := c.Chat(context.Background(), testCreds, "hello")
			require.Error(t, err)
			assert.Empty(t, reply)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			var apiErr *client.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.wantStatus, apiErr.StatusCode)
			assert.Equal(t, tt.wantMsg, apiErr.Message)
		})
	}
}

func TestTruthyOK(t *testing.T) {
	tests := []struct {
		name string
		ok   any
		want bool
	}{
		{"true", true, true},
		{"one", 1, true},
		{"string", "yes", true},
		{"zero", 0, false},
		{"empty string", "", false},
		{"null", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, srv := newClient(t)
			srv.OnChat(func(string, string) clienttest.Reply {
				return clienttest.JSON(200, map[string]any{"ok": tt.ok, "data": map[string]any{"reply": "r"}})
			})

			_, err := c.Chat(context.Background(), testCreds, "m")
			if tt.want {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, client.ErrMalformed)
			}
		})
	}
}

func TestMetricsAndLogging(t *testing.T) {
	srv := clienttest.New(t)
	collector := metrics.NewCollector()
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	c := client.New(srv.URL, client.WithMetrics(collector), client.WithLogger(logger))
	_, err := c.Login(context.Background(), clienttest.Email, clienttest.Password)
	require.NoError(t, err)
	_, err = c.Login(context.Background(), clienttest.Email, "wrong")
	require.Error(t, err)

	snap := collector.Operation(metrics.OpLogin)
	require.NotNil(t, snap)
	assert.Equal(t, int64(2), snap.Count)
	assert.Equal(t, int64(1), snap.Failures)

	assert.Contains(t, logs.String(), "request completed")
	assert.Contains(t, logs.String(), "request rejected")
	assert.NotContains(t, logs.String(), clienttest.Password, "passwords are never logged")
}
