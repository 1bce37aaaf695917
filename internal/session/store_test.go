package session_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/raphaelgruber/chatline/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testOrigin = "http://127.0.0.1:5000"

// backends returns a fresh store per backend, all rooted in one temp dir.
func backends(t *testing.T) map[string]session.Store {
	t.Helper()
	dir := t.TempDir()

	stores := map[string]session.Store{}
	for _, b := range []string{"memory", "file", "sqlite"} {
		s, err := session.Open(b, dir, testOrigin)
		require.NoError(t, err, "open %s store", b)
		t.Cleanup(func() { s.Close() })
		stores[b] = s
	}
	return stores
}

func TestStoreGetSetDelete(t *testing.T) {
	ctx := context.Background()

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := s.Get(ctx, "missing")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, s.Set(ctx, "k", "v1"))
			require.NoError(t, s.Set(ctx, "k", "v2"))
			v, ok, err := s.Get(ctx, "k")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "v2", v)

			require.NoError(t, s.Delete(ctx, "k"))
			require.NoError(t, s.Delete(ctx, "k"), "deleting twice is fine")
			_, ok, err = s.Get(ctx, "k")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	want := session.Credentials{SessionID: "42", Token: "eyJhbGciOi.payload.sig"}

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, session.Save(ctx, s, want))

			got, err := session.Load(ctx, s)
			require.NoError(t, err)
			assert.Equal(t, want, got, "values must be stored exactly as received")

			require.NoError(t, session.Clear(ctx, s))
			_, err = session.Load(ctx, s)
			assert.ErrorIs(t, err, session.ErrNoSession)
		})
	}
}

func TestLoadMissingEitherValue(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		values map[string]string
	}{
		{"empty store", nil},
		{"only session id", map[string]string{session.KeySessionID: "7"}},
		{"only token", map[string]string{session.KeyToken: "tok"}},
		{"empty token", map[string]string{session.KeySessionID: "7", session.KeyToken: ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := session.NewMemoryStore()
			for k, v := range tt.values {
				require.NoError(t, s.Set(ctx, k, v))
			}
			_, err := session.Load(ctx, s)
			assert.ErrorIs(t, err, session.ErrNoSession)
		})
	}
}

func TestSaveRejectsIncompleteCredentials(t *testing.T) {
	s := session.NewMemoryStore()
	err := session.Save(context.Background(), s, session.Credentials{SessionID: "1"})
	assert.ErrorIs(t, err, session.ErrNoSession)

	_, ok, _ := s.Get(context.Background(), session.KeySessionID)
	assert.False(t, ok, "nothing is written for incomplete credentials")
}

func TestFileStorePersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sessions", "origin.yaml")

	first, err := session.NewFileStore(path)
	require.NoError(t, err)
	assert.Equal(t, path, first.Path())
	require.NoError(t, session.Save(ctx, first, session.Credentials{SessionID: "9", Token: "t"}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	second, err := session.NewFileStore(path)
	require.NoError(t, err)
	got, err := session.Load(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, "9", got.SessionID)
}

func TestStoresAreScopedByOrigin(t *testing.T) {
	ctx := context.Background()

	for _, backend := range []string{"file", "sqlite"} {
		t.Run(backend, func(t *testing.T) {
			dir := t.TempDir()
			a, err := session.Open(backend, dir, "http://127.0.0.1:5000")
			require.NoError(t, err)
			defer a.Close()
			b, err := session.Open(backend, dir, "https://chat.example.com")
			require.NoError(t, err)
			defer b.Close()

			require.NoError(t, session.Save(ctx, a, session.Credentials{SessionID: "1", Token: "a"}))

			_, err = session.Load(ctx, b)
			assert.ErrorIs(t, err, session.ErrNoSession, "other origin must not see credentials")
		})
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := session.Open("redis", t.TempDir(), testOrigin)
	assert.Error(t, err)
}
