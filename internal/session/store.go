// Package session holds the credentials that bind the client to a remote
// chat session and the origin-scoped key/value stores that persist them.
package session

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Fixed keys under which credentials are stored.
const (
	KeySessionID = "chat_session_id"
	KeyToken     = "user_auth_token"
)

// ErrNoSession indicates that either credential value is absent.
// Callers treat it as "no active session", never as a user-visible error.
var ErrNoSession = errors.New("no active session")

// Credentials pair the opaque session identifier with its bearer token.
type Credentials struct {
	SessionID string
	Token     string
}

// Valid reports whether both values are present.
func (c Credentials) Valid() bool {
	return c.SessionID != "" && c.Token != ""
}

// Store is a durable string key/value store scoped to one service origin.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Save persists both credential values.
func Save(ctx context.Context, s Store, c Credentials) error {
	if !c.Valid() {
		return fmt.Errorf("save credentials: %w", ErrNoSession)
	}
	if err := s.Set(ctx, KeySessionID, c.SessionID); err != nil {
		return fmt.Errorf("save session id: %w", err)
	}
	if err := s.Set(ctx, KeyToken, c.Token); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

// Load reads the stored credentials. Returns ErrNoSession if either value is
// missing or empty.
func Load(ctx context.Context, s Store) (Credentials, error) {
	id, _, err := s.Get(ctx, KeySessionID)
	if err != nil {
		return Credentials{}, fmt.Errorf("read session id: %w", err)
	}
	token, _, err := s.Get(ctx, KeyToken)
	if err != nil {
		return Credentials{}, fmt.Errorf("read token: %w", err)
	}

	c := Credentials{SessionID: id, Token: token}
	if !c.Valid() {
		return Credentials{}, ErrNoSession
	}
	return c, nil
}

// Clear removes both credential values.
func Clear(ctx context.Context, s Store) error {
	for _, key := range []string{KeySessionID, KeyToken} {
		if err := s.Delete(ctx, key); err != nil {
			return fmt.Errorf("delete %s: %w", key, err)
		}
	}
	return nil
}

// Open returns the store for backend ("file", "sqlite" or "memory") rooted at
// dir and scoped to origin.
func Open(backend, dir, origin string) (Store, error) {
	switch backend {
	case "memory":
		return NewMemoryStore(), nil
	case "file", "":
		return NewFileStore(filepath.Join(dir, "sessions", originSlug(origin)+".yaml"))
	case "sqlite":
		return NewSQLiteStore(filepath.Join(dir, "chatline.db"), origin)
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}

// originSlug turns "http://127.0.0.1:5000" into "http_127.0.0.1_5000".
func originSlug(origin string) string {
	r := strings.NewReplacer("://", "_", ":", "_", "/", "_")
	return r.Replace(strings.ToLower(origin))
}
