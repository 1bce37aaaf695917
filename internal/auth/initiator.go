// Package auth implements the login flow: submit credentials, persist the
// resulting session, and hand off to the chat view.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/raphaelgruber/chatline/internal/client"
	"github.com/raphaelgruber/chatline/internal/session"
)

// RedirectDelay is the pause between a successful login and opening the chat view.
const RedirectDelay = 500 * time.Millisecond

// User-facing notices, in the service's locale.
const (
	NoticeSuccess       = "Inicio de sesión exitoso. Redirigiendo..."
	NoticeRejected      = "Error al iniciar sesión. Verifica tus credenciales."
	NoticeConnection    = "Error de conexión con el servidor."
	NoticeStoreFailed   = "No se pudo guardar la sesión localmente."
	noticeHandoffFormat = "Redirigiendo a la página de chat... ¡Usando Session ID: %s en cada mensaje!"
)

// Authenticator performs the login request.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*client.LoginResult, error)
}

// Navigator opens the chat view.
type Navigator interface {
	OpenChat(ctx context.Context) error
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context) error

func (f NavigatorFunc) OpenChat(ctx context.Context) error { return f(ctx) }

// OutcomeKind classifies a submission.
type OutcomeKind int

const (
	Failure OutcomeKind = iota
	Success
)

// Outcome is the result of one submission. Notice is ready for display.
type Outcome struct {
	Kind        OutcomeKind
	Notice      string
	Credentials session.Credentials
}

// OK reports whether the submission authenticated and persisted a session.
func (o Outcome) OK() bool { return o.Kind == Success }

// Initiator drives the login flow. It never retries: every failure is
// terminal for its submission.
type Initiator struct {
	api    Authenticator
	store  session.Store
	logger *slog.Logger
	delay  time.Duration
}

// Option configures an Initiator.
type Option func(*Initiator)

func WithLogger(logger *slog.Logger) Option {
	return func(i *Initiator) { i.logger = logger }
}

// WithRedirectDelay overrides RedirectDelay.
func WithRedirectDelay(d time.Duration) Option {
	return func(i *Initiator) { i.delay = d }
}

func NewInitiator(api Authenticator, store session.Store, opts ...Option) *Initiator {
	i := &Initiator{
		api:    api,
		store:  store,
		logger: slog.New(slog.DiscardHandler),
		delay:  RedirectDelay,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Submit sends one login request. On success both credential values are
// persisted exactly as received; on any failure the store is left untouched.
func (i *Initiator) Submit(ctx context.Context, email, password string) Outcome {
	res, err := i.api.Login(ctx, email, password)
	if err != nil {
		return i.failure(email, err)
	}

	if err := session.Save(ctx, i.store, res.Credentials); err != nil {
		i.logger.Error("persist session failed", "error", err)
		return Outcome{Kind: Failure, Notice: NoticeStoreFailed}
	}

	i.logger.Info("login succeeded", "session_id", res.Credentials.SessionID)
	return Outcome{Kind: Success, Notice: NoticeSuccess, Credentials: res.Credentials}
}

func (i *Initiator) failure(email string, err error) Outcome {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		i.logger.Warn("login rejected", "email", email, "status", apiErr.StatusCode)
		notice := apiErr.Message
		if notice == "" {
			notice = NoticeRejected
		}
		return Outcome{Kind: Failure, Notice: notice}
	}

	if errors.Is(err, client.ErrMalformed) {
		i.logger.Error("login response incomplete", "error", err)
		return Outcome{Kind: Failure, Notice: NoticeRejected}
	}

	i.logger.Error("login request failed", "error", err)
	return Outcome{Kind: Failure, Notice: NoticeConnection}
}

// Redirect waits the redirect delay and opens the chat view. The delay is
// cosmetic; cancelling ctx abandons the redirect.
func (i *Initiator) Redirect(ctx context.Context, nav Navigator) error {
	timer := time.NewTimer(i.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}
	return nav.OpenChat(ctx)
}

// Handoff reads the stored session id back for confirmation before a manual
// jump to the chat view. It makes no network call.
func (i *Initiator) Handoff(ctx context.Context) (string, error) {
	id, _, err := i.store.Get(ctx, session.KeySessionID)
	if err != nil {
		return "", fmt.Errorf("read session id: %w", err)
	}
	if id == "" {
		return "", session.ErrNoSession
	}
	return fmt.Sprintf(noticeHandoffFormat, id), nil
}
