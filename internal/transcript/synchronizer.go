package transcript

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/raphaelgruber/chatline/internal/client"
	"github.com/raphaelgruber/chatline/internal/session"
)

// User-facing notices, in the service's locale.
const (
	NoticeNoHistory        = "¡Hola! Empieza a chatear. No hay historial."
	NoticeHistoryStatus    = "Error %d al cargar historial."
	NoticeHistoryTransport = "Error de conexión con el servidor. Revisar consola."
	NoticeChatStatus       = "Error %d: %s"
	NoticeChatStatusBare   = "Error %d."
	NoticeChatTransport    = "Error de red. Verifica la conexión."
	NoticeInvalidReply     = "Error: No se recibió respuesta válida del bot."
)

var (
	// ErrEmptyMessage means the input was empty after trimming; nothing happened.
	ErrEmptyMessage = errors.New("empty message")

	// ErrSendInFlight means a previous submission has not settled; nothing happened.
	ErrSendInFlight = errors.New("send already in flight")
)

// ChatAPI is the part of the chat service the synchronizer needs.
type ChatAPI interface {
	History(ctx context.Context, creds session.Credentials) ([]client.HistoryMessage, error)
	Chat(ctx context.Context, creds session.Credentials, message string) (string, error)
}

// Submission is a message whose optimistic entry is shown and whose request
// has not been delivered yet. Obtain one from Begin.
type Submission struct {
	Message string
	seq     uint64
}

// Synchronizer keeps a Transcript consistent with the service across
// history loads and send/receive round trips.
//
// One submission may be in flight at a time. Every trigger (button, key,
// REPL line) goes through Begin, so overlapping submissions cannot
// interleave their replies.
type Synchronizer struct {
	api        ChatAPI
	creds      session.Credentials
	transcript *Transcript
	logger     *slog.Logger

	mu       sync.Mutex
	inFlight bool
	seq      uint64
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Synchronizer) { s.logger = logger }
}

// WithClock sets the clock used for entry timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Synchronizer) { s.transcript = New(now) }
}

// Open reads the stored credentials. It returns session.ErrNoSession, before
// any network activity, when either value is absent; callers redirect to the
// login flow instead of reporting it.
func Open(ctx context.Context, store session.Store, api ChatAPI, opts ...Option) (*Synchronizer, error) {
	creds, err := session.Load(ctx, store)
	if err != nil {
		return nil, err
	}

	s := &Synchronizer{
		api:        api,
		creds:      creds,
		transcript: New(nil),
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("session_id", creds.SessionID)
	return s, nil
}

// SessionID returns the session this synchronizer is bound to.
func (s *Synchronizer) SessionID() string {
	return s.creds.SessionID
}

// Transcript returns the live transcript.
func (s *Synchronizer) Transcript() *Transcript {
	return s.transcript
}

// Entries returns a copy of the transcript.
func (s *Synchronizer) Entries() []Entry {
	return s.transcript.Entries()
}

// LoadHistory rebuilds the transcript from the service. Every outcome
// replaces the transcript: the server's messages in order, or a single system
// entry for an empty history or a failure. The returned error is informational;
// it has already been rendered.
func (s *Synchronizer) LoadHistory(ctx context.Context) error {
	msgs, err := s.api.History(ctx, s.creds)
	if err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) {
			s.logger.Error("load history rejected", "status", apiErr.StatusCode)
			s.transcript.Replace([]Entry{{Sender: System, Content: fmt.Sprintf(NoticeHistoryStatus, apiErr.StatusCode)}})
		} else {
			s.logger.Error("load history failed", "error", err)
			s.transcript.Replace([]Entry{{Sender: System, Content: NoticeHistoryTransport}})
		}
		return fmt.Errorf("load history: %w", err)
	}

	if len(msgs) == 0 {
		s.transcript.Replace([]Entry{{Sender: System, Content: NoticeNoHistory}})
		return nil
	}

	entries := make([]Entry, len(msgs))
	for i, m := range msgs {
		entries[i] = Entry{Sender: ParseSender(m.Sender), Content: m.Content}
	}
	s.transcript.Replace(entries)
	s.logger.Debug("history loaded", "messages", len(entries))
	return nil
}

// Begin validates input and, if it is accepted, appends the optimistic user
// entry and marks the submission in flight. It returns ErrEmptyMessage for
// blank input and ErrSendInFlight while a previous submission is unsettled;
// in both cases the transcript is untouched.
func (s *Synchronizer) Begin(input string) (Submission, error) {
	message := strings.TrimSpace(input)
	if message == "" {
		return Submission{}, ErrEmptyMessage
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inFlight {
		return Submission{}, ErrSendInFlight
	}
	s.inFlight = true
	s.seq++

	s.transcript.Append(User, message)
	return Submission{Message: message, seq: s.seq}, nil
}

// Deliver issues the request for sub, appends exactly one bot or system
// entry, and always releases the in-flight state.
func (s *Synchronizer) Deliver(ctx context.Context, sub Submission) Entry {
	defer s.release(sub)

	reply, err := s.api.Chat(ctx, s.creds, sub.Message)
	if err == nil {
		return s.transcript.Append(Bot, reply)
	}

	var apiErr *client.APIError
	switch {
	case errors.As(err, &apiErr):
		s.logger.Warn("chat rejected", "status", apiErr.StatusCode, "message", apiErr.Message)
		if apiErr.Message == "" {
			return s.transcript.Append(System, fmt.Sprintf(NoticeChatStatusBare, apiErr.StatusCode))
		}
		return s.transcript.Append(System, fmt.Sprintf(NoticeChatStatus, apiErr.StatusCode, apiErr.Message))
	case errors.Is(err, client.ErrMalformed):
		s.logger.Warn("chat reply malformed", "error", err)
		return s.transcript.Append(System, NoticeInvalidReply)
	default:
		s.logger.Error("chat request failed", "error", err)
		return s.transcript.Append(System, NoticeChatTransport)
	}
}

// Send is Begin followed by Deliver.
func (s *Synchronizer) Send(ctx context.Context, input string) (Entry, error) {
	sub, err := s.Begin(input)
	if err != nil {
		return Entry{}, err
	}
	return s.Deliver(ctx, sub), nil
}

// Sending reports whether a submission is in flight.
func (s *Synchronizer) Sending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

func (s *Synchronizer) release(sub Submission) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sub.seq == s.seq {
		s.inFlight = false
	}
}
