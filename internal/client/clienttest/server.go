// Package clienttest provides an in-process fake of the chat service for tests.
package clienttest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
)

// Default values handed out by the fake.
const (
	SessionID = "42"
	Token     = "test-token"
	Email     = "ana@example.com"
	Password  = "secret"
)

// Request is one request the fake received.
type Request struct {
	Method        string
	Path          string
	Authorization string
	RequestID     string
	Body          map[string]any
}

// Reply is what a handler answers. Raw, when set, is written verbatim
// instead of Body encoded as JSON.
type Reply struct {
	Status int
	Body   any
	Raw    string
}

// JSON is a convenience for a JSON reply.
func JSON(status int, body any) Reply {
	return Reply{Status: status, Body: body}
}

// Server is an httptest server routing /login, /mensajes/{id} and /api/chat
// to replaceable handlers.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	requests []Request
	login    func(email, password string) Reply
	history  func(sessionID string) Reply
	chat     func(sessionID, message string) Reply
}

// New starts a fake with default behaviour: Email/Password log in to
// SessionID/Token, history is empty, chat echoes the message.
func New(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		login: func(email, password string) Reply {
			if email == Email && password == Password {
				return JSON(http.StatusOK, map[string]any{"ok": true, "session_id": 42, "token": Token})
			}
			return JSON(http.StatusUnauthorized, map[string]any{"success": false, "message": "Credenciales inválidas"})
		},
		history: func(string) Reply {
			return JSON(http.StatusOK, map[string]any{"ok": true, "mensajes": []any{}})
		},
		chat: func(_, message string) Reply {
			return JSON(http.StatusOK, map[string]any{"ok": true, "data": map[string]any{"reply": "echo: " + message}})
		},
	}

	r := chi.NewRouter()
	r.Use(s.record)
	r.Post("/login", func(w http.ResponseWriter, req *http.Request) {
		body := bodyOf(req)
		s.write(w, s.loginHandler()(str(body["email"]), str(body["password"])))
	})
	r.Get("/mensajes/{sessionID}", func(w http.ResponseWriter, req *http.Request) {
		s.write(w, s.historyHandler()(chi.URLParam(req, "sessionID")))
	})
	r.Post("/api/chat", func(w http.ResponseWriter, req *http.Request) {
		body := bodyOf(req)
		s.write(w, s.chatHandler()(str(body["session_id"]), str(body["message"])))
	})

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

func (s *Server) OnLogin(fn func(email, password string) Reply) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.login = fn
}

func (s *Server) OnHistory(fn func(sessionID string) Reply) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = fn
}

func (s *Server) OnChat(fn func(sessionID, message string) Reply) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chat = fn
}

// Requests returns a copy of every request received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Count returns the number of requests received so far.
func (s *Server) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func (s *Server) loginHandler() func(string, string) Reply {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.login
}

func (s *Server) historyHandler() func(string) Reply {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history
}

func (s *Server) chatHandler() func(string, string) Reply {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chat
}

// record stores the request and restores its body for the route handler.
type bodyKey struct{}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		var body map[string]any
		if data, err := io.ReadAll(req.Body); err == nil && len(data) > 0 {
			_ = json.Unmarshal(data, &body)
		}

		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:        req.Method,
			Path:          req.URL.Path,
			Authorization: req.Header.Get("Authorization"),
			RequestID:     req.Header.Get("X-Request-ID"),
			Body:          body,
		})
		s.mu.Unlock()

		next.ServeHTTP(w, req.WithContext(withBody(req, body)))
	})
}

func (s *Server) write(w http.ResponseWriter, r Reply) {
	status := r.Status
	if status == 0 {
		status = http.StatusOK
	}
	if r.Raw != "" {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(status)
		io.WriteString(w, r.Raw)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(r.Body)
}

func str(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}

func withBody(req *http.Request, body map[string]any) context.Context {
	return context.WithValue(req.Context(), bodyKey{}, body)
}

func bodyOf(req *http.Request) map[string]any {
	body, _ := req.Context().Value(bodyKey{}).(map[string]any)
	return body
}
