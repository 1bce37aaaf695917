// Package transcript keeps the ordered, append-only view of a chat session
// and synchronizes it with the chat service.
package transcript

import (
	"strings"
	"sync"
	"time"
)

// Sender identifies who produced an entry.
type Sender string

const (
	User   Sender = "user"
	Bot    Sender = "bot"
	System Sender = "system"
)

// ParseSender maps the service's "remitente" values. Unknown senders are
// shown as the bot, the same as the service's own front-end does.
func ParseSender(remitente string) Sender {
	switch strings.ToLower(strings.TrimSpace(remitente)) {
	case "usuario", "user":
		return User
	case "sistema", "system":
		return System
	default:
		return Bot
	}
}

// TimeFormat is the time-of-day shown next to each entry.
const TimeFormat = "15:04"

// Entry is one displayed message. Entries are never mutated after creation.
type Entry struct {
	Sender    Sender
	Content   string
	Timestamp string
}

// Transcript is an append-only sequence; insertion order is display order.
// The only other mutation is Replace, which rebuilds it wholesale.
type Transcript struct {
	mu      sync.RWMutex
	entries []Entry
	now     func() time.Time
}

// New creates an empty transcript. now defaults to time.Now.
func New(now func() time.Time) *Transcript {
	if now == nil {
		now = time.Now
	}
	return &Transcript{now: now}
}

// Append adds one entry stamped with the current time of day.
func (t *Transcript) Append(sender Sender, content string) Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	e := Entry{Sender: sender, Content: content, Timestamp: t.now().Format(TimeFormat)}
	t.entries = append(t.entries, e)
	return e
}

// Replace discards every entry and installs entries in order. Entries
// without a timestamp are stamped with the current time of day.
func (t *Transcript) Replace(entries []Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()

	stamp := t.now().Format(TimeFormat)
	rebuilt := make([]Entry, len(entries))
	for i, e := range entries {
		if e.Timestamp == "" {
			e.Timestamp = stamp
		}
		rebuilt[i] = e
	}
	t.entries = rebuilt
}

// Entries returns a copy of all entries.
func (t *Transcript) Entries() []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]Entry(nil), t.entries...)
}

// Since returns a copy of the entries after the first n.
func (t *Transcript) Since(n int) []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if n >= len(t.entries) {
		return nil
	}
	if n < 0 {
		n = 0
	}
	return append([]Entry(nil), t.entries[n:]...)
}

func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}
