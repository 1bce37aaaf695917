package transcript

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fixedClock() time.Time {
	return time.Date(2025, 3, 14, 9, 5, 0, 0, time.Local)
}

func TestParseSender(t *testing.T) {
	tests := []struct {
		in   string
		want Sender
	}{
		{"usuario", User},
		{"Usuario", User},
		{"user", User},
		{"bot", Bot},
		{"asistente", Bot},
		{"sistema", System},
		{"system", System},
		{"", Bot},
		{"desconocido", Bot},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseSender(tt.in))
		})
	}
}

func TestAppendStampsTimeOfDay(t *testing.T) {
	tr := New(fixedClock)
	e := tr.Append(User, "hola")

	assert.Equal(t, Entry{Sender: User, Content: "hola", Timestamp: "09:05"}, e)
	assert.Equal(t, 1, tr.Len())
}

func TestReplaceDiscardsPriorEntries(t *testing.T) {
	tr := New(fixedClock)
	tr.Append(System, "old")
	tr.Append(User, "older")

	tr.Replace([]Entry{
		{Sender: User, Content: "a"},
		{Sender: Bot, Content: "b", Timestamp: "08:00"},
	})

	assert.Equal(t, []Entry{
		{Sender: User, Content: "a", Timestamp: "09:05"},
		{Sender: Bot, Content: "b", Timestamp: "08:00"},
	}, tr.Entries())
}

func TestEntriesIsACopy(t *testing.T) {
	tr := New(fixedClock)
	tr.Append(User, "a")

	got := tr.Entries()
	got[0].Content = "mutated"
	assert.Equal(t, "a", tr.Entries()[0].Content)
}

func TestSince(t *testing.T) {
	tr := New(fixedClock)
	tr.Append(User, "a")
	tr.Append(Bot, "b")
	tr.Append(User, "c")

	assert.Len(t, tr.Since(0), 3)
	assert.Equal(t, "c", tr.Since(2)[0].Content)
	assert.Nil(t, tr.Since(3))
	assert.Len(t, tr.Since(-1), 3)
}
