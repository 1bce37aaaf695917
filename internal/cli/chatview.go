package cli

import (
	"context"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/glamour"
	"github.com/raphaelgruber/chatline/internal/metrics"
	"github.com/raphaelgruber/chatline/internal/transcript"
)

const (
	defaultWrap   = 80
	inputPrompt   = "> "
	placeholder   = "Escribe un mensaje..."
	sendingStatus = "enviando..."
	quitHint      = "enter/ctrl+s enviar · esc salir"
)

// historyLoadedMsg signals that the initial history load has finished.
type historyLoadedMsg struct{}

// replyMsg carries the entry that settled an in-flight send.
type replyMsg struct {
	entry transcript.Entry
}

// chatModel is the bubbletea model for the full-screen chat.
type chatModel struct {
	ctx      context.Context
	sync     *transcript.Synchronizer
	stats    *metrics.Collector
	input    textinput.Model
	markdown *glamour.TermRenderer
	theme    Theme
	width    int
	height   int
	loading  bool
	quitting bool
}

// runChatView runs the full-screen chat until the user quits.
func runChatView(ctx context.Context, sync *transcript.Synchronizer) error {
	m := newChatModel(ctx, sync, stats, newMarkdownRenderer(cfg.Markdown, defaultWrap))
	p := tea.NewProgram(m, tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

// newMarkdownRenderer returns nil when markdown rendering is disabled or the
// renderer cannot be built; bot replies are then shown verbatim.
func newMarkdownRenderer(enabled bool, wrap int) *glamour.TermRenderer {
	if !enabled {
		return nil
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return nil
	}
	return r
}

func newChatModel(ctx context.Context, sync *transcript.Synchronizer, stats *metrics.Collector, markdown *glamour.TermRenderer) chatModel {
	ti := textinput.New()
	ti.Prompt = inputPrompt
	ti.Placeholder = placeholder
	ti.Focus()

	return chatModel{
		ctx:      ctx,
		sync:     sync,
		stats:    stats,
		input:    ti,
		markdown: markdown,
		theme:    defaultTheme,
		loading:  true,
	}
}

// Init starts the history load.
func (m chatModel) Init() tea.Cmd {
	return m.loadHistory()
}

func (m chatModel) loadHistory() tea.Cmd {
	return func() tea.Msg {
		_ = m.sync.LoadHistory(m.ctx)
		return historyLoadedMsg{}
	}
}

// deliver runs the network half of a send off the update loop.
func (m chatModel) deliver(sub transcript.Submission) tea.Cmd {
	return func() tea.Msg {
		return replyMsg{entry: m.sync.Deliver(m.ctx, sub)}
	}
}

// Update handles messages and returns the updated model.
func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.SetWidth(max(msg.Width-len(inputPrompt)-1, 10))
		if m.markdown != nil {
			if r := newMarkdownRenderer(true, max(msg.Width-4, 20)); r != nil {
				m.markdown = r
			}
		}
		return m, nil

	case historyLoadedMsg:
		m.loading = false
		return m, nil

	case replyMsg:
		return m, m.input.Focus()

	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "enter", "ctrl+s":
			return m.submit()
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit appends the user's entry right away and sends it in the background.
// Blank input, a pending history load and an in-flight send are no-ops.
func (m chatModel) submit() (tea.Model, tea.Cmd) {
	if m.loading {
		return m, nil
	}
	sub, err := m.sync.Begin(m.input.Value())
	if err != nil {
		return m, nil
	}
	m.input.Reset()
	return m, m.deliver(sub)
}

// View renders the chat.
func (m chatModel) View() tea.View {
	v := tea.NewView(m.render())
	v.AltScreen = true
	return v
}

func (m chatModel) render() string {
	if m.quitting {
		return ""
	}

	header := m.theme.headerStyle().Render(fmt.Sprintf("chatline · sesión %s", m.sync.SessionID()))
	footer := m.theme.hintStyle().Render(m.status())

	lines := strings.Split(m.renderTranscript(), "\n")
	if m.height > 0 {
		// header (2 lines incl. border), footer, input
		room := max(m.height-4, 1)
		if len(lines) > room {
			lines = lines[len(lines)-room:]
		}
	}

	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n")
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n")
	b.WriteString(footer)
	b.WriteString("\n")
	b.WriteString(m.input.View())
	return b.String()
}

func (m chatModel) status() string {
	switch {
	case m.loading:
		return "cargando historial..."
	case m.sync.Sending():
		return sendingStatus
	}
	if snap := m.stats.Operation(metrics.OpChat); snap != nil && snap.Count > 0 {
		return fmt.Sprintf("%d enviados · %.0f ms promedio · %s", snap.Count, snap.AvgTimeMs, quitHint)
	}
	return quitHint
}

func (m chatModel) renderTranscript() string {
	entries := m.sync.Entries()
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, m.renderEntry(e))
	}
	return strings.Join(parts, "\n")
}

func (m chatModel) renderEntry(e transcript.Entry) string {
	label := m.theme.senderStyle(e.Sender).Render(senderLabel(e.Sender))
	if e.Timestamp != "" {
		label = m.theme.hintStyle().Render(e.Timestamp) + " " + label
	}

	content := e.Content
	if e.Sender == transcript.Bot && m.markdown != nil {
		if out, err := m.markdown.Render(content); err == nil {
			return label + "\n" + strings.Trim(out, "\n")
		}
	}
	return label + ": " + content
}
