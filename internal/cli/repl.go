package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/peterh/liner"
	"github.com/raphaelgruber/chatline/internal/transcript"
)

// runREPL is the line-mode chat. It prints the history, then one prompt per
// message, printing every entry the send added.
func runREPL(ctx context.Context, sync *transcript.Synchronizer, out io.Writer) error {
	_ = sync.LoadHistory(ctx)
	printed := printEntries(out, sync.Entries())

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	for {
		input, err := line.Prompt(inputPrompt)
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}

		if _, err := sync.Send(ctx, input); err != nil {
			continue
		}
		line.AppendHistory(input)
		printed += printEntries(out, sync.Transcript().Since(printed))

		if ctx.Err() != nil {
			return nil
		}
	}
}

// printEntries writes entries one per line and returns how many it wrote.
func printEntries(out io.Writer, entries []transcript.Entry) int {
	for _, e := range entries {
		fmt.Fprintln(out, formatPlain(e))
	}
	return len(entries)
}

func formatPlain(e transcript.Entry) string {
	if e.Timestamp == "" {
		return fmt.Sprintf("%s: %s", senderLabel(e.Sender), e.Content)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Timestamp, senderLabel(e.Sender), e.Content)
}
