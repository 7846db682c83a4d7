package notify

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// Terminal prints notifications to a writer. It doubles as the fallback when
// desktop delivery fails.
type Terminal struct {
	out io.Writer
}

// NewTerminal creates a terminal notification channel writing to stdout.
func NewTerminal() *Terminal {
	return &Terminal{out: os.Stdout}
}

// NewTerminalWriter creates a terminal channel writing to w.
func NewTerminalWriter(w io.Writer) *Terminal {
	return &Terminal{out: w}
}

// Send prints the notification.
func (t *Terminal) Send(ctx context.Context, title, message string) error {
	bell := color.New(color.FgYellow, color.Bold)
	if _, err := bell.Fprintf(t.out, "\n🔔 %s\n", title); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(t.out, "   %s\n", message); err != nil {
		return err
	}
	return nil
}
