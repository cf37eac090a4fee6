// Package shared provides common utilities shared between mode controllers.
package shared

import (
	"io"
	"os"

	"github.com/atotto/clipboard"
	"github.com/aymanbagabas/go-osc52/v2"
)

// Clipboard defines the interface for clipboard operations.
type Clipboard interface {
	Copy(text string) error
}

// SystemClipboard copies through the OS clipboard, or through an OSC 52
// escape sequence when running remotely or inside a multiplexer where the
// local clipboard is not the user's.
type SystemClipboard struct {
	// Out receives OSC 52 sequences. Defaults to os.Stderr.
	Out io.Writer
}

// MockClipboard records the last copied text.
type MockClipboard struct {
	Text *string
}

// Copy stores text.
func (m MockClipboard) Copy(text string) error {
	if m.Text != nil {
		*m.Text = text
	}
	return nil
}

// Copy copies text to the clipboard.
func (c SystemClipboard) Copy(text string) error {
	if !shouldUseOSC52() {
		return clipboard.WriteAll(text)
	}

	out := c.Out
	if out == nil {
		out = os.Stderr
	}
	seq := osc52.New(text)
	switch {
	case os.Getenv("TMUX") != "":
		seq = seq.Tmux()
	case os.Getenv("STY") != "":
		seq = seq.Screen()
	}
	_, err := seq.WriteTo(out)
	return err
}

func shouldUseOSC52() bool {
	for _, env := range []string{"SSH_TTY", "SSH_CLIENT", "SSH_CONNECTION", "TMUX", "STY"} {
		if os.Getenv(env) != "" {
			return true
		}
	}
	return false
}
