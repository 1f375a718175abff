// Package clipboard copies text to the user's clipboard, falling back to an
// OSC 52 terminal escape when no system clipboard is reachable (SSH
// sessions, containers).
package clipboard

import (
	"fmt"
	"io"
	"os"

	"github.com/atotto/clipboard"
	osc52 "github.com/aymanbagabas/go-osc52/v2"
)

// Writer copies text somewhere the user can paste it from.
type Writer interface {
	WriteText(text string) error
}

// System writes through the OS clipboard and then the terminal.
type System struct {
	// Terminal receives the OSC 52 sequence; nil means stderr.
	Terminal io.Writer

	systemWrite func(string) error
	unsupported bool
}

// New returns a System writer.
func New() *System {
	return &System{
		systemWrite: clipboard.WriteAll,
		unsupported: clipboard.Unsupported,
	}
}

// WriteText copies text. The terminal fallback is used when the OS
// clipboard is missing or fails.
func (s *System) WriteText(text string) error {
	if !s.unsupported && s.systemWrite != nil {
		if err := s.systemWrite(text); err == nil {
			return nil
		}
	}
	return s.writeOSC52(text)
}

func (s *System) writeOSC52(text string) error {
	w := s.Terminal
	if w == nil {
		w = os.Stderr
	}
	seq := osc52.New(text)
	if os.Getenv("TMUX") != "" {
		seq = seq.Tmux()
	}
	if _, err := seq.WriteTo(w); err != nil {
		return fmt.Errorf("write osc52 sequence: %w", err)
	}
	return nil
}
