// Package sound plays short audio cues for timer transitions.
package sound

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// Kind identifies a cue.
type Kind string

const (
	Start    Kind = "start"
	Break    Kind = "break"
	Complete Kind = "complete"
)

// Notifier plays a cue. Implementations should return quickly; callers do
// not wait for playback and ignore failures.
type Notifier interface {
	Play(kind Kind) error
}

// Nop plays nothing.
type Nop struct{}

func (Nop) Play(Kind) error { return nil }

// Bell writes the terminal bell character.
type Bell struct {
	mu sync.Mutex
	W  io.Writer
}

// NewBell rings the bell on w (usually os.Stderr).
func NewBell(w io.Writer) *Bell {
	return &Bell{W: w}
}

func (b *Bell) Play(kind Kind) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	rings := 1
	if kind == Complete {
		rings = 2
	}
	_, err := io.WriteString(b.W, strings.Repeat("\a", rings))
	return err
}

// Command runs an external player. The literal "{kind}" in any argument is
// replaced with the cue name, e.g. ["paplay", "/usr/share/sounds/pomo/{kind}.oga"].
type Command struct {
	Argv    []string
	Timeout time.Duration
}

// NewCommand parses a whitespace-separated command line.
func NewCommand(line string) (*Command, error) {
	argv := strings.Fields(line)
	if len(argv) == 0 {
		return nil, fmt.Errorf("sound command is empty")
	}
	return &Command{Argv: argv, Timeout: 10 * time.Second}, nil
}

func (c *Command) Play(kind Kind) error {
	args := make([]string, len(c.Argv))
	for i, a := range c.Argv {
		args[i] = strings.ReplaceAll(a, "{kind}", string(kind))
	}

	ctx := context.Background()
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	if err := exec.CommandContext(ctx, args[0], args[1:]...).Run(); err != nil {
		return fmt.Errorf("playing %s cue: %w", kind, err)
	}
	return nil
}

// Modes accepted by New.
const (
	ModeBell    = "bell"
	ModeCommand = "command"
	ModeOff     = "off"
)

// New builds a Notifier for a configured mode.
func New(mode, command string, bell io.Writer) (Notifier, error) {
	switch strings.ToLower(mode) {
	case ModeOff:
		return Nop{}, nil
	case ModeBell, "":
		return NewBell(bell), nil
	case ModeCommand:
		return NewCommand(command)
	}
	return nil, fmt.Errorf("unknown sound mode %q", mode)
}
