package notify

import (
	"context"
	"fmt"
	"io"

	"github.com/sadopc/pomofocus/internal/timer"
)

// Bell rings the terminal bell and optionally prints the message.
type Bell struct {
	w       io.Writer
	verbose bool
}

// NewBell writes to w. With verbose set the message title and body follow
// the bell character on their own line.
func NewBell(w io.Writer, verbose bool) *Bell {
	return &Bell{w: w, verbose: verbose}
}

func (b *Bell) OnSessionBoundary(_ context.Context, next timer.SessionType) error {
	out := "\a"
	if b.verbose {
		msg := MessageFor(next)
		out += fmt.Sprintf("%s %s\n", msg.Title, msg.Body)
	}
	if _, err := io.WriteString(b.w, out); err != nil {
		return fmt.Errorf("ring bell: %w", err)
	}
	return nil
}
