// Package notify delivers session-boundary notifications. Sinks never touch
// timer, task or stats state; a failing sink is only reported back.
package notify

import (
	"context"
	"errors"

	"github.com/sadopc/pomofocus/internal/timer"
)

// Sink is told which session type has just been loaded.
type Sink interface {
	OnSessionBoundary(ctx context.Context, next timer.SessionType) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, next timer.SessionType) error

func (f SinkFunc) OnSessionBoundary(ctx context.Context, next timer.SessionType) error {
	return f(ctx, next)
}

// Message is the human-readable text for a boundary.
type Message struct {
	Title string
	Body  string
}

// MessageFor returns the notification text announcing next.
func MessageFor(next timer.SessionType) Message {
	if next.IsBreak() {
		return Message{Title: "Break time!", Body: "Time for a break"}
	}
	return Message{Title: "Work time!", Body: "Time for a focus session"}
}

// Multi fans a boundary out to every sink. All sinks are called even when
// some fail; the failures are joined.
type Multi []Sink

func (m Multi) OnSessionBoundary(ctx context.Context, next timer.SessionType) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.OnSessionBoundary(ctx, next); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop discards every notification.
type Nop struct{}

func (Nop) OnSessionBoundary(context.Context, timer.SessionType) error { return nil }
