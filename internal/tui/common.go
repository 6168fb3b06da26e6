package tui

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/pomofocus/internal/session"
	"github.com/sadopc/pomofocus/internal/store"
	"github.com/sadopc/pomofocus/internal/timer"
)

// viewState represents the currently active view.
type viewState int

const (
	viewTimer viewState = iota
	viewTasks
	viewStats
	viewSettings
)

var viewNames = []string{"Timer", "Tasks", "Stats", "Settings"}

// HistorySource lists recorded sessions, newest first. *store.Store
// satisfies it.
type HistorySource interface {
	ListSessions(ctx context.Context, user string, f store.HistoryFilter) ([]store.SessionRecord, error)
}

// Options configures the parts of the app that live outside the session.
type Options struct {
	// StreakDays caps how far back the streak is counted.
	StreakDays int
	History    HistorySource
	Logger     *slog.Logger
}

// --- Messages ---

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

// switchedMsg reports a session boundary crossed by the countdown.
type switchedMsg struct {
	from, to timer.SessionType
}

type exportDoneMsg struct {
	path string
}

type historyMsg struct {
	records []store.SessionRecord
	err     error
}

// --- Helpers ---

// formatClock renders seconds as MM:SS; minutes may exceed 59.
func formatClock(secs int) string {
	if secs < 0 {
		secs = 0
	}
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

func formatMinutes(mins int) string {
	if mins < 60 {
		return fmt.Sprintf("%dm", mins)
	}
	return fmt.Sprintf("%dh %02dm", mins/60, mins%60)
}

func errStatus(format string, err error) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{text: fmt.Sprintf(format, err), isError: true}
	}
}

// saveCmd persists the session in the background.
func saveCmd(sess *session.Session, log *slog.Logger) tea.Cmd {
	return func() tea.Msg {
		if err := sess.Save(context.Background()); err != nil {
			log.Warn("saving session", "user", sess.User(), "err", err)
			return statusMsg{text: fmt.Sprintf("Save failed: %v", err), isError: true}
		}
		return nil
	}
}
