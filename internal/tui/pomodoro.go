package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/pomofocus/internal/session"
	"github.com/sadopc/pomofocus/internal/timer"
)

type pomodoroModel struct {
	sess   *session.Session
	log    *slog.Logger
	width  int
	height int

	bar progress.Model
}

func newPomodoroModel(s *session.Session, log *slog.Logger) pomodoroModel {
	return pomodoroModel{
		sess: s,
		log:  log,
		bar:  progress.New(progress.WithSolidFill(string(colorPrimary)), progress.WithoutPercentage()),
	}
}

func (p *pomodoroModel) setSize(w, h int) {
	p.width = w
	p.height = h
	p.bar.Width = max(10, min(w-12, 60))
}

// advance ticks a running countdown once. It runs as a command because
// notification sinks may block.
func (p pomodoroModel) advance() tea.Cmd {
	sess, log := p.sess, p.log
	return func() tea.Msg {
		ctx := context.Background()
		from := sess.Timer().CurrentSession
		if !sess.TickIfRunning(ctx) {
			return nil
		}
		if err := sess.Save(ctx); err != nil {
			log.Warn("saving session", "user", sess.User(), "err", err)
		}
		return switchedMsg{from: from, to: sess.Timer().CurrentSession}
	}
}

func (p pomodoroModel) update(msg tea.Msg) (pomodoroModel, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return p, nil
	}

	switch {
	case key.Matches(keyMsg, keys.Toggle):
		p.sess.Toggle()
		return p, nil
	case key.Matches(keyMsg, keys.Reset):
		p.sess.Reset()
		return p, saveCmd(p.sess, p.log)
	case key.Matches(keyMsg, keys.Skip):
		if !p.sess.Skip(context.Background()) {
			return p, func() tea.Msg {
				return statusMsg{text: "Only breaks can be skipped"}
			}
		}
		return p, tea.Batch(saveCmd(p.sess, p.log), func() tea.Msg {
			return statusMsg{text: "Break skipped"}
		})
	}
	return p, nil
}

func (p pomodoroModel) view() string {
	w := p.width - 4
	st := p.sess.Timer()
	color := sessionColor(st.CurrentSession)

	title := titleStyle.Render("Pomodoro")

	timeDisplay := lipgloss.NewStyle().
		Bold(true).
		Foreground(color).
		Width(w - 6).
		Align(lipgloss.Center).
		Render(formatClock(st.TimeLeft))
	phaseLabel := lipgloss.NewStyle().Bold(true).Foreground(color).
		Render(strings.ToUpper(st.CurrentSession.Label()))

	state := warningStyle.Render("paused")
	if st.IsRunning {
		state = successStyle.Render("running")
	}

	bar := p.bar
	bar.FullColor = string(color)

	content := lipgloss.JoinVertical(lipgloss.Center,
		title,
		"",
		timeDisplay,
		phaseLabel+"  "+state,
		"",
		bar.ViewAs(p.sess.Progress()),
		"",
		renderProgress(st),
		"",
		p.renderCurrentTask(),
	)

	controls := "s/space: start/pause  r: reset"
	if st.CurrentSession.IsBreak() {
		controls += "  x: skip break"
	}

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Center, content, "", mutedStyle.Render(controls)),
	)
}

func (p pomodoroModel) renderCurrentTask() string {
	t, ok := p.sess.CurrentTask()
	if !ok {
		return mutedStyle.Render("No current task. Pick one on the Tasks tab with c.")
	}
	return fmt.Sprintf("%s %s %s",
		mutedStyle.Render("Focusing on"),
		highlightStyle.Render(t.Title),
		mutedStyle.Render(fmt.Sprintf("(%d/%d)", t.ActualPomodoros, t.EstimatedPomodoros)),
	)
}

// renderProgress draws one dot per work session in the current long-break
// cycle.
func renderProgress(st timer.State) string {
	interval := st.Settings.LongBreakInterval
	if interval < 1 {
		return ""
	}
	done := st.SessionCount % interval
	if done == 0 && st.SessionCount > 0 && st.CurrentSession == timer.LongBreak {
		done = interval
	}

	var parts []string
	for i := 0; i < interval; i++ {
		switch {
		case i < done:
			parts = append(parts, successStyle.Render("●"))
		case i == done && st.CurrentSession == timer.Work:
			parts = append(parts, selectedItemStyle.Render("◐"))
		default:
			parts = append(parts, mutedStyle.Render("○"))
		}
	}
	counter := mutedStyle.Render(fmt.Sprintf("  %d completed", st.SessionCount))
	return strings.Join(parts, " ") + counter
}
