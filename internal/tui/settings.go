package tui

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/pomofocus/internal/session"
	"github.com/sadopc/pomofocus/internal/timer"
)

type settingsModel struct {
	sess   *session.Session
	log    *slog.Logger
	width  int
	height int

	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	work       *string
	shortBreak *string
	longBreak  *string
	interval   *string
	autoBreaks *bool
	autoWork   *bool
}

func newSettingsModel(s *session.Session, log *slog.Logger) settingsModel {
	work, short, long, interval := "", "", "", ""
	autoBreaks, autoWork := false, false
	return settingsModel{
		sess:       s,
		log:        log,
		work:       &work,
		shortBreak: &short,
		longBreak:  &long,
		interval:   &interval,
		autoBreaks: &autoBreaks,
		autoWork:   &autoWork,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.New):
			return s.showForm()
		}
	}
	return s, nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	cur := s.sess.Timer().Settings
	*s.work = strconv.Itoa(cur.WorkDuration)
	*s.shortBreak = strconv.Itoa(cur.ShortBreakDuration)
	*s.longBreak = strconv.Itoa(cur.LongBreakDuration)
	*s.interval = strconv.Itoa(cur.LongBreakInterval)
	*s.autoBreaks = cur.AutoStartBreaks
	*s.autoWork = cur.AutoStartWork

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Work (min)").Value(s.work).Validate(validateAtLeast(1)),
			huh.NewInput().Title("Short break (min)").Value(s.shortBreak).Validate(validateAtLeast(1)),
			huh.NewInput().Title("Long break (min)").Value(s.longBreak).Validate(validateAtLeast(1)),
			huh.NewInput().Title("Work sessions before a long break").Value(s.interval).Validate(validateAtLeast(2)),
		).Title("Durations"),
		huh.NewGroup(
			huh.NewConfirm().Title("Start breaks automatically?").Value(s.autoBreaks),
			huh.NewConfirm().Title("Start work automatically after a break?").Value(s.autoWork),
		).Title("Automation"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		if err := s.sess.UpdateSettings(s.patch()); err != nil {
			return s, errStatus("Settings not saved: %v", err)
		}
		return s, tea.Batch(saveCmd(s.sess, s.log), func() tea.Msg {
			return statusMsg{text: "Settings saved"}
		})
	}

	return s, cmd
}

// patch builds a settings patch from the form. Values that do not parse are
// left out and keep their current setting.
func (s settingsModel) patch() timer.SettingsPatch {
	p := timer.SettingsPatch{
		WorkDuration:       atoiPtr(*s.work),
		ShortBreakDuration: atoiPtr(*s.shortBreak),
		LongBreakDuration:  atoiPtr(*s.longBreak),
		LongBreakInterval:  atoiPtr(*s.interval),
	}
	autoBreaks, autoWork := *s.autoBreaks, *s.autoWork
	p.AutoStartBreaks = &autoBreaks
	p.AutoStartWork = &autoWork
	return p
}

func atoiPtr(v string) *int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return nil
	}
	return &n
}

func (s settingsModel) view() string {
	w := s.width - 4
	title := titleStyle.Render("Settings")

	if s.formActive && s.form != nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	cur := s.sess.Timer().Settings
	items := []struct{ label, value string }{
		{"Work", fmt.Sprintf("%d min", cur.WorkDuration)},
		{"Short break", fmt.Sprintf("%d min", cur.ShortBreakDuration)},
		{"Long break", fmt.Sprintf("%d min", cur.LongBreakDuration)},
		{"Long break every", fmt.Sprintf("%d sessions", cur.LongBreakInterval)},
		{"Auto-start breaks", onOff(cur.AutoStartBreaks)},
		{"Auto-start work", onOff(cur.AutoStartWork)},
	}

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	for _, it := range items {
		label := lipgloss.NewStyle().Width(24).Render(it.label)
		rows = append(rows, fmt.Sprintf("  %s %s", label, highlightStyle.Render(it.value)))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("Press enter to edit. A running countdown keeps its remaining time."))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
