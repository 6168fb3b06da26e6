package tui

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/pomofocus/internal/session"
	"github.com/sadopc/pomofocus/internal/store"
)

// App is the root Bubble Tea model. Every view reads and mutates the one
// session it was built with.
type App struct {
	sess   *session.Session
	opts   Options
	width  int
	height int

	activeView viewState
	picker     exportPicker

	pomodoro pomodoroModel
	taskList tasksModel
	reports  reportsModel
	settings settingsModel

	help      help.Model
	status    string
	statusErr bool
}

// NewApp builds the UI around an already loaded session. The caller saves
// the session once the program exits.
func NewApp(sess *session.Session, opts Options) App {
	if s, ok := opts.History.(*store.Store); ok && s == nil {
		opts.History = nil
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	return App{
		sess:     sess,
		opts:     opts,
		pomodoro: newPomodoroModel(sess, opts.Logger),
		taskList: newTasksModel(sess, opts.Logger),
		reports:  newReportsModel(sess, opts),
		settings: newSettingsModel(sess, opts.Logger),
		help:     help.New(),
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(tickCmd(), a.reports.refresh())
}

// tickCmd schedules the next countdown tick one second out.
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.resize(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case tickMsg:
		return a, tea.Batch(tickCmd(), a.pomodoro.advance())

	case switchedMsg:
		a.setStatus(fmt.Sprintf("%s complete. %s next.", msg.from.Label(), msg.to.Label()), false)
		return a, a.reports.refresh()

	case historyMsg:
		var cmd tea.Cmd
		a.reports, cmd = a.reports.update(msg)
		return a, cmd

	case statusMsg:
		a.setStatus(msg.text, msg.isError)
		return a, nil

	case exportDoneMsg:
		a.setStatus("Exported to "+msg.path, false)
		return a, nil
	}

	return a.updateActiveView(msg)
}

func (a *App) resize(w, h int) {
	a.width, a.height = w, h
	a.help.Width = w
	body := h - 4 // header + footer
	a.pomodoro.setSize(w, body)
	a.taskList.setSize(w, body)
	a.reports.setSize(w, body)
	a.settings.setSize(w, body)
}

func (a *App) setStatus(text string, isErr bool) {
	a.status = text
	a.statusErr = isErr
}

func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.picker.active {
		var format exportFormat
		var chosen bool
		a.picker, format, chosen = a.picker.update(msg)
		if !chosen {
			return a, nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return a, errStatus("Export error: %v", err)
		}
		return a, exportCmd(a.sess, a.opts.History, a.opts.Logger, format, home)
	}

	// An open form gets every key, including the global ones.
	if a.isFormActive() {
		return a.updateActiveView(msg)
	}

	switch {
	case key.Matches(msg, keys.Quit):
		return a, tea.Quit
	case key.Matches(msg, keys.Help):
		a.help.ShowAll = !a.help.ShowAll
		return a, nil
	case key.Matches(msg, keys.Export):
		a.picker = exportPicker{active: true}
		return a, nil
	case key.Matches(msg, keys.Tab1):
		return a.switchTo(viewTimer)
	case key.Matches(msg, keys.Tab2):
		return a.switchTo(viewTasks)
	case key.Matches(msg, keys.Tab3):
		return a.switchTo(viewStats)
	case key.Matches(msg, keys.Tab4):
		return a.switchTo(viewSettings)
	case key.Matches(msg, keys.Tab):
		return a.switchTo((a.activeView + 1) % viewState(len(viewNames)))
	}
	return a.updateActiveView(msg)
}

func (a App) switchTo(v viewState) (tea.Model, tea.Cmd) {
	a.activeView = v
	if v == viewStats {
		return a, a.reports.refresh()
	}
	return a, nil
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewTimer:
		a.pomodoro, cmd = a.pomodoro.update(msg)
	case viewTasks:
		a.taskList, cmd = a.taskList.update(msg)
	case viewStats:
		a.reports, cmd = a.reports.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewTasks:
		return a.taskList.formActive
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var body string
	switch {
	case a.picker.active:
		body = a.picker.view(a.width - 4)
	case a.activeView == viewTimer:
		body = a.pomodoro.view()
	case a.activeView == viewTasks:
		body = a.taskList.view()
	case a.activeView == viewStats:
		body = a.reports.view()
	case a.activeView == viewSettings:
		body = a.settings.view()
	}

	bodyHeight := max(a.height-lipgloss.Height(header)-lipgloss.Height(footer), 1)
	body = lipgloss.NewStyle().Width(a.width).Height(bodyHeight).Render(body)

	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

// spread places left and right on one line of the full width.
func (a App) spread(left, right string, margin int) string {
	gap := max(a.width-lipgloss.Width(left)-lipgloss.Width(right)-margin, 1)
	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, lipgloss.NewStyle().Width(gap).Render(""), right)
}

func (a App) renderHeader() string {
	tabs := make([]string, len(viewNames))
	for i, name := range viewNames {
		style := inactiveTabStyle
		if viewState(i) == a.activeView {
			style = activeTabStyle
		}
		tabs[i] = style.Render(name)
	}

	title := selectedItemStyle.Render("pomofocus")
	if user := a.sess.User(); user != session.DefaultUser {
		title += mutedStyle.Render(" · " + user)
	}

	return headerStyle.Render(a.spread(title, lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...), 4))
}

func (a App) renderFooter() string {
	st := a.sess.Timer()
	clock := fmt.Sprintf("%s %s", st.CurrentSession.Label(), formatClock(st.TimeLeft))
	right := warningStyle.Render(" ⏸ " + clock)
	if st.IsRunning {
		right = successStyle.Render(" ● " + clock)
	}
	if a.status != "" {
		style := mutedStyle
		if a.statusErr {
			style = errorStyle
		}
		right += style.Render(" " + a.status)
	}

	return a.spread(footerStyle.Render(a.help.View(keys)), right, 2)
}
