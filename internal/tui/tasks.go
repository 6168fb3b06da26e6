package tui

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/pomofocus/internal/session"
	"github.com/sadopc/pomofocus/internal/tasks"
)

// statusFilters are cycled with the filter key; the empty status shows all.
var statusFilters = []tasks.Status{"", tasks.StatusTodo, tasks.StatusInProgress, tasks.StatusDone}

type tasksModel struct {
	sess   *session.Session
	log    *slog.Logger
	width  int
	height int

	cursor int
	filter int

	formActive bool
	form       *huh.Form

	// Form field pointers (survive value copies)
	formTitle    *string
	formDesc     *string
	formTags     *string
	formEstimate *string
	formPriority *string
}

func newTasksModel(s *session.Session, log *slog.Logger) tasksModel {
	title, desc, tags, est, prio := "", "", "", "1", string(tasks.PriorityMedium)
	return tasksModel{
		sess:         s,
		log:          log,
		formTitle:    &title,
		formDesc:     &desc,
		formTags:     &tags,
		formEstimate: &est,
		formPriority: &prio,
	}
}

func (m *tasksModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

// visible returns the tasks shown under the active filter.
func (m tasksModel) visible() []tasks.Task {
	if st := statusFilters[m.filter]; st != "" {
		return m.sess.TasksByStatus(st)
	}
	return m.sess.Tasks()
}

// selected returns the task under the cursor.
func (m tasksModel) selected() (tasks.Task, bool) {
	list := m.visible()
	if len(list) == 0 {
		return tasks.Task{}, false
	}
	return list[min(m.cursor, len(list)-1)], true
}

func (m tasksModel) update(msg tea.Msg) (tasksModel, tea.Cmd) {
	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(keyMsg, keys.Down):
		if m.cursor < len(m.visible())-1 {
			m.cursor++
		}
	case key.Matches(keyMsg, keys.Filter):
		m.filter = (m.filter + 1) % len(statusFilters)
		m.cursor = 0
	case key.Matches(keyMsg, keys.New):
		return m.showNewTaskForm()
	case key.Matches(keyMsg, keys.Done):
		if t, ok := m.selected(); ok {
			m.sess.ToggleTask(t.ID)
			m.clampCursor()
			return m, saveCmd(m.sess, m.log)
		}
	case key.Matches(keyMsg, keys.Current):
		if t, ok := m.selected(); ok {
			if cur, ok := m.sess.CurrentTask(); ok && cur.ID == t.ID {
				m.sess.ClearCurrentTask()
			} else {
				m.sess.SetCurrentTask(t.ID)
			}
			m.clampCursor()
			return m, saveCmd(m.sess, m.log)
		}
	case key.Matches(keyMsg, keys.Delete):
		if t, ok := m.selected(); ok {
			m.sess.DeleteTask(t.ID)
			m.clampCursor()
			return m, tea.Batch(saveCmd(m.sess, m.log), func() tea.Msg {
				return statusMsg{text: "Deleted " + t.Title}
			})
		}
	}
	return m, nil
}

// clampCursor keeps the cursor in range after the list shrank.
func (m *tasksModel) clampCursor() {
	if n := len(m.visible()); m.cursor >= n {
		m.cursor = max(0, n-1)
	}
}

func (m tasksModel) showNewTaskForm() (tasksModel, tea.Cmd) {
	*m.formTitle = ""
	*m.formDesc = ""
	*m.formTags = ""
	*m.formEstimate = "1"
	*m.formPriority = string(tasks.PriorityMedium)

	prioOptions := make([]huh.Option[string], len(tasks.Priorities))
	for i, p := range tasks.Priorities {
		prioOptions[i] = huh.NewOption(string(p), string(p))
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Title").Value(m.formTitle).Validate(validateTitle),
			huh.NewInput().Title("Description").Value(m.formDesc),
			huh.NewInput().Title("Estimated pomodoros").Value(m.formEstimate).Validate(validateAtLeast(1)),
			huh.NewSelect[string]().Title("Priority").Options(prioOptions...).Value(m.formPriority),
			huh.NewInput().Title("Tags (comma-separated)").Value(m.formTags),
		),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func (m tasksModel) updateForm(msg tea.Msg) (tasksModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			m.formActive = false
			m.form = nil
			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.formActive = false
		est, _ := strconv.Atoi(strings.TrimSpace(*m.formEstimate))
		t, err := m.sess.AddTask(tasks.NewTask{
			Title:              *m.formTitle,
			Description:        strings.TrimSpace(*m.formDesc),
			Tags:               tasks.ParseTags(*m.formTags),
			EstimatedPomodoros: est,
			Priority:           tasks.Priority(*m.formPriority),
		})
		if err != nil {
			return m, errStatus("Add task: %v", err)
		}
		m.cursor = 0
		return m, tea.Batch(saveCmd(m.sess, m.log), func() tea.Msg {
			return statusMsg{text: "Added " + t.Title}
		})
	}

	return m, cmd
}

func validateTitle(s string) error {
	if strings.TrimSpace(s) == "" {
		return tasks.ErrEmptyTitle
	}
	return nil
}

// validateAtLeast accepts whole numbers no smaller than n.
func validateAtLeast(n int) func(string) error {
	return func(s string) error {
		v, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return errors.New("enter a whole number")
		}
		if v < n {
			return fmt.Errorf("must be at least %d", n)
		}
		return nil
	}
}

func (m tasksModel) view() string {
	w := m.width - 4

	if m.formActive && m.form != nil {
		title := titleStyle.Render("New Task")
		content := lipgloss.JoinVertical(lipgloss.Left, title, "", m.form.View())
		return panelStyle.Width(w).Render(content)
	}

	title := titleStyle.Render("Tasks")
	if st := statusFilters[m.filter]; st != "" {
		title += mutedStyle.Render("  (" + strings.ReplaceAll(string(st), "_", " ") + ")")
	}

	list := m.visible()
	if len(list) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No tasks here. Press n to add one."),
		)
		return panelStyle.Width(w).Render(content)
	}

	cur, _ := m.sess.CurrentTask()
	cursor := min(m.cursor, len(list)-1)

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-3s %-32s %-8s %9s", "", "Title", "Priority", "Pomodoros")))

	for i, t := range list {
		pointer := "  "
		style := normalItemStyle
		if i == cursor {
			pointer = "> "
			style = selectedItemStyle
		}
		if t.Status == tasks.StatusDone {
			style = doneItemStyle
		}
		marker := " "
		if t.ID == cur.ID {
			marker = highlightStyle.Render("▶")
		}
		prio := lipgloss.NewStyle().Foreground(priorityColor(t.Priority)).Render(fmt.Sprintf("%-8s", t.Priority))
		row := pointer + marker + " " + statusBox(t.Status) + " " +
			style.Render(fmt.Sprintf("%-32s", truncate(t.Title, 32))) + " " + prio +
			fmt.Sprintf(" %4d/%-4d", t.ActualPomodoros, t.EstimatedPomodoros)
		if len(t.Tags) > 0 {
			row += mutedStyle.Render(" [" + strings.Join(t.Tags, ", ") + "]")
		}
		rows = append(rows, row)
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: new  enter: done/undo  c: focus  d: delete  f: filter"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func statusBox(st tasks.Status) string {
	switch st {
	case tasks.StatusDone:
		return successStyle.Render("[x]")
	case tasks.StatusInProgress:
		return warningStyle.Render("[~]")
	}
	return "[ ]"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
