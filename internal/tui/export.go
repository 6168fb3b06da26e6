package tui

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/pomofocus/internal/export"
	"github.com/sadopc/pomofocus/internal/session"
	"github.com/sadopc/pomofocus/internal/store"
)

type exportFormat int

const (
	exportJSON exportFormat = iota
	exportYAML
	exportTasksCSV
	exportDaysCSV
)

var exportFormatNames = []string{"JSON", "YAML", "CSV (tasks)", "CSV (daily stats)"}

// exportPicker is the overlay for choosing an export format.
type exportPicker struct {
	active bool
	cursor int
}

// update handles a key while the picker is open. It reports the chosen
// format once enter is pressed.
func (p exportPicker) update(msg tea.KeyMsg) (exportPicker, exportFormat, bool) {
	switch {
	case key.Matches(msg, keys.Up):
		p.cursor = max(p.cursor-1, 0)
	case key.Matches(msg, keys.Down):
		p.cursor = min(p.cursor+1, len(exportFormatNames)-1)
	case key.Matches(msg, keys.Enter):
		p.active = false
		return p, exportFormat(p.cursor), true
	case key.Matches(msg, keys.Back):
		p.active = false
	}
	return p, 0, false
}

func (p exportPicker) view(width int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Export to your home directory"))
	b.WriteString("\n\n")
	for i, name := range exportFormatNames {
		if i == p.cursor {
			b.WriteString(selectedItemStyle.Render("> " + name))
		} else {
			b.WriteString(normalItemStyle.Render("  " + name))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("  enter: export  esc: cancel"))
	return activePanelStyle.Width(width).Render(b.String())
}

// exportCmd writes the session and its history into dir.
func exportCmd(sess *session.Session, src HistorySource, log *slog.Logger, format exportFormat, dir string) tea.Cmd {
	return func() tea.Msg {
		var history []store.SessionRecord
		if src != nil {
			var err error
			history, err = src.ListSessions(context.Background(), sess.User(), store.HistoryFilter{})
			if err != nil {
				return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
			}
		}
		data := export.FromSnapshot(sess.User(), sess.Snapshot(), history)

		base := filepath.Join(dir, fmt.Sprintf("pomofocus-%s-%s", sess.User(), time.Now().Format("2006-01-02")))
		var path string
		var err error
		switch format {
		case exportJSON:
			path = base + ".json"
			err = export.ToJSON(data, path)
		case exportYAML:
			path = base + ".yaml"
			err = export.ToYAML(data, path)
		case exportTasksCSV:
			path = base + "-tasks.csv"
			err = export.ToCSV(data, export.TableTasks, path)
		default:
			path = base + "-days.csv"
			err = export.ToCSV(data, export.TableDays, path)
		}
		if err != nil {
			log.Warn("export failed", "path", path, "err", err)
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}
		return exportDoneMsg{path: path}
	}
}
