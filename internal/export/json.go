package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sadopc/pomofocus/internal/session"
	"github.com/sadopc/pomofocus/internal/stats"
	"github.com/sadopc/pomofocus/internal/store"
	"github.com/sadopc/pomofocus/internal/tasks"
	"github.com/sadopc/pomofocus/internal/timer"
)

// Data is everything an export can contain for one user.
type Data struct {
	User          string
	Timer         timer.State
	Tasks         []tasks.Task
	CurrentTaskID string
	Days          []stats.DayStats
	History       []store.SessionRecord
}

// FromSnapshot builds export data from a session snapshot.
func FromSnapshot(user string, snap session.Snapshot, history []store.SessionRecord) Data {
	return Data{
		User:          user,
		Timer:         snap.Timer,
		Tasks:         snap.Tasks.Tasks,
		CurrentTaskID: snap.Tasks.CurrentID,
		Days:          snap.Days,
		History:       history,
	}
}

type document struct {
	ExportedAt  string           `json:"exported_at" yaml:"exported_at"`
	User        string           `json:"user" yaml:"user"`
	Timer       timer.State      `json:"timer" yaml:"timer"`
	CurrentTask string           `json:"current_task,omitempty" yaml:"current_task,omitempty"`
	TaskCount   int              `json:"task_count" yaml:"task_count"`
	Tasks       []tasks.Task     `json:"tasks" yaml:"tasks"`
	Days        []stats.DayStats `json:"days" yaml:"days"`
	Totals      stats.Totals     `json:"totals" yaml:"totals"`
	History     []historyEntry   `json:"history,omitempty" yaml:"history,omitempty"`
}

type historyEntry struct {
	Type            timer.SessionType `json:"type" yaml:"type"`
	DurationMinutes int               `json:"duration_minutes" yaml:"duration_minutes"`
	Next            timer.SessionType `json:"next" yaml:"next"`
	Skipped         bool              `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	CompletedAt     string            `json:"completed_at" yaml:"completed_at"`
}

func newDocument(d Data, now time.Time) document {
	doc := document{
		ExportedAt:  now.UTC().Format(time.RFC3339),
		User:        d.User,
		Timer:       d.Timer,
		CurrentTask: d.CurrentTaskID,
		TaskCount:   len(d.Tasks),
		Tasks:       d.Tasks,
		Days:        d.Days,
	}
	if doc.Tasks == nil {
		doc.Tasks = []tasks.Task{}
	}
	if doc.Days == nil {
		doc.Days = []stats.DayStats{}
	}
	for _, day := range d.Days {
		if day.Sessions > 0 {
			doc.Totals.ActiveDays++
		}
		doc.Totals.Sessions += day.Sessions
		doc.Totals.FocusTime += day.FocusTime
		doc.Totals.TasksCompleted += day.TasksCompleted
		doc.Totals.Breaks += day.Breaks
	}
	for _, r := range d.History {
		doc.History = append(doc.History, historyEntry{
			Type:            r.Type,
			DurationMinutes: r.DurationMinutes,
			Next:            r.Next,
			Skipped:         r.Skipped,
			CompletedAt:     r.CompletedAt.Local().Format(time.RFC3339),
		})
	}
	return doc
}

func ToJSON(d Data, path string) error {
	data, err := json.MarshalIndent(newDocument(d, time.Now()), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}

func ToYAML(d Data, path string) error {
	data, err := yaml.Marshal(newDocument(d, time.Now()))
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write yaml file: %w", err)
	}
	return nil
}
