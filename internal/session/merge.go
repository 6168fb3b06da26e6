package session

import (
	"slices"
	"strings"
	"time"

	"github.com/sadopc/pomofocus/internal/stats"
	"github.com/sadopc/pomofocus/internal/tasks"
	"github.com/sadopc/pomofocus/internal/timer"
)

// Merge applies the changes between base and next on top of stored, the
// state another writer may have moved on since base was taken. Tasks are
// merged per task, day stats by adding the difference, the countdown and
// settings only when they changed.
func Merge(stored, base, next Snapshot) Snapshot {
	out := Snapshot{Timer: stored.Timer}
	if CountdownChanged(base.Timer, next.Timer) {
		settings := out.Timer.Settings
		out.Timer = next.Timer
		out.Timer.Settings = settings
	}
	if base.Timer.Settings != next.Timer.Settings {
		out.Timer.Settings = next.Timer.Settings
	}

	out.Tasks = mergeTasks(stored.Tasks, base.Tasks, next.Tasks)
	out.Days = mergeDays(stored.Days, DayDeltas(base.Days, next.Days))
	return out
}

// CountdownChanged reports whether anything but the settings differs.
func CountdownChanged(a, b timer.State) bool {
	a.Settings, b.Settings = timer.Settings{}, timer.Settings{}
	return a != b
}

// TaskChanges lists the tasks in next that are new or differ from base,
// newest first, and the ids in base that next no longer has.
func TaskChanges(base, next tasks.Snapshot) (upserts []tasks.Task, deleted []string) {
	before := make(map[string]tasks.Task, len(base.Tasks))
	for _, t := range base.Tasks {
		before[t.ID] = t
	}
	kept := make(map[string]bool, len(next.Tasks))
	for _, t := range next.Tasks {
		kept[t.ID] = true
		if old, ok := before[t.ID]; !ok || !sameTask(old, t) {
			upserts = append(upserts, t)
		}
	}
	for _, t := range base.Tasks {
		if !kept[t.ID] {
			deleted = append(deleted, t.ID)
		}
	}
	return upserts, deleted
}

// DayDeltas returns next minus base for every date that changed.
func DayDeltas(base, next []stats.DayStats) []stats.DayStats {
	before := make(map[string]stats.DayStats, len(base))
	for _, d := range base {
		before[d.Date] = d
	}
	var out []stats.DayStats
	for _, d := range next {
		b := before[d.Date]
		delta := stats.DayStats{
			Date:           d.Date,
			Sessions:       d.Sessions - b.Sessions,
			FocusTime:      d.FocusTime - b.FocusTime,
			TasksCompleted: d.TasksCompleted - b.TasksCompleted,
			Breaks:         d.Breaks - b.Breaks,
		}
		if !delta.Empty() {
			out = append(out, delta)
		}
	}
	return out
}

func mergeTasks(stored, base, next tasks.Snapshot) tasks.Snapshot {
	upserts, deleted := TaskChanges(base, next)

	list := slices.Clone(stored.Tasks)
	list = slices.DeleteFunc(list, func(t tasks.Task) bool { return slices.Contains(deleted, t.ID) })
	var added []tasks.Task
	for _, t := range upserts {
		if i := slices.IndexFunc(list, func(s tasks.Task) bool { return s.ID == t.ID }); i >= 0 {
			list[i] = t
		} else {
			added = append(added, t)
		}
	}
	list = append(added, list...)

	current := stored.CurrentID
	if base.CurrentID != next.CurrentID {
		current = next.CurrentID
	}
	if !slices.ContainsFunc(list, func(t tasks.Task) bool { return t.ID == current }) {
		current = ""
	}
	return tasks.Snapshot{Tasks: list, CurrentID: current}
}

func mergeDays(stored, deltas []stats.DayStats) []stats.DayStats {
	out := slices.Clone(stored)
	for _, d := range deltas {
		i := slices.IndexFunc(out, func(s stats.DayStats) bool { return s.Date == d.Date })
		if i < 0 {
			out = append(out, d)
			continue
		}
		out[i].Sessions += d.Sessions
		out[i].FocusTime += d.FocusTime
		out[i].TasksCompleted += d.TasksCompleted
		out[i].Breaks += d.Breaks
	}
	slices.SortFunc(out, func(a, b stats.DayStats) int { return strings.Compare(a.Date, b.Date) })
	return out
}

func sameTask(a, b tasks.Task) bool {
	return a.ID == b.ID && a.Title == b.Title && a.Description == b.Description &&
		slices.Equal(a.Tags, b.Tags) &&
		a.EstimatedPomodoros == b.EstimatedPomodoros && a.ActualPomodoros == b.ActualPomodoros &&
		a.Status == b.Status && a.Priority == b.Priority &&
		a.CreatedAt.Equal(b.CreatedAt) && a.UpdatedAt.Equal(b.UpdatedAt) &&
		sameTime(a.CompletedAt, b.CompletedAt)
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
