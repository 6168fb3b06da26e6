package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// Table selects which part of the data a CSV export writes.
type Table string

const (
	TableTasks   Table = "tasks"
	TableDays    Table = "days"
	TableHistory Table = "history"
)

// ParseTable accepts a table name from the command line.
func ParseTable(s string) (Table, error) {
	switch Table(s) {
	case TableTasks, TableDays, TableHistory:
		return Table(s), nil
	}
	return "", fmt.Errorf("unknown export table %q (want tasks, days or history)", s)
}

// ToCSV writes one table of d to path.
func ToCSV(d Data, table Table, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	if err := WriteCSV(f, d, table); err != nil {
		return err
	}
	return f.Close()
}

// WriteCSV writes one table of d to w.
func WriteCSV(out io.Writer, d Data, table Table) error {
	w := csv.NewWriter(out)

	var rows [][]string
	switch table {
	case TableTasks:
		rows = taskRows(d)
	case TableDays:
		rows = dayRows(d)
	case TableHistory:
		rows = historyRows(d)
	default:
		return fmt.Errorf("unknown export table %q", table)
	}

	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func taskRows(d Data) [][]string {
	rows := [][]string{{"ID", "Title", "Status", "Priority", "Estimated", "Actual", "Tags", "Created", "Completed", "Current"}}
	for _, t := range d.Tasks {
		completed := ""
		if t.CompletedAt != nil {
			completed = t.CompletedAt.Local().Format(time.RFC3339)
		}
		current := ""
		if t.ID == d.CurrentTaskID {
			current = "yes"
		}
		rows = append(rows, []string{
			t.ID,
			t.Title,
			string(t.Status),
			string(t.Priority),
			strconv.Itoa(t.EstimatedPomodoros),
			strconv.Itoa(t.ActualPomodoros),
			strings.Join(t.Tags, ";"),
			t.CreatedAt.Local().Format(time.RFC3339),
			completed,
			current,
		})
	}
	return rows
}

func dayRows(d Data) [][]string {
	rows := [][]string{{"Date", "Sessions", "Focus (min)", "Focus", "Tasks Completed", "Breaks"}}
	for _, day := range d.Days {
		rows = append(rows, []string{
			day.Date,
			strconv.Itoa(day.Sessions),
			strconv.Itoa(day.FocusTime),
			formatMinutes(day.FocusTime),
			strconv.Itoa(day.TasksCompleted),
			strconv.Itoa(day.Breaks),
		})
	}
	return rows
}

func historyRows(d Data) [][]string {
	rows := [][]string{{"ID", "Type", "Duration (min)", "Next", "Session Count", "Skipped", "Completed"}}
	for _, r := range d.History {
		rows = append(rows, []string{
			strconv.FormatInt(r.ID, 10),
			string(r.Type),
			strconv.Itoa(r.DurationMinutes),
			string(r.Next),
			strconv.Itoa(r.SessionCount),
			strconv.FormatBool(r.Skipped),
			r.CompletedAt.Local().Format(time.RFC3339),
		})
	}
	return rows
}

func formatMinutes(mins int) string {
	return fmt.Sprintf("%02d:%02d", mins/60, mins%60)
}
