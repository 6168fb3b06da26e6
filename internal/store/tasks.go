package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sadopc/pomofocus/internal/tasks"
)

const taskColumns = `id, title, description, tags, estimated_pomodoros, actual_pomodoros,
	status, priority, created_at, updated_at, completed_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (tasks.Task, error) {
	var t tasks.Task
	var tags, status, priority, createdAt, updatedAt string
	var completedAt sql.NullString
	err := row.Scan(&t.ID, &t.Title, &t.Description, &tags, &t.EstimatedPomodoros, &t.ActualPomodoros,
		&status, &priority, &createdAt, &updatedAt, &completedAt)
	if err != nil {
		return tasks.Task{}, err
	}
	t.Tags = decodeTags(tags)
	t.Status, err = tasks.ParseStatus(status)
	if err != nil {
		t.Status = tasks.StatusTodo
	}
	t.Priority, err = tasks.ParsePriority(priority)
	if err != nil {
		t.Priority = tasks.PriorityMedium
	}
	t.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	t.UpdatedAt, _ = time.Parse(timeFormat, updatedAt)
	if completedAt.Valid {
		c, _ := time.Parse(timeFormat, completedAt.String)
		t.CompletedAt = &c
	}
	return t, nil
}

// ListTasks returns the user's tasks in registry order, most recent first.
func (s *Store) ListTasks(ctx context.Context, user string) ([]tasks.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE user = ? ORDER BY position`, user)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var out []tasks.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// CurrentTaskID returns the user's bound task, or "" when none is bound.
func (s *Store) CurrentTaskID(ctx context.Context, user string) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT task_id FROM current_task WHERE user = ?`, user).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get current task: %w", err)
	}
	return id, nil
}

// replaceTasks swaps the user's stored tasks for snap.
func replaceTasks(ctx context.Context, tx *sql.Tx, user string, snap tasks.Snapshot) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM current_task WHERE user = ?`, user); err != nil {
		return fmt.Errorf("clear current task: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE user = ?`, user); err != nil {
		return fmt.Errorf("clear tasks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO tasks (id, user, position, title, description, tags,
		estimated_pomodoros, actual_pomodoros, status, priority, created_at, updated_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare task insert: %w", err)
	}
	defer stmt.Close()

	for i, t := range snap.Tasks {
		var completedAt any
		if t.CompletedAt != nil {
			completedAt = t.CompletedAt.UTC().Format(timeFormat)
		}
		_, err := stmt.ExecContext(ctx, t.ID, user, i, t.Title, t.Description, encodeTags(t.Tags),
			t.EstimatedPomodoros, t.ActualPomodoros, string(t.Status), string(t.Priority),
			t.CreatedAt.UTC().Format(timeFormat), t.UpdatedAt.UTC().Format(timeFormat), completedAt)
		if err != nil {
			return fmt.Errorf("insert task %s: %w", t.ID, err)
		}
	}

	if snap.CurrentID != "" {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO current_task (user, task_id) VALUES (?, ?)`, user, snap.CurrentID); err != nil {
			return fmt.Errorf("set current task: %w", err)
		}
	}
	return nil
}

// upsertTasks writes new and edited tasks. New ones go above every stored
// task, keeping the newest-first order; edited ones keep their place.
func upsertTasks(ctx context.Context, tx *sql.Tx, user string, list []tasks.Task) error {
	if len(list) == 0 {
		return nil
	}
	var top int
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MIN(position), 0) FROM tasks WHERE user = ?`, user).Scan(&top); err != nil {
		return fmt.Errorf("read task positions: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO tasks (id, user, position, title, description, tags,
		estimated_pomodoros, actual_pomodoros, status, priority, created_at, updated_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		  title = excluded.title,
		  description = excluded.description,
		  tags = excluded.tags,
		  estimated_pomodoros = excluded.estimated_pomodoros,
		  actual_pomodoros = excluded.actual_pomodoros,
		  status = excluded.status,
		  priority = excluded.priority,
		  updated_at = excluded.updated_at,
		  completed_at = excluded.completed_at
		WHERE tasks.user = excluded.user`)
	if err != nil {
		return fmt.Errorf("prepare task upsert: %w", err)
	}
	defer stmt.Close()

	for i := len(list) - 1; i >= 0; i-- {
		t := list[i]
		top--
		var completedAt any
		if t.CompletedAt != nil {
			completedAt = t.CompletedAt.UTC().Format(timeFormat)
		}
		_, err := stmt.ExecContext(ctx, t.ID, user, top, t.Title, t.Description, encodeTags(t.Tags),
			t.EstimatedPomodoros, t.ActualPomodoros, string(t.Status), string(t.Priority),
			t.CreatedAt.UTC().Format(timeFormat), t.UpdatedAt.UTC().Format(timeFormat), completedAt)
		if err != nil {
			return fmt.Errorf("upsert task %s: %w", t.ID, err)
		}
	}
	return nil
}

// bindCurrentTask points the user's current task at id. A task another
// process deleted in the meantime leaves nothing bound.
func bindCurrentTask(ctx context.Context, tx *sql.Tx, user, id string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM current_task WHERE user = ?`, user); err != nil {
		return fmt.Errorf("clear current task: %w", err)
	}
	if id == "" {
		return nil
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO current_task (user, task_id) SELECT ?, id FROM tasks WHERE id = ? AND user = ?`,
		user, id, user)
	if err != nil {
		return fmt.Errorf("set current task: %w", err)
	}
	return nil
}

// encodeTags stores tags as a JSON array so a tag may contain commas.
func encodeTags(tags []string) string {
	clean := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			clean = append(clean, t)
		}
	}
	if len(clean) == 0 {
		return ""
	}
	data, _ := json.Marshal(clean)
	return string(data)
}

// decodeTags reads encodeTags output. Values that are not a JSON array are
// treated as a comma-separated list.
func decodeTags(s string) []string {
	if strings.HasPrefix(s, "[") {
		var tags []string
		if err := json.Unmarshal([]byte(s), &tags); err == nil {
			return tags
		}
	}
	return tasks.ParseTags(s)
}
