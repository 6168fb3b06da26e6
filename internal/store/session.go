package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sadopc/pomofocus/internal/session"
	"github.com/sadopc/pomofocus/internal/tasks"
	"github.com/sadopc/pomofocus/internal/timer"
)

// Load reads everything saved for user. It returns session.ErrNoState when
// the user has never been saved.
func (s *Store) Load(ctx context.Context, user string) (session.Snapshot, error) {
	var snap session.Snapshot

	var running int
	var current string
	err := s.db.QueryRowContext(ctx,
		`SELECT time_left, is_running, current_session, session_count FROM timer_state WHERE user = ?`, user,
	).Scan(&snap.Timer.TimeLeft, &running, &current, &snap.Timer.SessionCount)
	if errors.Is(err, sql.ErrNoRows) {
		return session.Snapshot{}, session.ErrNoState
	}
	if err != nil {
		return session.Snapshot{}, fmt.Errorf("load timer state: %w", err)
	}
	snap.Timer.IsRunning = running == 1
	snap.Timer.CurrentSession = timer.SessionType(current)

	settings, err := s.TimerSettings(ctx, user)
	if err != nil {
		return session.Snapshot{}, fmt.Errorf("load timer settings: %w", err)
	}
	snap.Timer.Settings = settings

	list, err := s.ListTasks(ctx, user)
	if err != nil {
		return session.Snapshot{}, err
	}
	currentID, err := s.CurrentTaskID(ctx, user)
	if err != nil {
		return session.Snapshot{}, err
	}
	snap.Tasks = tasks.Snapshot{Tasks: list, CurrentID: currentID}

	snap.Days, err = s.ListDayStats(ctx, user, "", "")
	if err != nil {
		return session.Snapshot{}, err
	}
	return snap, nil
}

// Save replaces everything stored for user in one transaction.
func (s *Store) Save(ctx context.Context, user string, snap session.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	if err := saveTimerState(ctx, tx, user, snap.Timer); err != nil {
		return err
	}
	if err := saveTimerSettings(ctx, tx, user, snap.Timer.Settings); err != nil {
		return err
	}
	if err := replaceTasks(ctx, tx, user, snap.Tasks); err != nil {
		return err
	}
	if err := replaceDayStats(ctx, tx, user, snap.Days); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

// SaveChanges writes only what differs between base and next: the
// countdown and the settings when they changed, new, edited and deleted
// tasks, a rebound current task, and day stats as increments. Rows other
// processes wrote since base was loaded are kept.
func (s *Store) SaveChanges(ctx context.Context, user string, base, next session.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	if session.CountdownChanged(base.Timer, next.Timer) {
		if err := saveTimerState(ctx, tx, user, next.Timer); err != nil {
			return err
		}
	}
	if base.Timer.Settings != next.Timer.Settings {
		if err := saveTimerSettings(ctx, tx, user, next.Timer.Settings); err != nil {
			return err
		}
	}

	upserts, deleted := session.TaskChanges(base.Tasks, next.Tasks)
	for _, id := range deleted {
		if _, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id = ? AND user = ?`, id, user); err != nil {
			return fmt.Errorf("delete task %s: %w", id, err)
		}
	}
	if err := upsertTasks(ctx, tx, user, upserts); err != nil {
		return err
	}
	if base.Tasks.CurrentID != next.Tasks.CurrentID {
		if err := bindCurrentTask(ctx, tx, user, next.Tasks.CurrentID); err != nil {
			return err
		}
	}
	if err := addDayStats(ctx, tx, user, session.DayDeltas(base.Days, next.Days)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

func saveTimerState(ctx context.Context, tx *sql.Tx, user string, st timer.State) error {
	running := 0
	if st.IsRunning {
		running = 1
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO timer_state (user, time_left, is_running, current_session, session_count, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user) DO UPDATE SET
		   time_left = excluded.time_left,
		   is_running = excluded.is_running,
		   current_session = excluded.current_session,
		   session_count = excluded.session_count,
		   updated_at = excluded.updated_at`,
		user, st.TimeLeft, running, string(st.CurrentSession), st.SessionCount,
		time.Now().UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("save timer state: %w", err)
	}
	return nil
}

// Users lists every user with saved timer state.
func (s *Store) Users(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT user FROM timer_state ORDER BY user`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

var (
	_ session.DeltaPersister = (*Store)(nil)
	_ session.History   = (*Store)(nil)
)
