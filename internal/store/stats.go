package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sadopc/pomofocus/internal/stats"
)

// ListDayStats returns the user's stored day buckets, oldest first. from and
// to are optional inclusive YYYY-MM-DD bounds.
func (s *Store) ListDayStats(ctx context.Context, user, from, to string) ([]stats.DayStats, error) {
	query := `SELECT date, sessions, focus_time, tasks_completed, breaks FROM day_stats WHERE user = ?`
	args := []any{user}
	if from != "" {
		query += ` AND date >= ?`
		args = append(args, from)
	}
	if to != "" {
		query += ` AND date <= ?`
		args = append(args, to)
	}
	query += ` ORDER BY date`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list day stats: %w", err)
	}
	defer rows.Close()

	var days []stats.DayStats
	for rows.Next() {
		var d stats.DayStats
		if err := rows.Scan(&d.Date, &d.Sessions, &d.FocusTime, &d.TasksCompleted, &d.Breaks); err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days, rows.Err()
}

// GetTotals sums the user's buckets in SQL.
func (s *Store) GetTotals(ctx context.Context, user string) (stats.Totals, error) {
	var t stats.Totals
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(CASE WHEN sessions > 0 THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(sessions), 0), COALESCE(SUM(focus_time), 0),
		       COALESCE(SUM(tasks_completed), 0), COALESCE(SUM(breaks), 0)
		FROM day_stats WHERE user = ?`, user,
	).Scan(&t.ActiveDays, &t.Sessions, &t.FocusTime, &t.TasksCompleted, &t.Breaks)
	if err != nil {
		return stats.Totals{}, fmt.Errorf("get totals: %w", err)
	}
	return t, nil
}

func replaceDayStats(ctx context.Context, tx *sql.Tx, user string, days []stats.DayStats) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM day_stats WHERE user = ?`, user); err != nil {
		return fmt.Errorf("clear day stats: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO day_stats
		(user, date, sessions, focus_time, tasks_completed, breaks) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare day stats insert: %w", err)
	}
	defer stmt.Close()

	for _, d := range days {
		if _, err := stmt.ExecContext(ctx, user, d.Date, d.Sessions, d.FocusTime, d.TasksCompleted, d.Breaks); err != nil {
			return fmt.Errorf("insert day %s: %w", d.Date, err)
		}
	}
	return nil
}

// addDayStats adds each delta to the stored bucket for its date, creating
// the bucket when missing.
func addDayStats(ctx context.Context, tx *sql.Tx, user string, deltas []stats.DayStats) error {
	for _, d := range deltas {
		_, err := tx.ExecContext(ctx, `INSERT INTO day_stats
			(user, date, sessions, focus_time, tasks_completed, breaks) VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(user, date) DO UPDATE SET
			  sessions = sessions + excluded.sessions,
			  focus_time = focus_time + excluded.focus_time,
			  tasks_completed = tasks_completed + excluded.tasks_completed,
			  breaks = breaks + excluded.breaks`,
			user, d.Date, d.Sessions, d.FocusTime, d.TasksCompleted, d.Breaks)
		if err != nil {
			return fmt.Errorf("add day %s: %w", d.Date, err)
		}
	}
	return nil
}
