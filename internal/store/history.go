package store

import (
	"context"
	"fmt"
	"time"

	"github.com/sadopc/pomofocus/internal/timer"
)

// AppendSession logs one completed session.
func (s *Store) AppendSession(ctx context.Context, user string, ev timer.SessionComplete) error {
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	skipped := 0
	if ev.Skipped {
		skipped = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO session_log (user, session_type, duration_minutes, next_type, session_count, skipped, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user, string(ev.CompletedType), ev.CompletedDurationMinutes, string(ev.Next), ev.SessionCount, skipped,
		at.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("append session: %w", err)
	}
	return nil
}

// ListSessions returns the user's completed sessions, newest first.
func (s *Store) ListSessions(ctx context.Context, user string, f HistoryFilter) ([]SessionRecord, error) {
	query := `SELECT id, user, session_type, duration_minutes, next_type, session_count, skipped, completed_at
		FROM session_log WHERE user = ?`
	args := []any{user}

	if f.Type != "" {
		query += ` AND session_type = ?`
		args = append(args, string(f.Type))
	}
	if f.From != nil {
		query += ` AND completed_at >= ?`
		args = append(args, f.From.UTC().Format(timeFormat))
	}
	if f.To != nil {
		query += ` AND completed_at < ?`
		args = append(args, f.To.UTC().Format(timeFormat))
	}
	query += ` ORDER BY completed_at DESC, id DESC`
	if f.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionRecord
	for rows.Next() {
		var r SessionRecord
		var typ, next, completedAt string
		var skipped int
		if err := rows.Scan(&r.ID, &r.User, &typ, &r.DurationMinutes, &next, &r.SessionCount, &skipped, &completedAt); err != nil {
			return nil, err
		}
		r.Type = timer.SessionType(typ)
		r.Next = timer.SessionType(next)
		r.Skipped = skipped == 1
		r.CompletedAt, _ = time.Parse(timeFormat, completedAt)
		out = append(out, r)
	}
	return out, rows.Err()
}

// FocusStats counts completed work sessions and their minutes in [from, to).
func (s *Store) FocusStats(ctx context.Context, user string, from, to time.Time) (completed, minutes int, err error) {
	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(duration_minutes), 0)
		FROM session_log
		WHERE user = ? AND session_type = 'work'
		  AND completed_at >= ? AND completed_at < ?`,
		user, from.UTC().Format(timeFormat), to.UTC().Format(timeFormat),
	).Scan(&completed, &minutes)
	if err != nil {
		err = fmt.Errorf("focus stats: %w", err)
	}
	return
}
