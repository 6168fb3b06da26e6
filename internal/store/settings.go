package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/sadopc/pomofocus/internal/timer"
)

// Timer setting keys.
const (
	KeyWorkDuration       = "work_duration"
	KeyShortBreakDuration = "short_break_duration"
	KeyLongBreakDuration  = "long_break_duration"
	KeyLongBreakInterval  = "long_break_interval"
	KeyAutoStartBreaks    = "auto_start_breaks"
	KeyAutoStartWork      = "auto_start_work"
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func setSetting(ctx context.Context, db execer, user, key, value string) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO settings (user, key, value) VALUES (?, ?, ?)
		 ON CONFLICT(user, key) DO UPDATE SET value = excluded.value`,
		user, key, value,
	)
	if err != nil {
		return fmt.Errorf("set setting %q: %w", key, err)
	}
	return nil
}

func (s *Store) GetAllSettings(ctx context.Context, user string) ([]Setting, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM settings WHERE user = ? ORDER BY key`, user)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	var settings []Setting
	for rows.Next() {
		var s Setting
		if err := rows.Scan(&s.Key, &s.Value); err != nil {
			return nil, err
		}
		settings = append(settings, s)
	}
	return settings, rows.Err()
}

// TimerSettings reads the user's timer settings. Missing keys keep their
// default values; unparsable ones are reported.
func (s *Store) TimerSettings(ctx context.Context, user string) (timer.Settings, error) {
	all, err := s.GetAllSettings(ctx, user)
	if err != nil {
		return timer.DefaultSettings(), err
	}
	return timerSettingsFrom(all)
}

func timerSettingsFrom(all []Setting) (timer.Settings, error) {
	ts := timer.DefaultSettings()
	ints := map[string]*int{
		KeyWorkDuration:       &ts.WorkDuration,
		KeyShortBreakDuration: &ts.ShortBreakDuration,
		KeyLongBreakDuration:  &ts.LongBreakDuration,
		KeyLongBreakInterval:  &ts.LongBreakInterval,
	}
	bools := map[string]*bool{
		KeyAutoStartBreaks: &ts.AutoStartBreaks,
		KeyAutoStartWork:   &ts.AutoStartWork,
	}

	var errs []error
	for _, kv := range all {
		if p, ok := ints[kv.Key]; ok {
			v, err := strconv.Atoi(kv.Value)
			if err != nil {
				errs = append(errs, fmt.Errorf("setting %q: %w", kv.Key, err))
				continue
			}
			*p = v
		}
		if p, ok := bools[kv.Key]; ok {
			v, err := strconv.ParseBool(kv.Value)
			if err != nil {
				errs = append(errs, fmt.Errorf("setting %q: %w", kv.Key, err))
				continue
			}
			*p = v
		}
	}
	return ts, errors.Join(errs...)
}

// saveTimerSettings writes every timer setting for the user.
func saveTimerSettings(ctx context.Context, db execer, user string, ts timer.Settings) error {
	values := []Setting{
		{KeyWorkDuration, strconv.Itoa(ts.WorkDuration)},
		{KeyShortBreakDuration, strconv.Itoa(ts.ShortBreakDuration)},
		{KeyLongBreakDuration, strconv.Itoa(ts.LongBreakDuration)},
		{KeyLongBreakInterval, strconv.Itoa(ts.LongBreakInterval)},
		{KeyAutoStartBreaks, strconv.FormatBool(ts.AutoStartBreaks)},
		{KeyAutoStartWork, strconv.FormatBool(ts.AutoStartWork)},
	}
	for _, kv := range values {
		if err := setSetting(ctx, db, user, kv.Key, kv.Value); err != nil {
			return err
		}
	}
	return nil
}
