package store

import (
	"time"

	"github.com/sadopc/pomofocus/internal/timer"
)

type Setting struct {
	Key   string
	Value string
}

// SessionRecord is one row of the completed-session history.
type SessionRecord struct {
	ID              int64
	User            string
	Type            timer.SessionType
	DurationMinutes int
	Next            timer.SessionType
	SessionCount    int
	Skipped         bool
	CompletedAt     time.Time
}

// HistoryFilter narrows a history query. Zero fields match everything.
type HistoryFilter struct {
	Type  timer.SessionType
	From  *time.Time
	To    *time.Time
	Limit int
}
