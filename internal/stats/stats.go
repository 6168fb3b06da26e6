// Package stats aggregates completed sessions and tasks into per-day buckets.
package stats

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// DateLayout is the bucket key format.
const DateLayout = "2006-01-02"

// Kind distinguishes focus sessions from breaks when recording.
type Kind string

const (
	KindWork  Kind = "work"
	KindBreak Kind = "break"
)

// DayStats is one calendar day's bucket.
type DayStats struct {
	Date           string `json:"date" yaml:"date"`
	Sessions       int    `json:"sessions" yaml:"sessions"`
	FocusTime      int    `json:"focusTime" yaml:"focus_time"` // minutes
	TasksCompleted int    `json:"tasksCompleted" yaml:"tasks_completed"`
	Breaks         int    `json:"breaks" yaml:"breaks"`
}

// Empty reports whether nothing was recorded on the day.
func (d DayStats) Empty() bool {
	return d.Sessions == 0 && d.FocusTime == 0 && d.TasksCompleted == 0 && d.Breaks == 0
}

// Totals sums every stored bucket.
type Totals struct {
	ActiveDays     int `json:"activeDays" yaml:"active_days"`
	Sessions       int `json:"sessions" yaml:"sessions"`
	FocusTime      int `json:"focusTime" yaml:"focus_time"`
	TasksCompleted int `json:"tasksCompleted" yaml:"tasks_completed"`
	Breaks         int `json:"breaks" yaml:"breaks"`
}

type Option func(*Ledger)

// WithClock overrides the time source used to find "today".
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithLocation sets the time zone that decides which calendar day an event
// belongs to. The default is time.Local.
func WithLocation(loc *time.Location) Option {
	return func(l *Ledger) {
		if loc != nil {
			l.loc = loc
		}
	}
}

// Ledger stores DayStats keyed by local date. Buckets are created on first
// write and never removed.
type Ledger struct {
	mu   sync.Mutex
	days map[string]DayStats
	now  func() time.Time
	loc  *time.Location
}

func New(opts ...Option) *Ledger {
	l := &Ledger{
		days: make(map[string]DayStats),
		now:  time.Now,
		loc:  time.Local,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Location returns the zone used for date keys.
func (l *Ledger) Location() *time.Location { return l.loc }

// DateKey returns the bucket key t falls into.
func (l *Ledger) DateKey(t time.Time) string {
	return t.In(l.loc).Format(DateLayout)
}

// RecordSession adds a completed session to today's bucket. Work sessions
// count towards Sessions and FocusTime, breaks only towards Breaks.
func (l *Ledger) RecordSession(minutes int, kind Kind) {
	l.mu.Lock()
	defer l.mu.Unlock()

	d := l.todayLocked()
	if kind == KindWork {
		d.Sessions++
		d.FocusTime += minutes
	} else {
		d.Breaks++
	}
	l.days[d.Date] = d
}

// RecordTaskCompletion counts one finished task for today.
func (l *Ledger) RecordTaskCompletion() {
	l.mu.Lock()
	defer l.mu.Unlock()

	d := l.todayLocked()
	d.TasksCompleted++
	l.days[d.Date] = d
}

// Today returns today's bucket, or a zero one that is not stored.
func (l *Ledger) Today() DayStats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.todayLocked()
}

// Day returns the bucket for a YYYY-MM-DD key, zero if absent.
func (l *Ledger) Day(date string) DayStats {
	l.mu.Lock()
	defer l.mu.Unlock()
	if d, ok := l.days[date]; ok {
		return d
	}
	return DayStats{Date: date}
}

// Weekly returns the last seven days, oldest first and ending today.
func (l *Ledger) Weekly() []DayStats {
	return l.Last(7)
}

// Last returns the trailing n days ending today, oldest first. Missing days
// are filled with zero buckets that are not stored.
func (l *Ledger) Last(n int) []DayStats {
	if n <= 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	today := l.now()
	out := make([]DayStats, 0, n)
	for i := n - 1; i >= 0; i-- {
		out = append(out, l.dayLocked(l.shift(today, -i)))
	}
	return out
}

// Range returns every day from from to to inclusive, oldest first.
func (l *Ledger) Range(from, to time.Time) ([]DayStats, error) {
	start := l.noon(from)
	end := l.noon(to)
	if end.Before(start) {
		return nil, fmt.Errorf("invalid range: %s is after %s", l.DateKey(from), l.DateKey(to))
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	var out []DayStats
	for d := start; !d.After(end); d = l.shift(d, 1) {
		out = append(out, l.dayLocked(d))
	}
	return out, nil
}

// Streak counts consecutive days with at least one work session, scanning
// back from today and stopping at the first day without one. A today with no
// sessions yet does not break the chain; the scan then starts at yesterday.
// maxDays caps the result; zero or less means uncapped.
func (l *Ledger) Streak(maxDays int) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	day := l.now()
	if l.dayLocked(day).Sessions == 0 {
		day = l.shift(day, -1)
	}

	streak := 0
	for maxDays <= 0 || streak < maxDays {
		if l.dayLocked(day).Sessions == 0 {
			break
		}
		streak++
		day = l.shift(day, -1)
	}
	return streak
}

// Totals sums the whole ledger.
func (l *Ledger) Totals() Totals {
	l.mu.Lock()
	defer l.mu.Unlock()

	var t Totals
	for _, d := range l.days {
		if d.Sessions > 0 {
			t.ActiveDays++
		}
		t.Sessions += d.Sessions
		t.FocusTime += d.FocusTime
		t.TasksCompleted += d.TasksCompleted
		t.Breaks += d.Breaks
	}
	return t
}

// Days returns every stored bucket sorted by date.
func (l *Ledger) Days() []DayStats {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]DayStats, 0, len(l.days))
	for _, d := range l.days {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// Restore replaces the ledger contents. Buckets with a malformed date are
// skipped and reported.
func (l *Ledger) Restore(days []DayStats) error {
	next := make(map[string]DayStats, len(days))
	var bad []string
	for _, d := range days {
		if _, err := time.Parse(DateLayout, d.Date); err != nil {
			bad = append(bad, d.Date)
			continue
		}
		next[d.Date] = d
	}

	l.mu.Lock()
	l.days = next
	l.mu.Unlock()

	if len(bad) > 0 {
		return fmt.Errorf("restore stats: skipped %d buckets with bad dates %q", len(bad), bad)
	}
	return nil
}

func (l *Ledger) todayLocked() DayStats {
	return l.dayLocked(l.now())
}

func (l *Ledger) dayLocked(t time.Time) DayStats {
	key := l.DateKey(t)
	if d, ok := l.days[key]; ok {
		return d
	}
	return DayStats{Date: key}
}

// noon pins t to midday of its local date so adding days never lands on
// the wrong side of a DST transition.
func (l *Ledger) noon(t time.Time) time.Time {
	y, m, d := t.In(l.loc).Date()
	return time.Date(y, m, d, 12, 0, 0, 0, l.loc)
}

func (l *Ledger) shift(t time.Time, days int) time.Time {
	y, m, d := t.In(l.loc).Date()
	return time.Date(y, m, d+days, 12, 0, 0, 0, l.loc)
}
