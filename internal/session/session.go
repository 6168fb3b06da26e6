// Package session binds one user's timer, task registry and stats ledger
// together and serializes every operation on them.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sadopc/pomofocus/internal/insights"
	"github.com/sadopc/pomofocus/internal/notify"
	"github.com/sadopc/pomofocus/internal/stats"
	"github.com/sadopc/pomofocus/internal/tasks"
	"github.com/sadopc/pomofocus/internal/timer"
)

// DefaultUser is used when no user is configured.
const DefaultUser = "local"

// ErrNoState is returned by a Persister that has nothing saved for a user.
var ErrNoState = errors.New("no saved state")

// ErrLoadFailed is returned by Save after a failed Load, so the defaults the
// session fell back to never replace what is stored.
var ErrLoadFailed = errors.New("session state failed to load")

// Snapshot is everything persisted for one user.
type Snapshot struct {
	Timer timer.State      `json:"timer" yaml:"timer"`
	Tasks tasks.Snapshot   `json:"tasks" yaml:"tasks"`
	Days  []stats.DayStats `json:"days" yaml:"days"`
}

// History keeps a record of every completed session.
type History interface {
	AppendSession(ctx context.Context, user string, ev timer.SessionComplete) error
}

// Persister loads and saves user snapshots.
type Persister interface {
	Load(ctx context.Context, user string) (Snapshot, error)
	Save(ctx context.Context, user string, snap Snapshot) error
}

// DeltaPersister is a Persister that can write only the difference between
// the snapshot it last loaded or saved and the current one. Rows written by
// other processes in the meantime are left alone.
type DeltaPersister interface {
	Persister
	SaveChanges(ctx context.Context, user string, base, next Snapshot) error
}

type config struct {
	settings  timer.Settings
	now       func() time.Time
	loc       *time.Location
	sink      notify.Sink
	persister Persister
	history   History
	logger    *slog.Logger

	syncOnSwitch bool
}

// Option configures a Session.
type Option func(*config)

// WithSettings sets the initial timer settings.
func WithSettings(s timer.Settings) Option { return func(c *config) { c.settings = s } }

// WithClock overrides the wall clock for every component.
func WithClock(now func() time.Time) Option { return func(c *config) { c.now = now } }

// WithLocation sets the zone used for day buckets.
func WithLocation(loc *time.Location) Option { return func(c *config) { c.loc = loc } }

// WithSink sets where session-boundary notifications go.
func WithSink(s notify.Sink) Option { return func(c *config) { c.sink = s } }

// WithPersister enables Load and Save.
func WithPersister(p Persister) Option { return func(c *config) { c.persister = p } }

// WithHistory records completed sessions as they happen.
func WithHistory(h History) Option { return func(c *config) { c.history = h } }

func WithLogger(l *slog.Logger) Option { return func(c *config) { c.logger = l } }

// WithSyncOnSwitch makes TickIfRunning call Sync right before the tick that
// ends a session, so credit and stats land on state other processes wrote.
func WithSyncOnSwitch() Option { return func(c *config) { c.syncOnSwitch = true } }

// Session is one user's running state. All methods are safe for concurrent
// use; they are serialized by a single mutex.
type Session struct {
	user string
	cfg  config

	mu      sync.Mutex
	engine  *timer.Engine
	tasks   *tasks.Registry
	ledger  *stats.Ledger
	pending []timer.SessionComplete

	// base is the state last loaded from or saved to the persister.
	base       Snapshot
	loadFailed bool

	// saveMu orders Save, Load and Sync so each save diffs against the
	// previous one.
	saveMu sync.Mutex
}

func New(user string, opts ...Option) *Session {
	if user == "" {
		user = DefaultUser
	}
	cfg := config{
		settings: timer.DefaultSettings(),
		now:      time.Now,
		loc:      time.Local,
		sink:     notify.Nop{},
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	cfg.logger = cfg.logger.With("user", user)

	s := &Session{user: user, cfg: cfg}
	s.init(cfg.settings)
	return s
}

func (s *Session) init(settings timer.Settings) {
	s.engine = timer.New(settings, timer.WithClock(s.cfg.now))
	s.tasks = tasks.New(tasks.WithClock(s.cfg.now))
	s.ledger = stats.New(stats.WithClock(s.cfg.now), stats.WithLocation(s.cfg.loc))
	s.pending = nil

	// Both listeners run synchronously inside calls made under s.mu.
	s.engine.Subscribe(timer.ListenerFunc(func(ev timer.SessionComplete) {
		s.pending = append(s.pending, ev)
	}))
	s.tasks.Subscribe(tasks.ListenerFunc(func(tasks.Task) {
		s.ledger.RecordTaskCompletion()
	}))
}

// User returns the id the session belongs to.
func (s *Session) User() string { return s.user }

// ============================================================
// Timer
// ============================================================

func (s *Session) Timer() timer.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Snapshot()
}

func (s *Session) Progress() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Progress()
}

func (s *Session) Start() {
	s.mu.Lock()
	s.engine.Start()
	s.mu.Unlock()
}

func (s *Session) Pause() {
	s.mu.Lock()
	s.engine.Pause()
	s.mu.Unlock()
}

func (s *Session) Toggle() {
	s.mu.Lock()
	s.engine.Toggle()
	s.mu.Unlock()
}

func (s *Session) Reset() {
	s.mu.Lock()
	s.engine.Reset()
	s.mu.Unlock()
}

// Tick advances the timer by one second regardless of whether it is
// running, and settles any session switch. It reports whether one happened.
func (s *Session) Tick(ctx context.Context) bool {
	s.mu.Lock()
	switched := s.engine.Tick()
	events := s.settleLocked()
	s.mu.Unlock()

	s.announce(ctx, events)
	return switched
}

// TickIfRunning is Tick gated on the timer running, checked under the same
// lock. This is what tick sources call.
func (s *Session) TickIfRunning(ctx context.Context) bool {
	if s.cfg.syncOnSwitch && s.switchDue() {
		if err := s.Sync(ctx); err != nil {
			s.cfg.logger.Warn("sync before session switch failed", "error", err)
		}
	}

	s.mu.Lock()
	if !s.engine.Snapshot().IsRunning {
		s.mu.Unlock()
		return false
	}
	switched := s.engine.Tick()
	events := s.settleLocked()
	s.mu.Unlock()

	s.announce(ctx, events)
	return switched
}

// switchDue reports whether the next tick of a running timer ends the
// session.
func (s *Session) switchDue() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.engine.Snapshot()
	return st.IsRunning && st.TimeLeft == 0
}

// Skip ends the current break early. No break is recorded for it.
func (s *Session) Skip(ctx context.Context) bool {
	s.mu.Lock()
	skipped := s.engine.Skip()
	events := s.settleLocked()
	s.mu.Unlock()

	s.announce(ctx, events)
	return skipped
}

func (s *Session) UpdateSettings(p timer.SettingsPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.engine.UpdateSettings(p); err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	return nil
}

// settleLocked applies the bookkeeping for every queued session switch and
// returns the events, in order.
func (s *Session) settleLocked() []timer.SessionComplete {
	events := s.pending
	s.pending = nil

	for _, ev := range events {
		switch {
		case ev.CompletedType == timer.Work:
			s.ledger.RecordSession(ev.CompletedDurationMinutes, stats.KindWork)
			if cur, ok := s.tasks.Current(); ok {
				s.tasks.IncrementPomodoro(cur.ID)
			}
		case !ev.Skipped:
			s.ledger.RecordSession(ev.CompletedDurationMinutes, stats.KindBreak)
		}
		s.cfg.logger.Debug("session complete",
			"completed", ev.CompletedType, "next", ev.Next,
			"count", ev.SessionCount, "skipped", ev.Skipped)
	}
	return events
}

// announce runs the side effects of session switches outside the lock.
// Failures are logged and never reach session state.
func (s *Session) announce(ctx context.Context, events []timer.SessionComplete) {
	for _, ev := range events {
		if s.cfg.history != nil {
			if err := s.cfg.history.AppendSession(ctx, s.user, ev); err != nil {
				s.cfg.logger.Warn("session history write failed", "completed", ev.CompletedType, "error", err)
			}
		}
		if err := s.cfg.sink.OnSessionBoundary(ctx, ev.Next); err != nil {
			s.cfg.logger.Warn("notification failed", "next", ev.Next, "error", err)
		}
	}
}

// ============================================================
// Tasks
// ============================================================

func (s *Session) AddTask(nt tasks.NewTask) (tasks.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.tasks.Add(nt)
	if err != nil {
		return tasks.Task{}, fmt.Errorf("add task: %w", err)
	}
	return t, nil
}

func (s *Session) UpdateTask(id string, p tasks.Patch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tasks.Update(id, p)
}

func (s *Session) DeleteTask(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tasks.Delete(id)
}

func (s *Session) ToggleTask(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tasks.Toggle(id)
}

func (s *Session) CompleteTask(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tasks.Complete(id)
}

func (s *Session) SetCurrentTask(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tasks.SetCurrent(id)
}

func (s *Session) ClearCurrentTask() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks.ClearCurrent()
}

func (s *Session) CurrentTask() (tasks.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tasks.Current()
}

func (s *Session) Task(id string) (tasks.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tasks.Get(id)
}

func (s *Session) Tasks() []tasks.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tasks.List()
}

func (s *Session) TasksByStatus(st tasks.Status) []tasks.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tasks.ByStatus(st)
}

func (s *Session) TasksByPriority(p tasks.Priority) []tasks.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tasks.ByPriority(p)
}

// ============================================================
// Stats
// ============================================================

func (s *Session) Today() stats.DayStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Today()
}

func (s *Session) Weekly() []stats.DayStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Weekly()
}

func (s *Session) LastDays(n int) []stats.DayStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Last(n)
}

// Range returns the days between two YYYY-MM-DD dates, inclusive.
func (s *Session) Range(from, to string) ([]stats.DayStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	loc := s.ledger.Location()
	start, err := time.ParseInLocation(time.DateOnly, from, loc)
	if err != nil {
		return nil, fmt.Errorf("parse from date: %w", err)
	}
	end, err := time.ParseInLocation(time.DateOnly, to, loc)
	if err != nil {
		return nil, fmt.Errorf("parse to date: %w", err)
	}
	return s.ledger.Range(start, end)
}

func (s *Session) Streak(maxDays int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Streak(maxDays)
}

func (s *Session) Totals() stats.Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Totals()
}

func (s *Session) Days() []stats.DayStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Days()
}

// Achievements evaluates the milestone badges, measuring the streak with
// the given cap.
func (s *Session) Achievements(streakDays int) []stats.Achievement {
	s.mu.Lock()
	defer s.mu.Unlock()
	done := len(s.tasks.ByStatus(tasks.StatusDone))
	return stats.Achievements(s.ledger.Totals(), s.ledger.Streak(streakDays), done)
}

// InsightInput captures the read-only view an insight generator consumes.
func (s *Session) InsightInput() insights.Input {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.engine.Snapshot()
	return insights.Input{
		Now:            s.cfg.now().In(s.ledger.Location()),
		Today:          s.ledger.Today(),
		Weekly:         s.ledger.Weekly(),
		Tasks:          s.tasks.List(),
		SessionCount:   st.SessionCount,
		CurrentSession: st.CurrentSession,
	}
}

// ============================================================
// Persistence
// ============================================================

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		Timer: s.engine.Snapshot(),
		Tasks: s.tasks.Snapshot(),
		Days:  s.ledger.Days(),
	}
}

// Restore replaces the whole session state. Repairs made along the way
// (invalid settings, bad day keys) are logged.
func (s *Session) Restore(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.restoreLocked(snap)
}

func (s *Session) restoreLocked(snap Snapshot) {
	s.init(snap.Timer.Settings)
	if err := snap.Timer.Settings.Validate(); err != nil {
		s.cfg.logger.Warn("saved timer settings invalid, using defaults", "error", err)
	}
	s.engine.Restore(snap.Timer)
	s.tasks.Restore(snap.Tasks)
	if err := s.ledger.Restore(snap.Days); err != nil {
		s.cfg.logger.Warn("saved stats partially restored", "error", err)
	}
}

// Load replaces the session state with the persisted one. Without a
// persister, or when nothing is saved yet, the state is left as is. On any
// other failure the session falls back to defaults, the error is returned,
// and Save refuses to write until a later Load succeeds.
func (s *Session) Load(ctx context.Context) error {
	if s.cfg.persister == nil {
		return nil
	}
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	snap, err := s.cfg.persister.Load(ctx, s.user)

	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case errors.Is(err, ErrNoState):
		s.base, s.loadFailed = Snapshot{}, false
		return nil
	case err != nil:
		s.init(s.cfg.settings)
		s.loadFailed = true
		return fmt.Errorf("load session %s: %w", s.user, err)
	}
	s.restoreLocked(snap)
	s.base, s.loadFailed = snap, false
	return nil
}

// Save writes the current state through the persister. A DeltaPersister
// receives only what changed since the last Load or Save.
func (s *Session) Save(ctx context.Context) error {
	if s.cfg.persister == nil {
		return nil
	}
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	return s.saveLocked(ctx)
}

// saveLocked needs saveMu.
func (s *Session) saveLocked(ctx context.Context) error {
	s.mu.Lock()
	if s.loadFailed {
		s.mu.Unlock()
		return fmt.Errorf("save session %s: %w", s.user, ErrLoadFailed)
	}
	snap, base := s.snapshotLocked(), s.base
	s.mu.Unlock()

	var err error
	if dp, ok := s.cfg.persister.(DeltaPersister); ok {
		err = dp.SaveChanges(ctx, s.user, base, snap)
	} else {
		err = s.cfg.persister.Save(ctx, s.user, snap)
	}
	if err != nil {
		return fmt.Errorf("save session %s: %w", s.user, err)
	}

	s.mu.Lock()
	s.base = snap
	s.mu.Unlock()
	return nil
}

// Sync saves pending changes, then picks up the tasks, stats and settings
// other processes have saved since. The running countdown is kept.
func (s *Session) Sync(ctx context.Context) error {
	if s.cfg.persister == nil {
		return nil
	}
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	if err := s.saveLocked(ctx); err != nil {
		return err
	}
	snap, err := s.cfg.persister.Load(ctx, s.user)
	if errors.Is(err, ErrNoState) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("sync session %s: %w", s.user, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	merged := snap
	merged.Timer = s.engine.Snapshot()
	merged.Timer.Settings = snap.Timer.Settings
	s.restoreLocked(merged)
	s.base = snap
	return nil
}
