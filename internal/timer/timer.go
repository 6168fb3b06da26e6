// Package timer implements the pomodoro countdown and its session sequencing.
package timer

import (
	"fmt"
	"sync"
	"time"
)

// SessionType is the kind of session the countdown is running.
type SessionType string

const (
	Work       SessionType = "work"
	ShortBreak SessionType = "shortBreak"
	LongBreak  SessionType = "longBreak"
)

var sessionLabels = map[SessionType]string{
	Work:       "Work",
	ShortBreak: "Short Break",
	LongBreak:  "Long Break",
}

// IsBreak reports whether t is one of the break types.
func (t SessionType) IsBreak() bool {
	return t == ShortBreak || t == LongBreak
}

// Label returns a human-readable name for t.
func (t SessionType) Label() string {
	if l, ok := sessionLabels[t]; ok {
		return l
	}
	return "Unknown"
}

// ParseSessionType converts a persisted value back into a SessionType.
func ParseSessionType(s string) (SessionType, error) {
	switch SessionType(s) {
	case Work, ShortBreak, LongBreak:
		return SessionType(s), nil
	}
	return "", fmt.Errorf("unknown session type %q", s)
}

// State is a copy of everything the engine owns.
type State struct {
	TimeLeft       int         `json:"timeLeft" yaml:"time_left"` // seconds
	IsRunning      bool        `json:"isRunning" yaml:"is_running"`
	CurrentSession SessionType `json:"currentSession" yaml:"current_session"`
	SessionCount   int         `json:"sessionCount" yaml:"session_count"`
	Settings       Settings    `json:"settings" yaml:"settings"`
}

// SessionComplete is raised every time a session ends and the next one is
// loaded. It doubles as the session-boundary signal for notifications.
type SessionComplete struct {
	CompletedType            SessionType
	CompletedDurationMinutes int
	Next                     SessionType
	SessionCount             int
	Skipped                  bool
	At                       time.Time
}

// Listener receives session-complete events. Listeners run after the engine
// lock has been released, so they may read the engine.
type Listener interface {
	OnSessionComplete(SessionComplete)
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(SessionComplete)

func (f ListenerFunc) OnSessionComplete(ev SessionComplete) { f(ev) }

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source used to stamp events.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// Engine is the countdown state machine. The zero value is not usable; call New.
type Engine struct {
	mu        sync.Mutex
	state     State
	listeners []Listener
	now       func() time.Time
}

// New returns an engine in the idle work state. Invalid settings are replaced
// by the defaults.
func New(settings Settings, opts ...Option) *Engine {
	if settings.Validate() != nil {
		settings = DefaultSettings()
	}
	e := &Engine{
		state: State{
			CurrentSession: Work,
			TimeLeft:       settings.WorkDuration * 60,
			Settings:       settings,
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Subscribe registers l for session-complete events.
func (e *Engine) Subscribe(l Listener) {
	e.mu.Lock()
	e.listeners = append(e.listeners, l)
	e.mu.Unlock()
}

// Snapshot returns a copy of the current state.
func (e *Engine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Restore replaces the engine state with a persisted one. Settings that no
// longer validate fall back to the defaults and TimeLeft is clamped to the
// current session's duration.
func (e *Engine) Restore(st State) {
	if st.Settings.Validate() != nil {
		st.Settings = DefaultSettings()
	}
	if _, err := ParseSessionType(string(st.CurrentSession)); err != nil {
		st.CurrentSession = Work
		st.TimeLeft = st.Settings.WorkDuration * 60
	}
	if st.SessionCount < 0 {
		st.SessionCount = 0
	}
	full := st.Settings.DurationFor(st.CurrentSession) * 60
	if st.TimeLeft < 0 {
		st.TimeLeft = 0
	}
	if st.TimeLeft > full {
		st.TimeLeft = full
	}

	e.mu.Lock()
	e.state = st
	e.mu.Unlock()
}

// Start sets the countdown running. TimeLeft is untouched.
func (e *Engine) Start() {
	e.mu.Lock()
	e.state.IsRunning = true
	e.mu.Unlock()
}

// Pause stops the countdown without losing progress.
func (e *Engine) Pause() {
	e.mu.Lock()
	e.state.IsRunning = false
	e.mu.Unlock()
}

// Toggle flips between running and paused.
func (e *Engine) Toggle() {
	e.mu.Lock()
	e.state.IsRunning = !e.state.IsRunning
	e.mu.Unlock()
}

// Reset stops the countdown and refills it for the current session type.
// The session type and count are kept.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.state.IsRunning = false
	e.state.TimeLeft = e.state.Settings.DurationFor(e.state.CurrentSession) * 60
	e.mu.Unlock()
}

// Tick advances the countdown by one second. When the countdown is already
// at zero the session switches instead, and Tick reports true.
//
// Tick does not look at IsRunning: the tick source must not call it while
// the engine is paused.
func (e *Engine) Tick() bool {
	e.mu.Lock()
	if e.state.TimeLeft > 0 {
		e.state.TimeLeft--
		e.mu.Unlock()
		return false
	}
	ev := e.switchSessionLocked(false)
	listeners := append([]Listener(nil), e.listeners...)
	e.mu.Unlock()

	notify(listeners, ev)
	return true
}

// Skip ends the current break immediately and loads a work session. Work
// sessions cannot be skipped; use Reset instead. It reports whether a
// switch happened.
func (e *Engine) Skip() bool {
	e.mu.Lock()
	if !e.state.CurrentSession.IsBreak() {
		e.mu.Unlock()
		return false
	}
	ev := e.switchSessionLocked(true)
	listeners := append([]Listener(nil), e.listeners...)
	e.mu.Unlock()

	notify(listeners, ev)
	return true
}

// UpdateSettings merges the non-nil fields of p into the settings. An invalid
// result is rejected as a whole. An in-progress countdown is not rescaled.
func (e *Engine) UpdateSettings(p SettingsPatch) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	merged := p.Apply(e.state.Settings)
	if err := merged.Validate(); err != nil {
		return err
	}
	e.state.Settings = merged
	return nil
}

// Progress returns the elapsed fraction of the current session in [0, 1].
func (e *Engine) Progress() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	total := e.state.Settings.DurationFor(e.state.CurrentSession) * 60
	if total <= 0 {
		return 1
	}
	p := float64(total-e.state.TimeLeft) / float64(total)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

func (e *Engine) switchSessionLocked(skipped bool) SessionComplete {
	st := &e.state
	completed := st.CurrentSession

	var next SessionType
	if completed == Work {
		st.SessionCount++
		if st.SessionCount%st.Settings.LongBreakInterval == 0 {
			next = LongBreak
		} else {
			next = ShortBreak
		}
	} else {
		next = Work
	}

	st.CurrentSession = next
	st.TimeLeft = st.Settings.DurationFor(next) * 60
	if next.IsBreak() {
		st.IsRunning = st.Settings.AutoStartBreaks
	} else {
		st.IsRunning = st.Settings.AutoStartWork
	}

	return SessionComplete{
		CompletedType:            completed,
		CompletedDurationMinutes: st.Settings.DurationFor(completed),
		Next:                     next,
		SessionCount:             st.SessionCount,
		Skipped:                  skipped,
		At:                       e.now(),
	}
}

func notify(listeners []Listener, ev SessionComplete) {
	for _, l := range listeners {
		l.OnSessionComplete(ev)
	}
}
