package timer

import (
	"errors"
	"testing"
	"time"

	"pgregory.net/rapid"
)

func intp(v int) *int    { return &v }
func boolp(v bool) *bool { return &v }

// runOut ticks the engine until the current session switches.
func runOut(t *testing.T, e *Engine) {
	t.Helper()
	limit := e.Snapshot().TimeLeft + 1
	for i := 0; i < limit; i++ {
		if e.Tick() {
			return
		}
	}
	t.Fatalf("session did not switch after %d ticks", limit)
}

// ============================================================
// Construction
// ============================================================

func TestNewDefaults(t *testing.T) {
	e := New(DefaultSettings())
	st := e.Snapshot()

	if st.CurrentSession != Work {
		t.Fatalf("expected work session, got %s", st.CurrentSession)
	}
	if st.TimeLeft != 25*60 {
		t.Fatalf("expected 1500s, got %d", st.TimeLeft)
	}
	if st.IsRunning {
		t.Fatal("new engine should be idle")
	}
	if st.SessionCount != 0 {
		t.Fatalf("expected 0 sessions, got %d", st.SessionCount)
	}
}

func TestNewInvalidSettingsFallsBack(t *testing.T) {
	e := New(Settings{WorkDuration: 0, LongBreakInterval: 0})
	if got := e.Snapshot().Settings; got != DefaultSettings() {
		t.Fatalf("expected defaults, got %+v", got)
	}
}

// ============================================================
// Start / Pause / Reset
// ============================================================

func TestStartPauseIdempotent(t *testing.T) {
	e := New(DefaultSettings())

	e.Start()
	e.Start()
	if !e.Snapshot().IsRunning {
		t.Fatal("should be running")
	}
	if e.Snapshot().TimeLeft != 1500 {
		t.Fatal("start should not touch time left")
	}

	e.Pause()
	e.Pause()
	if e.Snapshot().IsRunning {
		t.Fatal("should be paused")
	}
}

func TestToggle(t *testing.T) {
	e := New(DefaultSettings())
	e.Toggle()
	if !e.Snapshot().IsRunning {
		t.Fatal("toggle should start")
	}
	e.Toggle()
	if e.Snapshot().IsRunning {
		t.Fatal("toggle should pause")
	}
}

func TestResetKeepsSessionType(t *testing.T) {
	e := New(DefaultSettings())
	e.Start()
	runOut(t, e) // -> short break
	e.Start()
	for i := 0; i < 10; i++ {
		e.Tick()
	}

	e.Reset()
	st := e.Snapshot()
	if st.CurrentSession != ShortBreak {
		t.Fatalf("reset changed session type to %s", st.CurrentSession)
	}
	if st.TimeLeft != 5*60 {
		t.Fatalf("expected 300s after reset, got %d", st.TimeLeft)
	}
	if st.IsRunning {
		t.Fatal("reset should stop the timer")
	}
	if st.SessionCount != 1 {
		t.Fatalf("reset changed session count to %d", st.SessionCount)
	}
}

// ============================================================
// Tick / switch
// ============================================================

func TestTickDecrements(t *testing.T) {
	e := New(DefaultSettings())
	e.Start()
	if e.Tick() {
		t.Fatal("first tick should not switch")
	}
	if got := e.Snapshot().TimeLeft; got != 1499 {
		t.Fatalf("expected 1499, got %d", got)
	}
}

func TestWorkToShortBreakScenario(t *testing.T) {
	e := New(DefaultSettings())
	e.Start()

	for i := 0; i < 1500; i++ {
		if e.Tick() {
			t.Fatalf("switched early at tick %d", i+1)
		}
	}
	if got := e.Snapshot().TimeLeft; got != 0 {
		t.Fatalf("expected 0 left, got %d", got)
	}

	if !e.Tick() {
		t.Fatal("tick at zero should switch")
	}
	st := e.Snapshot()
	if st.CurrentSession != ShortBreak {
		t.Fatalf("expected short break, got %s", st.CurrentSession)
	}
	if st.TimeLeft != 300 {
		t.Fatalf("expected 300s, got %d", st.TimeLeft)
	}
	if st.SessionCount != 1 {
		t.Fatalf("expected count 1, got %d", st.SessionCount)
	}
	if st.IsRunning {
		t.Fatal("should not auto start without autoStartBreaks")
	}
}

func TestAutoStartBreaks(t *testing.T) {
	s := DefaultSettings()
	s.AutoStartBreaks = true
	e := New(s)
	e.Start()
	runOut(t, e)

	if !e.Snapshot().IsRunning {
		t.Fatal("break should auto start")
	}

	// Back to work without autoStartWork
	runOut(t, e)
	st := e.Snapshot()
	if st.CurrentSession != Work {
		t.Fatalf("expected work, got %s", st.CurrentSession)
	}
	if st.IsRunning {
		t.Fatal("work should not auto start")
	}
}

func TestAutoStartWork(t *testing.T) {
	s := DefaultSettings()
	s.AutoStartWork = true
	e := New(s)
	e.Start()
	runOut(t, e) // -> short break, paused
	if e.Snapshot().IsRunning {
		t.Fatal("break should not auto start")
	}
	e.Start()
	runOut(t, e) // -> work
	if !e.Snapshot().IsRunning {
		t.Fatal("work should auto start")
	}
}

func TestLongBreakEveryInterval(t *testing.T) {
	e := New(DefaultSettings())
	var got []SessionType
	for i := 0; i < 4; i++ {
		e.Start()
		runOut(t, e) // work -> break
		got = append(got, e.Snapshot().CurrentSession)
		e.Start()
		runOut(t, e) // break -> work
	}

	want := []SessionType{ShortBreak, ShortBreak, ShortBreak, LongBreak}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("break %d: expected %s, got %s", i+1, want[i], got[i])
		}
	}
}

func TestSessionCompleteEvent(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	e := New(DefaultSettings(), WithClock(func() time.Time { return fixed }))

	var events []SessionComplete
	e.Subscribe(ListenerFunc(func(ev SessionComplete) { events = append(events, ev) }))

	e.Start()
	runOut(t, e)

	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.CompletedType != Work || ev.CompletedDurationMinutes != 25 {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev.Next != ShortBreak || ev.SessionCount != 1 {
		t.Fatalf("unexpected next/count: %+v", ev)
	}
	if !ev.At.Equal(fixed) {
		t.Fatalf("unexpected timestamp %v", ev.At)
	}
	if ev.Skipped {
		t.Fatal("natural completion should not be marked skipped")
	}
}

func TestListenerCanReadEngine(t *testing.T) {
	e := New(DefaultSettings())
	var seen SessionType
	e.Subscribe(ListenerFunc(func(SessionComplete) {
		// Would deadlock if listeners ran under the engine lock.
		seen = e.Snapshot().CurrentSession
	}))
	e.Start()
	runOut(t, e)
	if seen != ShortBreak {
		t.Fatalf("listener saw %s", seen)
	}
}

// ============================================================
// Skip
// ============================================================

func TestSkipWorkIsNoop(t *testing.T) {
	e := New(DefaultSettings())
	if e.Skip() {
		t.Fatal("work session should not be skippable")
	}
	if e.Snapshot().CurrentSession != Work {
		t.Fatal("session changed")
	}
}

func TestSkipBreak(t *testing.T) {
	e := New(DefaultSettings())
	var events []SessionComplete
	e.Subscribe(ListenerFunc(func(ev SessionComplete) { events = append(events, ev) }))

	e.Start()
	runOut(t, e)
	if !e.Skip() {
		t.Fatal("break should be skippable")
	}
	st := e.Snapshot()
	if st.CurrentSession != Work || st.TimeLeft != 1500 {
		t.Fatalf("unexpected state after skip: %+v", st)
	}
	if st.SessionCount != 1 {
		t.Fatalf("skip changed count to %d", st.SessionCount)
	}
	if len(events) != 2 || !events[1].Skipped {
		t.Fatalf("expected skipped event, got %+v", events)
	}
}

// ============================================================
// Settings
// ============================================================

func TestUpdateSettingsMerges(t *testing.T) {
	e := New(DefaultSettings())
	if err := e.UpdateSettings(SettingsPatch{WorkDuration: intp(50), AutoStartBreaks: boolp(true)}); err != nil {
		t.Fatal(err)
	}
	s := e.Snapshot().Settings
	if s.WorkDuration != 50 || !s.AutoStartBreaks {
		t.Fatalf("patch not applied: %+v", s)
	}
	if s.ShortBreakDuration != 5 || s.LongBreakInterval != 4 {
		t.Fatalf("untouched fields changed: %+v", s)
	}
	// In-progress countdown is not rescaled.
	if got := e.Snapshot().TimeLeft; got != 1500 {
		t.Fatalf("time left rescaled to %d", got)
	}
	e.Reset()
	if got := e.Snapshot().TimeLeft; got != 3000 {
		t.Fatalf("expected 3000 after reset, got %d", got)
	}
}

func TestUpdateSettingsRejectsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		patch SettingsPatch
	}{
		{"zero work", SettingsPatch{WorkDuration: intp(0)}},
		{"negative short", SettingsPatch{ShortBreakDuration: intp(-1)}},
		{"zero long", SettingsPatch{LongBreakDuration: intp(0)}},
		{"interval zero", SettingsPatch{LongBreakInterval: intp(0)}},
		{"interval one", SettingsPatch{LongBreakInterval: intp(1)}},
	}
	for _, tt := range tests {
		e := New(DefaultSettings())
		err := e.UpdateSettings(tt.patch)
		if !errors.Is(err, ErrInvalidSettings) {
			t.Errorf("%s: expected ErrInvalidSettings, got %v", tt.name, err)
		}
		if got := e.Snapshot().Settings; got != DefaultSettings() {
			t.Errorf("%s: settings changed to %+v", tt.name, got)
		}
	}
}

func TestPatchEmpty(t *testing.T) {
	if !(SettingsPatch{}).Empty() {
		t.Fatal("zero patch should be empty")
	}
	if (SettingsPatch{AutoStartWork: boolp(false)}).Empty() {
		t.Fatal("patch with a field should not be empty")
	}
	if got := PatchFrom(DefaultSettings()).Apply(Settings{}); got != DefaultSettings() {
		t.Fatalf("PatchFrom round trip: %+v", got)
	}
}

// ============================================================
// Restore / Progress
// ============================================================

func TestRestoreClampsAndRepairs(t *testing.T) {
	e := New(DefaultSettings())
	e.Restore(State{
		TimeLeft:       99999,
		CurrentSession: LongBreak,
		SessionCount:   -3,
		Settings:       Settings{WorkDuration: 25},
	})
	st := e.Snapshot()
	if st.Settings != DefaultSettings() {
		t.Fatalf("invalid settings not repaired: %+v", st.Settings)
	}
	if st.TimeLeft != 15*60 {
		t.Fatalf("time left not clamped: %d", st.TimeLeft)
	}
	if st.SessionCount != 0 {
		t.Fatalf("negative count kept: %d", st.SessionCount)
	}

	e.Restore(State{CurrentSession: "nap", TimeLeft: 10, Settings: DefaultSettings()})
	if st := e.Snapshot(); st.CurrentSession != Work || st.TimeLeft != 1500 {
		t.Fatalf("unknown session not repaired: %+v", st)
	}
}

func TestProgress(t *testing.T) {
	e := New(DefaultSettings())
	if e.Progress() != 0 {
		t.Fatal("fresh session should have no progress")
	}
	e.Start()
	for i := 0; i < 750; i++ {
		e.Tick()
	}
	if p := e.Progress(); p < 0.49 || p > 0.51 {
		t.Fatalf("expected ~0.5, got %f", p)
	}
}

func TestSessionTypeHelpers(t *testing.T) {
	if Work.IsBreak() || !ShortBreak.IsBreak() || !LongBreak.IsBreak() {
		t.Fatal("IsBreak mismatch")
	}
	if LongBreak.Label() != "Long Break" || SessionType("x").Label() != "Unknown" {
		t.Fatal("Label mismatch")
	}
	if _, err := ParseSessionType("shortBreak"); err != nil {
		t.Fatal(err)
	}
	if _, err := ParseSessionType("nap"); err == nil {
		t.Fatal("expected error for unknown type")
	}
}

// ============================================================
// Properties
// ============================================================

func genSettings(t *rapid.T) Settings {
	return Settings{
		WorkDuration:       rapid.IntRange(1, 90).Draw(t, "work"),
		ShortBreakDuration: rapid.IntRange(1, 30).Draw(t, "short"),
		LongBreakDuration:  rapid.IntRange(1, 60).Draw(t, "long"),
		LongBreakInterval:  rapid.IntRange(2, 8).Draw(t, "interval"),
		AutoStartBreaks:    rapid.Bool().Draw(t, "autoBreaks"),
		AutoStartWork:      rapid.Bool().Draw(t, "autoWork"),
	}
}

func TestPropertyResetRestoresFullDuration(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s := genSettings(rt)
		e := New(s)
		e.Start()
		ticks := rapid.IntRange(0, 5000).Draw(rt, "ticks")
		for i := 0; i < ticks; i++ {
			e.Tick()
		}
		e.Reset()
		st := e.Snapshot()
		if want := s.DurationFor(st.CurrentSession) * 60; st.TimeLeft != want {
			rt.Fatalf("after reset TimeLeft = %d, want %d", st.TimeLeft, want)
		}
	})
}

func TestPropertyTickMonotonicUntilSwitch(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s := genSettings(rt)
		e := New(s)
		e.Start()
		ticks := rapid.IntRange(1, 8000).Draw(rt, "ticks")
		for i := 0; i < ticks; i++ {
			before := e.Snapshot()
			switched := e.Tick()
			after := e.Snapshot()

			if !switched {
				if after.TimeLeft != before.TimeLeft-1 {
					rt.Fatalf("tick %d: %d -> %d", i, before.TimeLeft, after.TimeLeft)
				}
				continue
			}
			if before.TimeLeft != 0 {
				rt.Fatalf("switched with %d seconds left", before.TimeLeft)
			}
			if after.TimeLeft != s.DurationFor(after.CurrentSession)*60 {
				rt.Fatalf("time left %d inconsistent with %s", after.TimeLeft, after.CurrentSession)
			}
			if before.CurrentSession == Work {
				if after.SessionCount != before.SessionCount+1 {
					rt.Fatalf("count %d -> %d leaving work", before.SessionCount, after.SessionCount)
				}
				wantLong := after.SessionCount%s.LongBreakInterval == 0
				if (after.CurrentSession == LongBreak) != wantLong {
					rt.Fatalf("after %d sessions got %s", after.SessionCount, after.CurrentSession)
				}
			} else {
				if after.SessionCount != before.SessionCount || after.CurrentSession != Work {
					rt.Fatalf("leaving break: %+v -> %+v", before, after)
				}
			}
		}
	})
}
