package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sadopc/pomofocus/internal/config"
	"github.com/sadopc/pomofocus/internal/notify"
	"github.com/sadopc/pomofocus/internal/session"
	"github.com/sadopc/pomofocus/internal/store"
	"github.com/sadopc/pomofocus/internal/tasks"
	"github.com/sadopc/pomofocus/internal/timer"
)

// withSession installs an in-memory store and session for the duration of
// the test.
func withSession(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.NewMemory()
	if err != nil {
		t.Fatalf("NewMemory: %v", err)
	}

	origCfg, origStore, origSess, origLogger, origOpts := Cfg, Store, Sess, Logger, sessionOpts
	t.Cleanup(func() {
		Cfg, Store, Sess, Logger, sessionOpts = origCfg, origStore, origSess, origLogger, origOpts
		st.Close()
	})

	sessionOpts = []session.Option{
		session.WithPersister(st),
		session.WithHistory(st),
		session.WithLocation(time.Local),
	}
	Cfg = &config.Config{User: "tester", StreakDays: 30}
	Store = st
	Sess = session.New("tester", sessionOpts...)
	return st
}

// resetFlags puts every flag back to its default so runs do not leak into
// each other.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func mustExecute(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execute(t, args...)
	if err != nil {
		t.Fatalf("%v: %v\n%s", args, err, out)
	}
	return out
}

func completeWorkSession(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	for !Sess.Tick(ctx) {
	}
}

// ============================================================
// Root
// ============================================================

func TestSetVersionInfo(t *testing.T) {
	origVersion, origCommit, origDate := appVersion, appCommit, appDate
	defer func() { appVersion, appCommit, appDate = origVersion, origCommit, origDate }()

	SetVersionInfo("1.2.3", "abc1234", "2026-03-10")
	out := mustExecute(t, "version")
	if !strings.Contains(out, "pomofocus 1.2.3") || !strings.Contains(out, "abc1234") {
		t.Fatalf("unexpected version output %q", out)
	}
}

func TestExecute_UnknownCommand(t *testing.T) {
	withSession(t)
	_, err := execute(t, "nonexistent-command")
	if err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Fatalf("expected unknown command error, got %v", err)
	}
}

func TestCommandsRegistered(t *testing.T) {
	want := []string{"run", "task", "stats", "insights", "settings", "export", "history", "mcp", "users", "events", "version"}
	for _, name := range want {
		found := false
		for _, c := range rootCmd.Commands() {
			if c.Name() == name {
				found = true
			}
		}
		if !found {
			t.Fatalf("expected %q command to be registered", name)
		}
	}
}

func TestNilSession(t *testing.T) {
	orig := Sess
	defer func() { Sess = orig }()
	Sess = nil

	for _, c := range []*cobra.Command{taskListCmd, statsCmd, settingsCmd, insightsCmd} {
		err := c.RunE(c, nil)
		if err == nil || !strings.Contains(err.Error(), "session not initialized") {
			t.Fatalf("%s: expected session error, got %v", c.Name(), err)
		}
	}
}

// ============================================================
// Tasks
// ============================================================

func TestTaskLifecycle(t *testing.T) {
	st := withSession(t)
	ctx := context.Background()

	out := mustExecute(t, "task", "add", "Write", "report", "--estimate", "3", "--priority", "high", "--tags", "docs,q1")
	if !strings.Contains(out, "Added task") || !strings.Contains(out, "Write report") {
		t.Fatalf("unexpected add output %q", out)
	}

	saved, err := st.ListTasks(ctx, "tester")
	if err != nil {
		t.Fatal(err)
	}
	if len(saved) != 1 || saved[0].EstimatedPomodoros != 3 || saved[0].Priority != tasks.PriorityHigh {
		t.Fatalf("task not persisted: %+v", saved)
	}
	id := saved[0].ID

	out = mustExecute(t, "task", "current", id[:6])
	if !strings.Contains(out, "Current task") {
		t.Fatalf("unexpected current output %q", out)
	}
	if cur, ok := Sess.CurrentTask(); !ok || cur.ID != id || cur.Status != tasks.StatusInProgress {
		t.Fatalf("current task = %+v, %v", cur, ok)
	}

	completeWorkSession(t)
	out = mustExecute(t, "task", "current")
	if !strings.Contains(out, "1/3 pomodoros") {
		t.Fatalf("work session should credit the current task: %q", out)
	}

	out = mustExecute(t, "task", "list")
	if !strings.Contains(out, "* "+shortID(id)) || !strings.Contains(out, "docs,q1") {
		t.Fatalf("list should mark the current task: %q", out)
	}

	mustExecute(t, "task", "done", id)
	if tk, _ := Sess.Task(id); tk.Status != tasks.StatusDone {
		t.Fatalf("status = %s, want done", tk.Status)
	}
	if Sess.Today().TasksCompleted != 1 {
		t.Fatal("completing a task should count in today's stats")
	}

	out = mustExecute(t, "task", "list", "--status", "todo")
	if !strings.Contains(out, "No tasks found") {
		t.Fatalf("expected no todo tasks: %q", out)
	}

	mustExecute(t, "task", "rm", id)
	if _, ok := Sess.CurrentTask(); ok {
		t.Fatal("deleting the current task should clear it")
	}
	saved, _ = st.ListTasks(ctx, "tester")
	if len(saved) != 0 {
		t.Fatalf("task still stored: %+v", saved)
	}
}

func TestTaskListJSON(t *testing.T) {
	withSession(t)
	mustExecute(t, "task", "add", "low one", "-p", "low")
	mustExecute(t, "task", "add", "urgent one", "-p", "urgent")

	out := mustExecute(t, "task", "list", "--json", "--priority", "urgent")
	var list []tasks.Task
	if err := json.Unmarshal([]byte(out), &list); err != nil {
		t.Fatalf("invalid json %q: %v", out, err)
	}
	if len(list) != 1 || list[0].Title != "urgent one" {
		t.Fatalf("unexpected list %+v", list)
	}

	out = mustExecute(t, "task", "list", "--json", "--status", "done")
	if strings.TrimSpace(out) != "[]" {
		t.Fatalf("expected empty array, got %q", out)
	}
}

func TestTaskErrors(t *testing.T) {
	withSession(t)

	tests := []struct {
		name string
		args []string
	}{
		{"blank title", []string{"task", "add", "  "}},
		{"bad priority", []string{"task", "add", "x", "--priority", "critical"}},
		{"bad status filter", []string{"task", "list", "--status", "blocked"}},
		{"done unknown", []string{"task", "done", "nope"}},
		{"rm unknown", []string{"task", "rm", "nope"}},
		{"current unknown", []string{"task", "current", "nope"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := execute(t, tt.args...); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestTaskToggleAndClear(t *testing.T) {
	withSession(t)
	mustExecute(t, "task", "add", "flip")
	id := Sess.Tasks()[0].ID

	out := mustExecute(t, "task", "toggle", id)
	if !strings.Contains(out, "now done") {
		t.Fatalf("unexpected toggle output %q", out)
	}
	out = mustExecute(t, "task", "toggle", id)
	if !strings.Contains(out, "now todo") {
		t.Fatalf("unexpected toggle output %q", out)
	}

	mustExecute(t, "task", "current", id)
	mustExecute(t, "task", "current", "--clear")
	if _, ok := Sess.CurrentTask(); ok {
		t.Fatal("current task should be cleared")
	}
}

// ============================================================
// Stats / insights / history
// ============================================================

func TestStatsJSON(t *testing.T) {
	withSession(t)
	completeWorkSession(t)

	out := mustExecute(t, "stats", "--week", "--json")
	var r statsReport
	if err := json.Unmarshal([]byte(out), &r); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if r.Today.Sessions != 1 || r.Today.FocusTime != 25 {
		t.Fatalf("today = %+v", r.Today)
	}
	if len(r.Days) != 7 || r.Days[6].Date != r.Today.Date {
		t.Fatalf("weekly days = %+v", r.Days)
	}
	if r.Streak != 1 || r.Totals.Sessions != 1 {
		t.Fatalf("streak %d totals %+v", r.Streak, r.Totals)
	}
	if len(r.Achievements) != 5 || !r.Achievements[0].Unlocked {
		t.Fatalf("first-session achievement should be unlocked: %+v", r.Achievements)
	}
}

func TestStatsText(t *testing.T) {
	withSession(t)
	completeWorkSession(t)

	out := mustExecute(t, "stats", "--days", "3")
	for _, want := range []string{"Sessions:        1", "Focus time:      25m", "Streak: 1 day", "[x] Getting Started", "#"} {
		if !strings.Contains(out, want) {
			t.Fatalf("stats output missing %q:\n%s", want, out)
		}
	}
}

func TestInsightsCommand(t *testing.T) {
	withSession(t)
	for i := 0; i < 6; i++ {
		Sess.AddTask(tasks.NewTask{Title: "t"})
	}

	out := mustExecute(t, "insights", "--json")
	if !strings.Contains(out, `"task-overload"`) {
		t.Fatalf("expected task overload insight: %s", out)
	}
	out = mustExecute(t, "insights")
	if !strings.Contains(out, "confidence") {
		t.Fatalf("unexpected text output %q", out)
	}
}

func TestHistoryCommand(t *testing.T) {
	withSession(t)

	out := mustExecute(t, "history")
	if !strings.Contains(out, "No sessions recorded") {
		t.Fatalf("unexpected empty history %q", out)
	}

	completeWorkSession(t)
	out = mustExecute(t, "history", "--since", "1h")
	if !strings.Contains(out, "Work") || !strings.Contains(out, "Short Break") {
		t.Fatalf("history should list the work session: %q", out)
	}
	if !strings.Contains(out, "1 work session, 25m focused") {
		t.Fatalf("history should summarize focus: %q", out)
	}

	if _, err := execute(t, "history", "--type", "nap"); err == nil {
		t.Fatal("expected error for unknown session type")
	}
}

// ============================================================
// Settings
// ============================================================

func TestSettings(t *testing.T) {
	st := withSession(t)

	out := mustExecute(t, "settings")
	if !strings.Contains(out, "Work:               25 min") {
		t.Fatalf("unexpected settings output %q", out)
	}

	mustExecute(t, "settings", "--work", "50", "--auto-breaks")
	got := Sess.Timer()
	if got.Settings.WorkDuration != 50 || !got.Settings.AutoStartBreaks {
		t.Fatalf("settings not applied: %+v", got.Settings)
	}
	if got.TimeLeft != 25*60 {
		t.Fatalf("TimeLeft = %d, the running countdown must not be rescaled", got.TimeLeft)
	}
	if got.Settings.ShortBreakDuration != 5 {
		t.Fatal("unset flags must not change settings")
	}

	saved, err := st.TimerSettings(context.Background(), "tester")
	if err != nil {
		t.Fatal(err)
	}
	if saved.WorkDuration != 50 {
		t.Fatalf("saved work duration = %d, want 50", saved.WorkDuration)
	}

	if _, err := execute(t, "settings", "--interval", "1"); err == nil {
		t.Fatal("expected error for an interval below 2")
	}
	if Sess.Timer().Settings.LongBreakInterval != 4 {
		t.Fatal("rejected settings must leave the previous ones")
	}

	mustExecute(t, "settings", "--defaults", "--short", "8")
	got = Sess.Timer()
	if got.Settings.WorkDuration != 25 || got.Settings.AutoStartBreaks || got.Settings.ShortBreakDuration != 8 {
		t.Fatalf("--defaults then --short: %+v", got.Settings)
	}
}

// ============================================================
// Export
// ============================================================

func TestExportCommand(t *testing.T) {
	withSession(t)
	Sess.AddTask(tasks.NewTask{Title: "export me"})
	completeWorkSession(t)
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "out.json")
	mustExecute(t, "export", "--format", "json", "--out", jsonPath)
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatal(err)
	}
	var doc struct {
		User    string            `json:"user"`
		Tasks   []tasks.Task      `json:"tasks"`
		History []json.RawMessage `json:"history"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	if doc.User != "tester" || len(doc.Tasks) != 1 || len(doc.History) != 1 {
		t.Fatalf("unexpected export %+v", doc)
	}

	csvPath := filepath.Join(dir, "days.csv")
	mustExecute(t, "export", "-f", "csv", "--table", "days", "-o", csvPath)
	data, _ = os.ReadFile(csvPath)
	if !strings.HasPrefix(string(data), "Date,Sessions") {
		t.Fatalf("unexpected csv %q", data)
	}

	yamlPath := filepath.Join(dir, "out.yaml")
	mustExecute(t, "export", "-f", "yaml", "-o", yamlPath)
	if _, err := os.Stat(yamlPath); err != nil {
		t.Fatal(err)
	}

	for _, args := range [][]string{
		{"export", "--format", "xml", "--out", filepath.Join(dir, "x")},
		{"export", "--format", "json"},
		{"export", "--format", "csv", "--table", "projects", "--out", filepath.Join(dir, "y")},
	} {
		if _, err := execute(t, args...); err == nil {
			t.Fatalf("%v: expected error", args)
		}
	}
}

// ============================================================
// Run
// ============================================================

func TestRunCommand(t *testing.T) {
	withSession(t)
	one := 1
	if err := Sess.UpdateSettings(timer.SettingsPatch{WorkDuration: &one}); err != nil {
		t.Fatal(err)
	}

	out := mustExecute(t, "run", "--for", "300ms", "--tick", "1ms")
	if !strings.Contains(out, "running") || !strings.Contains(out, "stopped with") {
		t.Fatalf("unexpected run output %q", out)
	}
	st := Sess.Timer()
	if st.TimeLeft == 60 && st.SessionCount == 0 {
		t.Fatal("the timer did not advance")
	}
}

func TestRunPausedDoesNotStart(t *testing.T) {
	withSession(t)

	mustExecute(t, "run", "--for", "20ms", "--tick", "1ms", "--paused")
	st := Sess.Timer()
	if st.IsRunning || st.TimeLeft != 1500 {
		t.Fatalf("paused run should not tick: %+v", st)
	}
}

func TestFormatHelpers(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{formatClock(1500), "25:00"},
		{formatClock(59), "00:59"},
		{formatMinutes(45), "45m"},
		{formatMinutes(90), "1h 30m"},
		{bar(10, 20, 20), strings.Repeat("#", 10)},
		{bar(0, 20, 20), ""},
		{bar(1, 1000, 20), "#"},
		{shortID("0123456789"), "01234567"},
		{shortID("abc"), "abc"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Fatalf("got %q, want %q", tt.got, tt.want)
		}
	}
}

// ============================================================
// Task edit, ranges, users and events
// ============================================================

func TestTaskEdit(t *testing.T) {
	withSession(t)
	tk, err := Sess.AddTask(tasks.NewTask{Title: "Draft", Tags: []string{"old"}})
	if err != nil {
		t.Fatal(err)
	}

	out := mustExecute(t, "task", "edit", tk.ID[:6], "--title", "Final draft", "--priority", "urgent", "--tags=", "--status", "in_progress")
	if !strings.Contains(out, "Updated task") || !strings.Contains(out, "Final draft") {
		t.Fatalf("unexpected edit output %q", out)
	}
	got, _ := Sess.Task(tk.ID)
	if got.Title != "Final draft" || got.Priority != tasks.PriorityUrgent || got.Status != tasks.StatusInProgress {
		t.Fatalf("task not updated: %+v", got)
	}
	if len(got.Tags) != 0 {
		t.Fatalf("tags should be cleared: %v", got.Tags)
	}
	if got.EstimatedPomodoros != tk.EstimatedPomodoros {
		t.Fatalf("unset flags must not change the estimate: %d", got.EstimatedPomodoros)
	}

	tests := []struct {
		name string
		args []string
	}{
		{"no flags", []string{"task", "edit", tk.ID}},
		{"empty title", []string{"task", "edit", tk.ID, "--title", " "}},
		{"bad status", []string{"task", "edit", tk.ID, "--status", "later"}},
		{"bad priority", []string{"task", "edit", tk.ID, "--priority", "meh"}},
		{"unknown id", []string{"task", "edit", "zzz", "--title", "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := execute(t, tt.args...); err == nil {
				t.Fatalf("expected error for %v", tt.args)
			}
		})
	}
}

func TestTaskListPriority(t *testing.T) {
	withSession(t)
	Sess.AddTask(tasks.NewTask{Title: "Low one", Priority: tasks.PriorityLow})
	hi, _ := Sess.AddTask(tasks.NewTask{Title: "High one", Priority: tasks.PriorityHigh})
	Sess.AddTask(tasks.NewTask{Title: "High two", Priority: tasks.PriorityHigh})
	Sess.CompleteTask(hi.ID)

	out := mustExecute(t, "task", "list", "--priority", "high")
	if strings.Contains(out, "Low one") || !strings.Contains(out, "High one") || !strings.Contains(out, "High two") {
		t.Fatalf("priority filter: %q", out)
	}
	out = mustExecute(t, "task", "list", "--priority", "high", "--status", "done")
	if strings.Contains(out, "High two") || !strings.Contains(out, "High one") {
		t.Fatalf("combined filter: %q", out)
	}
}

func TestStatsRange(t *testing.T) {
	withSession(t)
	completeWorkSession(t)

	from := time.Now().AddDate(0, 0, -2).Format(time.DateOnly)
	out := mustExecute(t, "stats", "--from", from, "--json")
	var r statsReport
	if err := json.Unmarshal([]byte(out), &r); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(r.Days) != 3 || r.Days[0].Date != from || r.Days[2].Sessions != 1 {
		t.Fatalf("range days = %+v", r.Days)
	}

	if _, err := execute(t, "stats", "--from", "2026-02-10", "--to", "2026-02-01"); err == nil {
		t.Fatal("expected error for reversed range")
	}
	if _, err := execute(t, "stats", "--from", "last week"); err == nil {
		t.Fatal("expected error for malformed date")
	}
}

func TestUsersCommand(t *testing.T) {
	withSession(t)

	out := mustExecute(t, "users")
	if !strings.Contains(out, "No users yet") {
		t.Fatalf("unexpected empty output %q", out)
	}

	completeWorkSession(t)
	mustExecute(t, "task", "add", "Persist me")
	out = mustExecute(t, "users")
	if !strings.Contains(out, "tester") || !strings.Contains(out, "25m") {
		t.Fatalf("users should list tester's totals: %q", out)
	}
}

func TestEventsCommand(t *testing.T) {
	withSession(t)

	if _, err := execute(t, "events"); err == nil {
		t.Fatal("expected error without an event log")
	}

	path := filepath.Join(t.TempDir(), "events.jsonl")
	Cfg.Notify.EventLog = path
	out := mustExecute(t, "events")
	if !strings.Contains(out, "No events logged") {
		t.Fatalf("unexpected empty output %q", out)
	}

	ctx := context.Background()
	for _, user := range []string{"tester", "other"} {
		el, err := notify.OpenEventLog(path, user)
		if err != nil {
			t.Fatal(err)
		}
		if err := el.OnSessionBoundary(ctx, timer.ShortBreak); err != nil {
			t.Fatal(err)
		}
		el.Close()
	}

	out = mustExecute(t, "events")
	if !strings.Contains(out, "Break time!") || strings.Contains(out, "other") {
		t.Fatalf("events should show only tester's boundary: %q", out)
	}
	out = mustExecute(t, "events", "--all")
	if !strings.Contains(out, "other") {
		t.Fatalf("--all should include every user: %q", out)
	}
}
