package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

// isolate points the config dir at a temp directory.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)
	return filepath.Join(home, appName)
}

// ============================================================
// Load
// ============================================================

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
	dir := isolate(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.File != "" {
		t.Fatalf("File = %q, want empty", cfg.File)
	}
	if cfg.DBPath != filepath.Join(dir, "pomofocus.db") {
		t.Fatalf("DBPath = %q", cfg.DBPath)
	}
	if cfg.User != "local" || cfg.LogLevel != "info" || cfg.StreakDays != 30 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if !cfg.Notify.Bell || cfg.Notify.Discord.Enabled() {
		t.Fatalf("unexpected notify defaults %+v", cfg.Notify)
	}
}

func TestLoad_ReadsConfigYAML(t *testing.T) {
	dir := isolate(t)
	writeFile(t, dir, "config.yaml", `
db_path: /tmp/focus.db
user: alice
timezone: UTC
streak_days: 7
notify:
  bell: false
  event_log: /tmp/events.jsonl
  discord:
    token: abc
    channel: "123"
`)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DBPath != "/tmp/focus.db" || cfg.User != "alice" || cfg.StreakDays != 7 {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Notify.Bell {
		t.Fatal("bell should be disabled")
	}
	if cfg.Notify.EventLog != "/tmp/events.jsonl" {
		t.Fatalf("EventLog = %q", cfg.Notify.EventLog)
	}
	if !cfg.Notify.Discord.Enabled() || cfg.Notify.Discord.Channel != "123" {
		t.Fatalf("discord = %+v", cfg.Notify.Discord)
	}
	if !strings.HasSuffix(cfg.File, "config.yaml") {
		t.Fatalf("File = %q", cfg.File)
	}
	// Unset keys keep their defaults.
	if cfg.LogLevel != "info" {
		t.Fatalf("LogLevel = %q", cfg.LogLevel)
	}
}

func TestLoad_ExplicitFile(t *testing.T) {
	isolate(t)
	path := writeFile(t, t.TempDir(), "custom.yaml", "user: bob\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.User != "bob" {
		t.Fatalf("User = %q, want bob", cfg.User)
	}
}

func TestLoad_ExplicitFileMissing(t *testing.T) {
	isolate(t)
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for a missing explicit config file")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := isolate(t)
	writeFile(t, dir, "config.yaml", "user: alice\n")
	t.Setenv("POMOFOCUS_USER", "carol")
	t.Setenv("POMOFOCUS_NOTIFY_DISCORD_TOKEN", "tok")
	t.Setenv("POMOFOCUS_STREAK_DAYS", "14")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.User != "carol" {
		t.Fatalf("User = %q, env should win over the file", cfg.User)
	}
	if cfg.Notify.Discord.Token != "tok" {
		t.Fatalf("Token = %q", cfg.Notify.Discord.Token)
	}
	if cfg.StreakDays != 14 {
		t.Fatalf("StreakDays = %d", cfg.StreakDays)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed yaml", "user: [unterminated\n"},
		{"bad timezone", "timezone: Mars/Olympus\n"},
		{"bad log level", "log_level: loud\n"},
		{"negative streak", "streak_days: -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)
			writeFile(t, dir, "config.yaml", tt.content)
			if _, err := Load(""); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

// ============================================================
// Location / logger / dotenv
// ============================================================

func TestLocation(t *testing.T) {
	for _, tz := range []string{"", "Local"} {
		loc, err := (&Config{Timezone: tz}).Location()
		if err != nil || loc != time.Local {
			t.Fatalf("Location(%q) = %v, %v", tz, loc, err)
		}
	}
	loc, err := (&Config{Timezone: "UTC"}).Location()
	if err != nil || loc.String() != "UTC" {
		t.Fatalf("Location(UTC) = %v, %v", loc, err)
	}
}

func TestNewLogger_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	cfg := &Config{LogPath: path, LogLevel: "warn"}

	logger, closer, err := cfg.NewLogger(false)
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("hidden")
	logger.Warn("shown", "k", 1)
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	if strings.Contains(out, "hidden") {
		t.Fatal("info record should be filtered at warn level")
	}
	if !strings.Contains(out, "msg=shown") || !strings.Contains(out, "k=1") {
		t.Fatalf("unexpected log output %q", out)
	}
}

func TestNewLogger_VerboseIsDebug(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	cfg := &Config{LogPath: path, LogLevel: "error"}

	logger, closer, err := cfg.NewLogger(true)
	if err != nil {
		t.Fatal(err)
	}
	logger.Debug("tick")
	closer.Close()

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "msg=tick") {
		t.Fatalf("verbose logger should emit debug records, got %q", data)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, ".env", "POMOFOCUS_TEST_ONLY=fromfile\nPOMOFOCUS_TEST_SET=fromfile\n")
	t.Setenv("POMOFOCUS_TEST_SET", "fromenv")
	t.Setenv("POMOFOCUS_TEST_ONLY", "")
	os.Unsetenv("POMOFOCUS_TEST_ONLY")

	if err := LoadDotEnv(path, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("POMOFOCUS_TEST_ONLY"); got != "fromfile" {
		t.Fatalf("POMOFOCUS_TEST_ONLY = %q", got)
	}
	if got := os.Getenv("POMOFOCUS_TEST_SET"); got != "fromenv" {
		t.Fatalf("existing variable overridden: %q", got)
	}
}
