// Package config loads pomofocus settings from config.yaml, the environment
// and an optional .env file. Timer durations are not configured here; they
// live in the database so every host shares them.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	appName   = "pomofocus"
	envPrefix = "POMOFOCUS"

	// StderrLog as log_path sends log output to standard error.
	StderrLog = "stderr"
)

type Discord struct {
	Token   string
	Channel string
}

// Enabled reports whether both credentials are present.
func (d Discord) Enabled() bool { return d.Token != "" && d.Channel != "" }

type Notify struct {
	Bell     bool
	EventLog string
	Discord  Discord
}

// Config is the resolved application configuration.
type Config struct {
	DBPath     string
	LogPath    string
	LogLevel   string
	User       string
	Timezone   string
	StreakDays int
	Notify     Notify

	// File is the config file that was read, empty when none was found.
	File string
}

// Dir returns $XDG_CONFIG_HOME/pomofocus (or the platform equivalent).
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(base, appName), nil
}

func defaults(dir string) Config {
	return Config{
		DBPath:     filepath.Join(dir, appName+".db"),
		LogPath:    filepath.Join(dir, appName+".log"),
		LogLevel:   "info",
		User:       "local",
		StreakDays: 30,
		Notify:     Notify{Bell: true},
	}
}

// Load reads configuration. With file empty, config.yaml is looked up in
// Dir() and its absence is not an error. Environment variables prefixed
// POMOFOCUS_ override both the file and the defaults, e.g.
// POMOFOCUS_NOTIFY_DISCORD_TOKEN for notify.discord.token.
func Load(file string) (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	def := defaults(dir)

	v := viper.New()
	if file != "" {
		if _, err := os.Stat(file); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(dir)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("db_path", def.DBPath)
	v.SetDefault("log_path", def.LogPath)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("user", def.User)
	v.SetDefault("timezone", def.Timezone)
	v.SetDefault("streak_days", def.StreakDays)
	v.SetDefault("notify.bell", def.Notify.Bell)
	v.SetDefault("notify.event_log", def.Notify.EventLog)
	v.SetDefault("notify.discord.token", "")
	v.SetDefault("notify.discord.channel", "")

	found := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		found = false
	}

	cfg := &Config{
		DBPath:     v.GetString("db_path"),
		LogPath:    v.GetString("log_path"),
		LogLevel:   v.GetString("log_level"),
		User:       v.GetString("user"),
		Timezone:   v.GetString("timezone"),
		StreakDays: v.GetInt("streak_days"),
		Notify: Notify{
			Bell:     v.GetBool("notify.bell"),
			EventLog: v.GetString("notify.event_log"),
			Discord: Discord{
				Token:   v.GetString("notify.discord.token"),
				Channel: v.GetString("notify.discord.channel"),
			},
		},
	}
	if found {
		cfg.File = v.ConfigFileUsed()
	}
	if cfg.StreakDays < 0 {
		return nil, fmt.Errorf("streak_days must not be negative, got %d", cfg.StreakDays)
	}
	if _, err := cfg.Level(); err != nil {
		return nil, err
	}
	if _, err := cfg.Location(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads each .env file that exists. Variables already set in the
// environment win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Location resolves the timezone used for day buckets. Empty or "Local"
// means the host zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c *Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return lvl, nil
}

// NewLogger builds the application logger. Output goes to LogPath so the
// TUI keeps the terminal; verbose forces debug level. The returned closer
// releases the log file.
func (c *Config) NewLogger(verbose bool) (*slog.Logger, io.Closer, error) {
	lvl, err := c.Level()
	if err != nil {
		return nil, nil, err
	}
	if verbose {
		lvl = slog.LevelDebug
	}

	var w io.Writer
	var closer io.Closer = nopCloser{}
	switch c.LogPath {
	case "":
		w = io.Discard
	case StderrLog:
		w = os.Stderr
	default:
		if err := os.MkdirAll(filepath.Dir(c.LogPath), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(c.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w, closer = f, f
	}

	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
	return logger, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
