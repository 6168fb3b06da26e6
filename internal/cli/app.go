package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sadopc/pomofocus/internal/config"
	"github.com/sadopc/pomofocus/internal/notify"
	"github.com/sadopc/pomofocus/internal/session"
	"github.com/sadopc/pomofocus/internal/store"
	"github.com/sadopc/pomofocus/internal/timer"
)

// Command annotations read by setup.
const (
	annSkipSetup = "pomofocus/skip-setup"
	// annTicks marks commands that run the timer and so need notification
	// sinks. Its value says how the bell announces a boundary.
	annTicks = "pomofocus/ticks"

	bellQuiet   = "quiet"
	bellVerbose = "verbose"
)

var (
	cfgFile  string
	userFlag string
	verbose  bool
)

// Application state, set by setup before a command runs. Tests assign these
// directly; setup leaves an already assigned Sess alone.
var (
	Cfg         *config.Config
	Store       *store.Store
	Sess        *session.Session
	Logger      *slog.Logger
	sessionOpts []session.Option

	closers []io.Closer
)

func setup(cmd *cobra.Command, _ []string) error {
	if cmd.Annotations[annSkipSetup] != "" || Sess != nil {
		return nil
	}

	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if userFlag != "" {
		cfg.User = userFlag
	}

	logger, logCloser, err := cfg.NewLogger(verbose)
	if err != nil {
		return err
	}
	closers = append(closers, logCloser)
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	st, err := store.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	closers = append(closers, st)

	opts := []session.Option{
		session.WithLocation(loc),
		session.WithPersister(st),
		session.WithHistory(st),
		session.WithLogger(logger),
		session.WithSyncOnSwitch(),
	}
	if cmd.Annotations[annTicks] != "" {
		sink, err := buildSink(cfg, cmd, logger)
		if err != nil {
			return err
		}
		opts = append(opts, session.WithSink(sink))
	}

	sess := session.New(cfg.User, opts...)
	if err := sess.Load(ctxOf(cmd)); err != nil {
		return err
	}
	logger.Debug("session loaded", "user", sess.User(), "db", cfg.DBPath, "config", cfg.File)

	Cfg, Store, Sess, Logger, sessionOpts = cfg, st, sess, logger, opts
	return nil
}

// buildSink assembles the notification sinks enabled in cfg. The bell
// prints its message only for bellVerbose commands.
func buildSink(cfg *config.Config, cmd *cobra.Command, logger *slog.Logger) (notify.Sink, error) {
	sinks := notify.Multi{notify.SinkFunc(func(_ context.Context, next timer.SessionType) error {
		logger.Info("session boundary", "user", cfg.User, "next", next)
		return nil
	})}
	if cfg.Notify.Bell {
		if cmd.Annotations[annTicks] == bellVerbose {
			sinks = append(sinks, notify.NewBell(cmd.OutOrStdout(), true))
		} else {
			sinks = append(sinks, notify.NewBell(os.Stderr, false))
		}
	}
	if cfg.Notify.EventLog != "" {
		el, err := notify.OpenEventLog(cfg.Notify.EventLog, cfg.User)
		if err != nil {
			return nil, err
		}
		closers = append(closers, el)
		sinks = append(sinks, el)
	}
	if cfg.Notify.Discord.Enabled() {
		d, err := notify.DialDiscord(cfg.Notify.Discord.Token, cfg.Notify.Discord.Channel)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, d)
	}
	logger.Debug("notification sinks", "count", len(sinks))
	return sinks, nil
}

func teardown(*cobra.Command, []string) error {
	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	closers = nil
	return errors.Join(errs...)
}

func logger() *slog.Logger {
	if Logger == nil {
		return slog.Default()
	}
	return Logger
}

func requireSession() error {
	if Sess == nil {
		return errors.New("session not initialized")
	}
	return nil
}

// ctxOf returns the command context, which is unset when RunE is called
// directly.
func ctxOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// persist saves the session after a mutating command.
func persist(cmd *cobra.Command) error {
	if err := Sess.Save(ctxOf(cmd)); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}
