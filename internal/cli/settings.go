package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sadopc/pomofocus/internal/timer"
)

var settingsFlags struct {
	work, short, long, interval int
	autoBreaks, autoWork        bool
	defaults                    bool
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change timer settings",
	Long: `Show the timer settings, or change the ones given as flags.

Durations are in minutes and must be at least 1; the long break interval
must be at least 2. A countdown already in progress keeps its remaining
time; new durations apply from the next reset or session switch.
--defaults restores every setting before the other flags are applied.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireSession(); err != nil {
			return err
		}

		changed := false
		if settingsFlags.defaults {
			if err := Sess.UpdateSettings(timer.PatchFrom(timer.DefaultSettings())); err != nil {
				return err
			}
			changed = true
		}
		if p := settingsPatch(cmd); !p.Empty() {
			if err := Sess.UpdateSettings(p); err != nil {
				return err
			}
			changed = true
		}
		if changed {
			if err := persist(cmd); err != nil {
				return err
			}
		}
		printSettings(cmd.OutOrStdout(), Sess.Timer().Settings)
		return nil
	},
}

// settingsPatch collects the flags that were set on the command line.
func settingsPatch(cmd *cobra.Command) timer.SettingsPatch {
	var p timer.SettingsPatch
	f := cmd.Flags()
	if f.Changed("work") {
		p.WorkDuration = &settingsFlags.work
	}
	if f.Changed("short") {
		p.ShortBreakDuration = &settingsFlags.short
	}
	if f.Changed("long") {
		p.LongBreakDuration = &settingsFlags.long
	}
	if f.Changed("interval") {
		p.LongBreakInterval = &settingsFlags.interval
	}
	if f.Changed("auto-breaks") {
		p.AutoStartBreaks = &settingsFlags.autoBreaks
	}
	if f.Changed("auto-work") {
		p.AutoStartWork = &settingsFlags.autoWork
	}
	return p
}

func printSettings(w io.Writer, s timer.Settings) {
	fmt.Fprintf(w, "Work:               %d min\n", s.WorkDuration)
	fmt.Fprintf(w, "Short break:        %d min\n", s.ShortBreakDuration)
	fmt.Fprintf(w, "Long break:         %d min\n", s.LongBreakDuration)
	fmt.Fprintf(w, "Long break every:   %d sessions\n", s.LongBreakInterval)
	fmt.Fprintf(w, "Auto-start breaks:  %s\n", onOff(s.AutoStartBreaks))
	fmt.Fprintf(w, "Auto-start work:    %s\n", onOff(s.AutoStartWork))
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func init() {
	def := timer.DefaultSettings()
	f := settingsCmd.Flags()
	f.IntVar(&settingsFlags.work, "work", def.WorkDuration, "work session length in minutes")
	f.IntVar(&settingsFlags.short, "short", def.ShortBreakDuration, "short break length in minutes")
	f.IntVar(&settingsFlags.long, "long", def.LongBreakDuration, "long break length in minutes")
	f.IntVar(&settingsFlags.interval, "interval", def.LongBreakInterval, "work sessions between long breaks")
	f.BoolVar(&settingsFlags.autoBreaks, "auto-breaks", def.AutoStartBreaks, "start breaks automatically")
	f.BoolVar(&settingsFlags.autoWork, "auto-work", def.AutoStartWork, "start work sessions automatically")
	f.BoolVar(&settingsFlags.defaults, "defaults", false, "restore the default settings")
	rootCmd.AddCommand(settingsCmd)
}
