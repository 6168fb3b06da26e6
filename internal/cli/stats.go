package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/sadopc/pomofocus/internal/stats"
)

var (
	statsWeek bool
	statsDays int
	statsJSON bool
	statsFrom string
	statsTo   string
)

type statsReport struct {
	Today        stats.DayStats      `json:"today"`
	Days         []stats.DayStats    `json:"days,omitempty"`
	Streak       int                 `json:"streak"`
	Totals       stats.Totals        `json:"totals"`
	Achievements []stats.Achievement `json:"achievements"`
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show focus statistics",
	Long: `Show today's sessions, focus time and completed tasks, the current
streak, all-time totals and achievements.

--week adds the last seven days; --days N the last N; --from and --to an
explicit range of YYYY-MM-DD dates (--to defaults to today).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireSession(); err != nil {
			return err
		}

		streakCap := 30
		if Cfg != nil {
			streakCap = Cfg.StreakDays
		}
		report := statsReport{
			Today:        Sess.Today(),
			Streak:       Sess.Streak(streakCap),
			Totals:       Sess.Totals(),
			Achievements: Sess.Achievements(streakCap),
		}
		switch {
		case statsFrom != "":
			to := statsTo
			if to == "" {
				to = report.Today.Date
			}
			days, err := Sess.Range(statsFrom, to)
			if err != nil {
				return err
			}
			report.Days = days
		case statsDays > 0:
			report.Days = Sess.LastDays(statsDays)
		case statsWeek:
			report.Days = Sess.Weekly()
		}

		out := cmd.OutOrStdout()
		if statsJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}
		printStats(out, report)
		return nil
	},
}

func printStats(w io.Writer, r statsReport) {
	fmt.Fprintf(w, "Today (%s)\n", r.Today.Date)
	fmt.Fprintf(w, "  Sessions:        %d\n", r.Today.Sessions)
	fmt.Fprintf(w, "  Focus time:      %s\n", formatMinutes(r.Today.FocusTime))
	fmt.Fprintf(w, "  Tasks completed: %d\n", r.Today.TasksCompleted)
	fmt.Fprintf(w, "  Breaks:          %d\n", r.Today.Breaks)
	fmt.Fprintf(w, "Streak: %d %s\n", r.Streak, plural(r.Streak, "day", "days"))

	if len(r.Days) > 0 {
		peak := 0
		for _, d := range r.Days {
			peak = max(peak, d.FocusTime)
		}
		fmt.Fprintln(w)
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "DATE\tSESSIONS\tFOCUS\tTASKS\t")
		for _, d := range r.Days {
			fmt.Fprintf(tw, "%s\t%d\t%s\t%d\t%s\n", d.Date, d.Sessions, formatMinutes(d.FocusTime), d.TasksCompleted, bar(d.FocusTime, peak, 20))
		}
		tw.Flush()
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "All time: %s sessions, %s focused over %d active %s, %s tasks completed\n",
		humanize.Comma(int64(r.Totals.Sessions)), formatMinutes(r.Totals.FocusTime),
		r.Totals.ActiveDays, plural(r.Totals.ActiveDays, "day", "days"),
		humanize.Comma(int64(r.Totals.TasksCompleted)))

	fmt.Fprintln(w, "Achievements:")
	for _, a := range r.Achievements {
		mark := " "
		if a.Unlocked {
			mark = "x"
		}
		fmt.Fprintf(w, "  [%s] %-18s %d/%d  %s\n", mark, a.Title, a.Progress, a.Max, a.Description)
	}
}

// bar draws v against peak in at most width cells.
func bar(v, peak, width int) string {
	if peak <= 0 || v <= 0 {
		return ""
	}
	return strings.Repeat("#", max(1, v*width/peak))
}

// formatMinutes renders minutes as "1h 30m".
func formatMinutes(m int) string {
	if m < 60 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh %02dm", m/60, m%60)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func init() {
	statsCmd.Flags().BoolVarP(&statsWeek, "week", "w", false, "include the last seven days")
	statsCmd.Flags().IntVar(&statsDays, "days", 0, "include the last N days")
	statsCmd.Flags().StringVar(&statsFrom, "from", "", "include days from this date (YYYY-MM-DD)")
	statsCmd.Flags().StringVar(&statsTo, "to", "", "last day of the --from range (YYYY-MM-DD)")
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "print JSON")
	rootCmd.AddCommand(statsCmd)
}
