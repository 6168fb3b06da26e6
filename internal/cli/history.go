package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/sadopc/pomofocus/internal/store"
	"github.com/sadopc/pomofocus/internal/timer"
)

var (
	historyType  string
	historyLimit int
	historySince time.Duration
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List completed sessions, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireSession(); err != nil {
			return err
		}
		if Store == nil {
			return errors.New("history needs the database")
		}

		f := store.HistoryFilter{Limit: historyLimit}
		if historyType != "" {
			t, err := timer.ParseSessionType(historyType)
			if err != nil {
				return err
			}
			f.Type = t
		}
		now := time.Now()
		if historySince > 0 {
			from := now.Add(-historySince)
			f.From = &from
		}

		ctx := ctxOf(cmd)
		records, err := Store.ListSessions(ctx, Sess.User(), f)
		if err != nil {
			return fmt.Errorf("reading history: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(records) == 0 {
			fmt.Fprintln(out, "No sessions recorded.")
			return nil
		}
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "WHEN\tSESSION\tMINUTES\tNEXT\t#")
		for _, r := range records {
			label := r.Type.Label()
			if r.Skipped {
				label += " (skipped)"
			}
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%d\n", humanize.Time(r.CompletedAt), label, r.DurationMinutes, r.Next.Label(), r.SessionCount)
		}
		tw.Flush()

		if historySince > 0 {
			completed, minutes, err := Store.FocusStats(ctx, Sess.User(), *f.From, now)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "\n%d work %s, %s focused since %s\n",
				completed, plural(completed, "session", "sessions"), formatMinutes(minutes), humanize.Time(*f.From))
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().StringVar(&historyType, "type", "", "only this session type (work, shortBreak, longBreak)")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum rows (0 for all)")
	historyCmd.Flags().DurationVar(&historySince, "since", 0, "only sessions completed within this duration, e.g. 24h")
	rootCmd.AddCommand(historyCmd)
}
