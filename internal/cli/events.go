package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/sadopc/pomofocus/internal/notify"
)

var (
	eventsLimit int
	eventsAll   bool
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show the notification event log",
	Long: `Print the session boundaries recorded in the event log configured as
notify.event_log, newest last. Only the current user's events are shown
unless --all is given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireSession(); err != nil {
			return err
		}
		if Cfg == nil || Cfg.Notify.EventLog == "" {
			return errors.New("no event log configured (set notify.event_log)")
		}

		el, err := notify.OpenEventLog(Cfg.Notify.EventLog, Sess.User())
		if err != nil {
			return err
		}
		defer func() { _ = el.Close() }()
		events, err := el.Read()
		if err != nil {
			return err
		}

		var shown []notify.Event
		for _, ev := range events {
			if eventsAll || ev.User == "" || ev.User == Sess.User() {
				shown = append(shown, ev)
			}
		}
		if eventsLimit > 0 && len(shown) > eventsLimit {
			shown = shown[len(shown)-eventsLimit:]
		}

		out := cmd.OutOrStdout()
		if len(shown) == 0 {
			fmt.Fprintln(out, "No events logged.")
			return nil
		}
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "WHEN\tUSER\tNEXT\tMESSAGE")
		for _, ev := range shown {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", humanize.Time(ev.Time), ev.User, ev.Next.Label(), ev.Title)
		}
		return tw.Flush()
	},
}

func init() {
	eventsCmd.Flags().IntVarP(&eventsLimit, "limit", "n", 20, "show at most the last N events (0 for all)")
	eventsCmd.Flags().BoolVar(&eventsAll, "all", false, "include every user's events")
	rootCmd.AddCommand(eventsCmd)
}
