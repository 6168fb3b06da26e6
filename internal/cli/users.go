package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List users with saved state and their all-time totals",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return errors.New("users needs the database")
		}
		ctx := ctxOf(cmd)
		users, err := Store.Users(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(users) == 0 {
			fmt.Fprintln(out, "No users yet.")
			return nil
		}
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "USER\tSESSIONS\tFOCUS\tTASKS\tACTIVE DAYS")
		for _, u := range users {
			t, err := Store.GetTotals(ctx, u)
			if err != nil {
				return err
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", u, humanize.Comma(int64(t.Sessions)),
				formatMinutes(t.FocusTime), humanize.Comma(int64(t.TasksCompleted)), t.ActiveDays)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(usersCmd)
}
