package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sadopc/pomofocus/internal/insights"
)

var insightsJSON bool

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Show productivity insights for today",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireSession(); err != nil {
			return err
		}

		gen := insights.Fallback{Logger: logger()}
		list, err := gen.Generate(ctxOf(cmd), Sess.InsightInput())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if insightsJSON {
			if list == nil {
				list = []insights.Insight{}
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(list)
		}
		if len(list) == 0 {
			fmt.Fprintln(out, "No insights yet. Complete a few sessions first.")
			return nil
		}
		for i, in := range list {
			if i > 0 {
				fmt.Fprintln(out)
			}
			fmt.Fprintf(out, "%s (%d%% confidence)\n", in.Title, in.Confidence)
			fmt.Fprintf(out, "  %s\n", in.Description)
			fmt.Fprintf(out, "  -> %s\n", in.Actionable)
		}
		return nil
	},
}

func init() {
	insightsCmd.Flags().BoolVar(&insightsJSON, "json", false, "print JSON")
	rootCmd.AddCommand(insightsCmd)
}
