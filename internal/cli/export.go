package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sadopc/pomofocus/internal/export"
	"github.com/sadopc/pomofocus/internal/store"
)

var (
	exportFormat string
	exportTable  string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export tasks, daily stats and session history",
	Long: `Export the session to a file.

json and yaml write one document with the timer, tasks, daily stats, totals
and session history. csv writes a single table chosen with --table
(tasks, days or history).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireSession(); err != nil {
			return err
		}
		if exportOut == "" {
			return errors.New("--out is required")
		}

		var history []store.SessionRecord
		if Store != nil {
			var err error
			history, err = Store.ListSessions(ctxOf(cmd), Sess.User(), store.HistoryFilter{})
			if err != nil {
				return fmt.Errorf("reading history: %w", err)
			}
		}
		data := export.FromSnapshot(Sess.User(), Sess.Snapshot(), history)

		var err error
		switch exportFormat {
		case "csv":
			table, perr := export.ParseTable(exportTable)
			if perr != nil {
				return perr
			}
			err = export.ToCSV(data, table, exportOut)
		case "json":
			err = export.ToJSON(data, exportOut)
		case "yaml", "yml":
			err = export.ToYAML(data, exportOut)
		default:
			return fmt.Errorf("unknown export format %q (want csv, json or yaml)", exportFormat)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %s to %s\n", exportFormat, exportOut)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "json", "csv, json or yaml")
	exportCmd.Flags().StringVar(&exportTable, "table", string(export.TableTasks), "table for csv: tasks, days or history")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file")
	rootCmd.AddCommand(exportCmd)
}
