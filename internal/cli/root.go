// Package cli holds the pomofocus cobra commands.
package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sadopc/pomofocus/internal/tui"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

var rootCmd = &cobra.Command{
	Use:   "pomofocus",
	Short: "Pomodoro timer with task tracking and focus statistics",
	Long: `pomofocus is a terminal pomodoro timer. Work sessions are credited to the
current task and counted into daily statistics; breaks follow automatically.

Run without a subcommand to open the dashboard.`,
	Args:               cobra.NoArgs,
	SilenceUsage:       true,
	SilenceErrors:      true,
	Annotations:        map[string]string{annTicks: bellQuiet},
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireSession(); err != nil {
			return err
		}
		opts := tui.Options{History: Store, Logger: logger()}
		if Cfg != nil {
			opts.StreakDays = Cfg.StreakDays
		}
		p := tea.NewProgram(tui.NewApp(Sess, opts), tea.WithAltScreen(), tea.WithContext(ctxOf(cmd)))
		_, runErr := p.Run()
		if err := persist(cmd); err != nil {
			return err
		}
		return runErr
	},
}

var versionCmd = &cobra.Command{
	Use:         "version",
	Short:       "Print version information",
	Annotations: map[string]string{annSkipSetup: "true"},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "pomofocus %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $XDG_CONFIG_HOME/pomofocus/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&userFlag, "user", "", "user whose session to open")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
