package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sadopc/pomofocus/internal/mcpserver"
	"github.com/sadopc/pomofocus/internal/session"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve timer, task and stats tools over MCP on stdio",
	Long: `Start an MCP (Model Context Protocol) server on stdio.

Tools: timer_status, task_add, task_list, task_toggle, stats_weekly and
insights. Each accepts an optional user; without one the configured user
is used. Changes are saved to the database as they are made.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireSession(); err != nil {
			return err
		}

		opts := []mcpserver.Option{
			mcpserver.WithDefaultUser(Sess.User()),
			mcpserver.WithLogger(logger()),
		}
		if Cfg != nil {
			opts = append(opts, mcpserver.WithStreakDays(Cfg.StreakDays))
		}
		mgr := session.NewManager(sessionOpts...)
		srv := mcpserver.New(mgr, appVersion, opts...)

		serveErr := srv.ServeStdio()
		if err := mgr.SaveAll(ctxOf(cmd)); err != nil {
			logger().Warn("saving sessions on shutdown", "error", err)
		} else {
			logger().Debug("sessions saved on shutdown", "users", mgr.Users())
		}
		if serveErr != nil {
			return fmt.Errorf("running MCP server: %w", serveErr)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
