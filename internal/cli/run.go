package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sadopc/pomofocus/internal/session"
	"github.com/sadopc/pomofocus/internal/timer"
)

var (
	runFor    time.Duration
	runPaused bool
	runTick   time.Duration
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the timer headless until interrupted",
	Long: `Run the timer without the dashboard. Session boundaries are announced
through the configured notifications (bell, event log, Discord) and the
session is saved after each one.

Stops on Ctrl-C, or after --for when given.`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annTicks: bellVerbose},
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireSession(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(ctxOf(cmd), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if runFor > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, runFor)
			defer cancel()
		}

		out := cmd.OutOrStdout()
		if !runPaused {
			Sess.Start()
		}
		printTimerLine(out, Sess.Timer())

		clock := session.NewClock(Sess,
			session.WithInterval(runTick),
			session.OnTick(func(switched bool) {
				if !switched {
					return
				}
				printTimerLine(out, Sess.Timer())
				if err := Sess.Save(context.WithoutCancel(ctx)); err != nil {
					logger().Error("save after session switch failed", "error", err)
				}
			}),
		)
		clock.Run(ctx)

		st := Sess.Timer()
		fmt.Fprintf(out, "stopped with %s left in %s\n", formatClock(st.TimeLeft), st.CurrentSession.Label())
		return persist(cmd)
	},
}

func printTimerLine(w io.Writer, st timer.State) {
	state := "paused"
	if st.IsRunning {
		state = "running"
	}
	fmt.Fprintf(w, "%s  %-11s %s  %s  (%d completed)\n",
		time.Now().Format("15:04:05"), st.CurrentSession.Label(), formatClock(st.TimeLeft), state, st.SessionCount)
}

// formatClock renders seconds as MM:SS.
func formatClock(secs int) string {
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

func init() {
	runCmd.Flags().DurationVar(&runFor, "for", 0, "stop after this long (0 runs until interrupted)")
	runCmd.Flags().BoolVar(&runPaused, "paused", false, "do not start the timer; only tick if it was left running")
	runCmd.Flags().DurationVar(&runTick, "tick", time.Second, "tick interval")
	_ = runCmd.Flags().MarkHidden("tick")
	rootCmd.AddCommand(runCmd)
}
