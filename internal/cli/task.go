package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/sadopc/pomofocus/internal/tasks"
)

var (
	taskDescription string
	taskEstimate    int
	taskPriority    string
	taskTags        string

	taskListStatus   string
	taskListPriority string
	taskListJSON     bool

	taskCurrentClear bool

	taskEditTitle  string
	taskEditStatus string
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks",
	Long: `Add, list, complete and remove tasks. The current task receives a
pomodoro each time a work session completes.

Task IDs may be abbreviated to any unique prefix.`,
}

var taskAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a task",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireSession(); err != nil {
			return err
		}
		priority, err := tasks.ParsePriority(taskPriority)
		if err != nil {
			return err
		}

		t, err := Sess.AddTask(tasks.NewTask{
			Title:              strings.Join(args, " "),
			Description:        taskDescription,
			Tags:               tasks.ParseTags(taskTags),
			EstimatedPomodoros: taskEstimate,
			Priority:           priority,
		})
		if err != nil {
			return err
		}
		if err := persist(cmd); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added task %s: %s\n", shortID(t.ID), t.Title)
		return nil
	},
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks, most recent first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireSession(); err != nil {
			return err
		}

		list := Sess.Tasks()
		if taskListPriority != "" {
			priority, err := tasks.ParsePriority(taskListPriority)
			if err != nil {
				return err
			}
			list = Sess.TasksByPriority(priority)
		}
		if taskListStatus != "" {
			status, err := tasks.ParseStatus(taskListStatus)
			if err != nil {
				return err
			}
			var filtered []tasks.Task
			for _, t := range list {
				if t.Status == status {
					filtered = append(filtered, t)
				}
			}
			list = filtered
		}

		out := cmd.OutOrStdout()
		if taskListJSON {
			if list == nil {
				list = []tasks.Task{}
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(list)
		}
		if len(list) == 0 {
			fmt.Fprintln(out, "No tasks found.")
			return nil
		}
		currentID := ""
		if cur, ok := Sess.CurrentTask(); ok {
			currentID = cur.ID
		}
		printTaskTable(out, list, currentID)
		return nil
	},
}

var taskEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change a task's fields",
	Long: `Change the fields given as flags and leave the rest alone. --tags
replaces the whole tag list; pass an empty string to clear it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireSession(); err != nil {
			return err
		}
		t, err := resolveTask(args[0])
		if err != nil {
			return err
		}
		p, err := taskPatch(cmd)
		if err != nil {
			return err
		}
		if p == (tasks.Patch{}) {
			return errors.New("nothing to change; pass at least one flag")
		}
		Sess.UpdateTask(t.ID, p)
		if err := persist(cmd); err != nil {
			return err
		}
		t, _ = Sess.Task(t.ID)
		fmt.Fprintf(cmd.OutOrStdout(), "Updated task %s: %s [%s, %s]\n", shortID(t.ID), t.Title, t.Status, t.Priority)
		return nil
	},
}

// taskPatch collects the edit flags that were set on the command line.
func taskPatch(cmd *cobra.Command) (tasks.Patch, error) {
	var p tasks.Patch
	f := cmd.Flags()
	if f.Changed("title") {
		if strings.TrimSpace(taskEditTitle) == "" {
			return tasks.Patch{}, errors.New("title must not be empty")
		}
		p.Title = &taskEditTitle
	}
	if f.Changed("desc") {
		p.Description = &taskDescription
	}
	if f.Changed("estimate") {
		p.EstimatedPomodoros = &taskEstimate
	}
	if f.Changed("tags") {
		tags := tasks.ParseTags(taskTags)
		p.Tags = &tags
	}
	if f.Changed("priority") {
		priority, err := tasks.ParsePriority(taskPriority)
		if err != nil {
			return tasks.Patch{}, err
		}
		p.Priority = &priority
	}
	if f.Changed("status") {
		status, err := tasks.ParseStatus(taskEditStatus)
		if err != nil {
			return tasks.Patch{}, err
		}
		p.Status = &status
	}
	return p, nil
}

var taskDoneCmd = &cobra.Command{
	Use:   "done <id>",
	Short: "Mark a task done",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireSession(); err != nil {
			return err
		}
		t, err := resolveTask(args[0])
		if err != nil {
			return err
		}
		if t.Status == tasks.StatusDone {
			fmt.Fprintf(cmd.OutOrStdout(), "Task %s is already done\n", shortID(t.ID))
			return nil
		}
		Sess.CompleteTask(t.ID)
		if err := persist(cmd); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Completed task %s: %s (%d/%d pomodoros)\n",
			shortID(t.ID), t.Title, t.ActualPomodoros, t.EstimatedPomodoros)
		return nil
	},
}

var taskToggleCmd = &cobra.Command{
	Use:   "toggle <id>",
	Short: "Toggle a task between done and todo",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireSession(); err != nil {
			return err
		}
		t, err := resolveTask(args[0])
		if err != nil {
			return err
		}
		Sess.ToggleTask(t.ID)
		if err := persist(cmd); err != nil {
			return err
		}
		t, _ = Sess.Task(t.ID)
		fmt.Fprintf(cmd.OutOrStdout(), "Task %s is now %s\n", shortID(t.ID), t.Status)
		return nil
	},
}

var taskRmCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"delete"},
	Short:   "Delete a task",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireSession(); err != nil {
			return err
		}
		t, err := resolveTask(args[0])
		if err != nil {
			return err
		}
		Sess.DeleteTask(t.ID)
		if err := persist(cmd); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %s: %s\n", shortID(t.ID), t.Title)
		return nil
	},
}

var taskCurrentCmd = &cobra.Command{
	Use:   "current [id]",
	Short: "Show or set the task credited with work sessions",
	Long: `With an id, make that task current; a todo task moves to in_progress.
Without one, print the current task. --clear unsets it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireSession(); err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		switch {
		case taskCurrentClear:
			Sess.ClearCurrentTask()
			if err := persist(cmd); err != nil {
				return err
			}
			fmt.Fprintln(out, "Cleared current task")
			return nil
		case len(args) == 1:
			t, err := resolveTask(args[0])
			if err != nil {
				return err
			}
			Sess.SetCurrentTask(t.ID)
			if err := persist(cmd); err != nil {
				return err
			}
			fmt.Fprintf(out, "Current task: %s %s\n", shortID(t.ID), t.Title)
			return nil
		}

		cur, ok := Sess.CurrentTask()
		if !ok {
			fmt.Fprintln(out, "No current task.")
			return nil
		}
		fmt.Fprintf(out, "%s %s [%s] %d/%d pomodoros\n",
			shortID(cur.ID), cur.Title, cur.Status, cur.ActualPomodoros, cur.EstimatedPomodoros)
		return nil
	},
}

// resolveTask finds a task by full id or unique id prefix.
func resolveTask(ref string) (tasks.Task, error) {
	if t, ok := Sess.Task(ref); ok {
		return t, nil
	}
	var matches []tasks.Task
	for _, t := range Sess.Tasks() {
		if strings.HasPrefix(t.ID, ref) {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 0:
		return tasks.Task{}, fmt.Errorf("task %q not found", ref)
	case 1:
		return matches[0], nil
	}
	return tasks.Task{}, fmt.Errorf("task id %q is ambiguous (%d matches)", ref, len(matches))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func printTaskTable(w io.Writer, list []tasks.Task, currentID string) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  ID\tTITLE\tSTATUS\tPRIORITY\tPOMODOROS\tTAGS\tCREATED")
	for _, t := range list {
		marker := " "
		if t.ID == currentID {
			marker = "*"
		}
		fmt.Fprintf(tw, "%s %s\t%s\t%s\t%s\t%d/%d\t%s\t%s\n",
			marker, shortID(t.ID), t.Title, t.Status, t.Priority,
			t.ActualPomodoros, t.EstimatedPomodoros, strings.Join(t.Tags, ","), humanize.Time(t.CreatedAt))
	}
	tw.Flush()
}

func init() {
	taskAddCmd.Flags().StringVarP(&taskDescription, "desc", "d", "", "task description")
	taskAddCmd.Flags().IntVarP(&taskEstimate, "estimate", "e", 1, "estimated pomodoros")
	taskAddCmd.Flags().StringVarP(&taskPriority, "priority", "p", string(tasks.PriorityMedium), "low, medium, high or urgent")
	taskAddCmd.Flags().StringVarP(&taskTags, "tags", "t", "", "comma-separated tags")

	taskListCmd.Flags().StringVar(&taskListStatus, "status", "", "only tasks with this status (todo, in_progress, done)")
	taskListCmd.Flags().StringVar(&taskListPriority, "priority", "", "only tasks with this priority")
	taskListCmd.Flags().BoolVar(&taskListJSON, "json", false, "print JSON")

	taskEditCmd.Flags().StringVar(&taskEditTitle, "title", "", "new title")
	taskEditCmd.Flags().StringVarP(&taskDescription, "desc", "d", "", "new description")
	taskEditCmd.Flags().IntVarP(&taskEstimate, "estimate", "e", 1, "new estimate in pomodoros")
	taskEditCmd.Flags().StringVarP(&taskPriority, "priority", "p", string(tasks.PriorityMedium), "low, medium, high or urgent")
	taskEditCmd.Flags().StringVarP(&taskTags, "tags", "t", "", "comma-separated tags")
	taskEditCmd.Flags().StringVar(&taskEditStatus, "status", "", "todo, in_progress or done")

	taskCurrentCmd.Flags().BoolVar(&taskCurrentClear, "clear", false, "unset the current task")

	taskCmd.AddCommand(taskAddCmd, taskListCmd, taskEditCmd, taskDoneCmd, taskToggleCmd, taskRmCmd, taskCurrentCmd)
	rootCmd.AddCommand(taskCmd)
}
