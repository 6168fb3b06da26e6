// Package mcpserver exposes the timer, tasks and stats as MCP tools so an
// assistant can read and update a user's session over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/sadopc/pomofocus/internal/insights"
	"github.com/sadopc/pomofocus/internal/session"
	"github.com/sadopc/pomofocus/internal/stats"
	"github.com/sadopc/pomofocus/internal/tasks"
	"github.com/sadopc/pomofocus/internal/timer"
)

const serverName = "pomofocus"

// Server answers tool calls against the sessions of a Manager.
type Server struct {
	sessions    *session.Manager
	defaultUser string
	generator   insights.Generator
	streakDays  int
	logger      *slog.Logger
	mcp         *server.MCPServer
}

type Option func(*Server)

// WithDefaultUser names the session used when a call carries no user.
func WithDefaultUser(u string) Option { return func(s *Server) { s.defaultUser = u } }

// WithGenerator replaces the local insight rules as the primary generator.
// The local rules still answer when it fails.
func WithGenerator(g insights.Generator) Option { return func(s *Server) { s.generator = g } }

func WithStreakDays(n int) Option { return func(s *Server) { s.streakDays = n } }

func WithLogger(l *slog.Logger) Option { return func(s *Server) { s.logger = l } }

func New(sessions *session.Manager, version string, opts ...Option) *Server {
	s := &Server{
		sessions:    sessions,
		defaultUser: session.DefaultUser,
		streakDays:  30,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mcp = server.NewMCPServer(serverName, version, server.WithToolCapabilities(true))
	s.mcp.AddTool(timerStatusTool(), s.handleTimerStatus)
	s.mcp.AddTool(taskAddTool(), s.handleTaskAdd)
	s.mcp.AddTool(taskListTool(), s.handleTaskList)
	s.mcp.AddTool(taskToggleTool(), s.handleTaskToggle)
	s.mcp.AddTool(statsWeeklyTool(), s.handleStatsWeekly)
	s.mcp.AddTool(insightsTool(), s.handleInsights)
	return s
}

// ServeStdio blocks serving requests on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// ============================================================
// Tool definitions
// ============================================================

func userParam() mcp.ToolOption {
	return mcp.WithString("user",
		mcp.Description("User whose session to use. Defaults to the configured user."),
	)
}

func timerStatusTool() mcp.Tool {
	return mcp.NewTool("timer_status",
		mcp.WithDescription("Show the pomodoro timer: current session type, seconds left, whether it is running, completed work sessions and the current task."),
		userParam(),
	)
}

func taskAddTool() mcp.Tool {
	return mcp.NewTool("task_add",
		mcp.WithDescription("Add a task to the top of the task list."),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Task title"),
		),
		mcp.WithString("description",
			mcp.Description("Optional longer description"),
		),
		mcp.WithNumber("estimate",
			mcp.Description("Estimated pomodoros (default 1)"),
		),
		mcp.WithString("priority",
			mcp.Description("low, medium, high or urgent (default medium)"),
		),
		mcp.WithString("tags",
			mcp.Description("Comma-separated tags"),
		),
		userParam(),
	)
}

func taskListTool() mcp.Tool {
	return mcp.NewTool("task_list",
		mcp.WithDescription("List tasks, most recent first. Returns JSON."),
		mcp.WithString("status",
			mcp.Description("Only tasks with this status: todo, in_progress or done"),
		),
		mcp.WithString("priority",
			mcp.Description("Only tasks with this priority"),
		),
		userParam(),
	)
}

func taskToggleTool() mcp.Tool {
	return mcp.NewTool("task_toggle",
		mcp.WithDescription("Toggle a task between done and todo."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Task ID"),
		),
		userParam(),
	)
}

func statsWeeklyTool() mcp.Tool {
	return mcp.NewTool("stats_weekly",
		mcp.WithDescription("Daily focus statistics for the last seven days, oldest first, with today's streak and all-time totals. Returns JSON."),
		userParam(),
	)
}

func insightsTool() mcp.Tool {
	return mcp.NewTool("insights",
		mcp.WithDescription("Up to four productivity insights derived from today's stats and the task list."),
		userParam(),
	)
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) session(ctx context.Context, args map[string]any) (*session.Session, error) {
	user, _ := args["user"].(string)
	if user == "" {
		user = s.defaultUser
	}
	sess, err := s.sessions.Get(ctx, user)
	if err != nil {
		s.logger.Warn("session load failed", "user", user, "error", err)
		return nil, err
	}
	return sess, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

type timerStatus struct {
	timer.State
	Progress    float64     `json:"progress"`
	CurrentTask *tasks.Task `json:"currentTask,omitempty"`
}

func (s *Server) handleTimerStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := req.Params.Arguments.(map[string]any)
	sess, err := s.session(ctx, args)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load session: %v", err)), nil
	}

	st := timerStatus{State: sess.Timer(), Progress: sess.Progress()}
	if cur, ok := sess.CurrentTask(); ok {
		st.CurrentTask = &cur
	}
	return jsonResult(st)
}

func (s *Server) handleTaskAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := req.Params.Arguments.(map[string]any)
	title, _ := args["title"].(string)
	description, _ := args["description"].(string)
	tagList, _ := args["tags"].(string)

	estimate := 1
	if e, ok := args["estimate"].(float64); ok {
		estimate = int(e)
	}
	priority := tasks.PriorityMedium
	if p, ok := args["priority"].(string); ok && p != "" {
		parsed, err := tasks.ParsePriority(p)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		priority = parsed
	}

	sess, err := s.session(ctx, args)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load session: %v", err)), nil
	}
	task, err := sess.AddTask(tasks.NewTask{
		Title:              title,
		Description:        description,
		Tags:               tasks.ParseTags(tagList),
		EstimatedPomodoros: estimate,
		Priority:           priority,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := sess.Save(ctx); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("task added but not saved: %v", err)), nil
	}
	return jsonResult(task)
}

func (s *Server) handleTaskList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := req.Params.Arguments.(map[string]any)

	var status tasks.Status
	if v, ok := args["status"].(string); ok && v != "" {
		parsed, err := tasks.ParseStatus(v)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		status = parsed
	}
	var priority tasks.Priority
	if v, ok := args["priority"].(string); ok && v != "" {
		parsed, err := tasks.ParsePriority(v)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		priority = parsed
	}

	sess, err := s.session(ctx, args)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load session: %v", err)), nil
	}

	var list []tasks.Task
	if status != "" {
		list = sess.TasksByStatus(status)
	} else {
		list = sess.Tasks()
	}
	if priority != "" {
		filtered := list[:0]
		for _, t := range list {
			if t.Priority == priority {
				filtered = append(filtered, t)
			}
		}
		list = filtered
	}
	if list == nil {
		list = []tasks.Task{}
	}
	return jsonResult(list)
}

func (s *Server) handleTaskToggle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := req.Params.Arguments.(map[string]any)
	id, _ := args["id"].(string)
	if id == "" {
		return mcp.NewToolResultError("id is required"), nil
	}

	sess, err := s.session(ctx, args)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load session: %v", err)), nil
	}
	if !sess.ToggleTask(id) {
		return mcp.NewToolResultError(fmt.Sprintf("task %s not found", id)), nil
	}
	if err := sess.Save(ctx); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("task toggled but not saved: %v", err)), nil
	}
	task, _ := sess.Task(id)
	return jsonResult(task)
}

type weeklyStats struct {
	Days   []stats.DayStats `json:"days"`
	Today  stats.DayStats   `json:"today"`
	Streak int              `json:"streak"`
	Totals stats.Totals     `json:"totals"`
}

func (s *Server) handleStatsWeekly(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := req.Params.Arguments.(map[string]any)
	sess, err := s.session(ctx, args)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load session: %v", err)), nil
	}
	return jsonResult(weeklyStats{
		Days:   sess.Weekly(),
		Today:  sess.Today(),
		Streak: sess.Streak(s.streakDays),
		Totals: sess.Totals(),
	})
}

func (s *Server) handleInsights(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := req.Params.Arguments.(map[string]any)
	sess, err := s.session(ctx, args)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load session: %v", err)), nil
	}

	gen := insights.Fallback{Primary: s.generator, Logger: s.logger}
	out, err := gen.Generate(ctx, sess.InsightInput())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if out == nil {
		out = []insights.Insight{}
	}
	return jsonResult(out)
}
