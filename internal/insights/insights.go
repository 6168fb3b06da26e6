// Package insights turns stats and task snapshots into advisory messages.
package insights

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/sadopc/pomofocus/internal/stats"
	"github.com/sadopc/pomofocus/internal/tasks"
	"github.com/sadopc/pomofocus/internal/timer"
)

// MaxInsights is the most a generator returns.
const MaxInsights = 4

// Insight is advisory output; nothing in the core acts on it.
type Insight struct {
	ID          string `json:"id" yaml:"id"`
	Type        string `json:"type" yaml:"type"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	Confidence  int    `json:"confidence" yaml:"confidence"`
	Actionable  string `json:"actionable" yaml:"actionable"`
}

// Input is the read-only snapshot a generator works from.
type Input struct {
	Now            time.Time
	Today          stats.DayStats
	Weekly         []stats.DayStats
	Tasks          []tasks.Task
	SessionCount   int
	CurrentSession timer.SessionType
}

// Generator produces insights for a snapshot.
type Generator interface {
	Generate(ctx context.Context, in Input) ([]Insight, error)
}

// Local is the deterministic rule set.
type Local struct{}

func (Local) Generate(_ context.Context, in Input) ([]Insight, error) {
	var out []Insight

	if h := in.Now.Hour(); h >= 9 && h <= 11 {
		out = append(out, Insight{
			ID:          "peak-time",
			Type:        "timing",
			Title:       "Peak Focus Window Active",
			Description: "You're in your optimal focus window (9-11 AM). This is the perfect time for your most challenging tasks.",
			Confidence:  92,
			Actionable:  "Schedule your most important work now for maximum productivity.",
		})
	}

	if in.SessionCount > 0 {
		rate := float64(in.Today.Sessions) / float64(in.SessionCount) * 100
		if rate > 80 {
			out = append(out, Insight{
				ID:          "high-completion",
				Type:        "productivity",
				Title:       "Excellent Session Completion",
				Description: fmt.Sprintf("You've completed %d%% of your sessions today. Your focus consistency is outstanding!", int(math.Round(rate))),
				Confidence:  88,
				Actionable:  "Keep this momentum going with regular breaks between sessions.",
			})
		}
	}

	active := 0
	for _, t := range in.Tasks {
		if t.Status != tasks.StatusDone {
			active++
		}
	}
	if active > 5 {
		out = append(out, Insight{
			ID:          "task-overload",
			Type:        "task",
			Title:       "Task List Optimization",
			Description: fmt.Sprintf("You have %d active tasks. Consider focusing on 3-5 priority tasks to improve completion rates.", active),
			Confidence:  85,
			Actionable:  "Use the Eisenhower Matrix to prioritize your most important tasks.",
		})
	}

	if s := in.Today.Sessions; s > 3 && float64(in.Today.Breaks) < float64(s)*0.8 {
		out = append(out, Insight{
			ID:          "break-reminder",
			Type:        "break",
			Title:       "Break Pattern Analysis",
			Description: "You're skipping breaks! Regular breaks improve focus quality by up to 23% in subsequent sessions.",
			Confidence:  90,
			Actionable:  "Try taking a 5-minute walk or stretching during your next break.",
		})
	}

	if len(out) > MaxInsights {
		out = out[:MaxInsights]
	}
	return out, nil
}

// Fallback tries Primary and falls back to Secondary when it fails.
type Fallback struct {
	Primary   Generator
	Secondary Generator
	Logger    *slog.Logger
}

func (f Fallback) Generate(ctx context.Context, in Input) ([]Insight, error) {
	if f.Primary != nil {
		out, err := f.Primary.Generate(ctx, in)
		if err == nil {
			return capped(out), nil
		}
		logger := f.Logger
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn("insight generator failed, using fallback", "error", err)
	}
	secondary := f.Secondary
	if secondary == nil {
		secondary = Local{}
	}
	out, err := secondary.Generate(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("generate insights: %w", err)
	}
	return capped(out), nil
}

func capped(in []Insight) []Insight {
	if len(in) > MaxInsights {
		return in[:MaxInsights]
	}
	return in
}
