package stats

// Achievement is a milestone badge with its progress towards unlocking.
type Achievement struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	Progress    int    `json:"progress" yaml:"progress"`
	Max         int    `json:"max" yaml:"max"`
	Unlocked    bool   `json:"unlocked" yaml:"unlocked"`
}

type milestone struct {
	id, title, description string
	max                    int
	value                  func(t Totals, streak, completedTasks int) int
}

var milestones = []milestone{
	{"first-session", "Getting Started", "Complete your first focus session", 1,
		func(t Totals, _, _ int) int { return t.Sessions }},
	{"focus-master", "Focus Master", "Complete 25 focus sessions", 25,
		func(t Totals, _, _ int) int { return t.Sessions }},
	{"task-crusher", "Task Crusher", "Complete 50 tasks", 50,
		func(_ Totals, _, done int) int { return done }},
	{"consistency-king", "Consistency King", "Maintain a 7-day streak", 7,
		func(_ Totals, streak, _ int) int { return streak }},
	{"marathon-runner", "Marathon Runner", "Focus for 10 hours in total", 600,
		func(t Totals, _, _ int) int { return t.FocusTime }},
}

// Achievements evaluates every milestone. completedTasks is the number of
// tasks currently marked done.
func Achievements(t Totals, streak, completedTasks int) []Achievement {
	out := make([]Achievement, 0, len(milestones))
	for _, m := range milestones {
		v := m.value(t, streak, completedTasks)
		out = append(out, Achievement{
			ID:          m.id,
			Title:       m.title,
			Description: m.description,
			Progress:    min(max(v, 0), m.max),
			Max:         m.max,
			Unlocked:    v >= m.max,
		})
	}
	return out
}
