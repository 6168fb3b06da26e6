// Package tasks holds the task collection and the single "current" task that
// receives pomodoro credit.
package tasks

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrEmptyTitle is returned by Add when the title is blank.
var ErrEmptyTitle = errors.New("task title is empty")

type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

// ParseStatus accepts the persisted form of a status.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusTodo, StatusInProgress, StatusDone:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown task status %q", s)
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Priorities lists every priority from least to most pressing.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

// ParsePriority accepts the persisted form of a priority.
func ParsePriority(s string) (Priority, error) {
	switch Priority(s) {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return Priority(s), nil
	}
	return "", fmt.Errorf("unknown task priority %q", s)
}

type Task struct {
	ID                 string     `json:"id" yaml:"id"`
	Title              string     `json:"title" yaml:"title"`
	Description        string     `json:"description,omitempty" yaml:"description,omitempty"`
	Tags               []string   `json:"tags,omitempty" yaml:"tags,omitempty"`
	EstimatedPomodoros int        `json:"estimatedPomodoros" yaml:"estimated_pomodoros"`
	ActualPomodoros    int        `json:"actualPomodoros" yaml:"actual_pomodoros"`
	Status             Status     `json:"status" yaml:"status"`
	Priority           Priority   `json:"priority" yaml:"priority"`
	CreatedAt          time.Time  `json:"createdAt" yaml:"created_at"`
	UpdatedAt          time.Time  `json:"updatedAt" yaml:"updated_at"`
	CompletedAt        *time.Time `json:"completedAt,omitempty" yaml:"completed_at,omitempty"`
}

func (t Task) clone() Task {
	t.Tags = slices.Clone(t.Tags)
	if t.CompletedAt != nil {
		c := *t.CompletedAt
		t.CompletedAt = &c
	}
	return t
}

// ParseTags splits a comma-separated tag list, dropping blanks.
func ParseTags(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// NewTask carries the user-supplied fields of a task being created.
type NewTask struct {
	Title              string
	Description        string
	Tags               []string
	EstimatedPomodoros int
	Priority           Priority
}

// Patch is a partial update; nil fields are left alone.
type Patch struct {
	Title              *string
	Description        *string
	Tags               *[]string
	EstimatedPomodoros *int
	Status             *Status
	Priority           *Priority
}

// Listener is told when a task transitions into done.
type Listener interface {
	OnTaskCompleted(Task)
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(Task)

func (f ListenerFunc) OnTaskCompleted(t Task) { f(t) }

// Snapshot is the persisted form of a registry.
type Snapshot struct {
	Tasks     []Task `json:"tasks" yaml:"tasks"`
	CurrentID string `json:"currentId,omitempty" yaml:"current_id,omitempty"`
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock overrides the time source for timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithIDFunc overrides how task IDs are generated.
func WithIDFunc(newID func() string) Option {
	return func(r *Registry) { r.newID = newID }
}

// Registry owns the task list, most recent first.
type Registry struct {
	mu        sync.Mutex
	tasks     []Task
	current   string
	listeners []Listener
	now       func() time.Time
	newID     func() string
}

func New(opts ...Option) *Registry {
	r := &Registry{
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Subscribe registers l for task-completed events.
func (r *Registry) Subscribe(l Listener) {
	r.mu.Lock()
	r.listeners = append(r.listeners, l)
	r.mu.Unlock()
}

// Add creates a todo task and puts it at the front of the list.
func (r *Registry) Add(nt NewTask) (Task, error) {
	title := strings.TrimSpace(nt.Title)
	if title == "" {
		return Task{}, ErrEmptyTitle
	}
	if nt.EstimatedPomodoros < 1 {
		nt.EstimatedPomodoros = 1
	}
	if nt.Priority == "" {
		nt.Priority = PriorityMedium
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	t := Task{
		ID:                 r.newID(),
		Title:              title,
		Description:        nt.Description,
		Tags:               slices.Clone(nt.Tags),
		EstimatedPomodoros: nt.EstimatedPomodoros,
		Status:             StatusTodo,
		Priority:           nt.Priority,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	r.tasks = append([]Task{t}, r.tasks...)
	return t.clone(), nil
}

// Update merges p into the task. Unknown ids are ignored and reported false.
func (r *Registry) Update(id string, p Patch) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexLocked(id)
	if i < 0 {
		return false
	}
	r.applyLocked(i, p)
	return true
}

// Delete removes a task, clearing the current binding if it pointed at it.
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexLocked(id)
	if i < 0 {
		return false
	}
	r.tasks = slices.Delete(r.tasks, i, i+1)
	if r.current == id {
		r.current = ""
	}
	return true
}

// Toggle flips a task between done and todo. Moving into done notifies
// listeners; moving out of it does not.
func (r *Registry) Toggle(id string) bool {
	return r.transition(id, func(st Status) (Status, bool) {
		if st == StatusDone {
			return StatusTodo, true
		}
		return StatusDone, true
	})
}

// Complete marks a task done if it is not already, with the same
// notification as Toggle. It reports whether the task changed.
func (r *Registry) Complete(id string) bool {
	return r.transition(id, func(st Status) (Status, bool) {
		return StatusDone, st != StatusDone
	})
}

// transition moves a task to the status pick returns, reading and writing
// the status under one lock. pick reports false to leave the task alone.
func (r *Registry) transition(id string, pick func(Status) (Status, bool)) bool {
	r.mu.Lock()
	i := r.indexLocked(id)
	if i < 0 {
		r.mu.Unlock()
		return false
	}
	next, ok := pick(r.tasks[i].Status)
	if !ok {
		r.mu.Unlock()
		return false
	}
	r.applyLocked(i, Patch{Status: &next})
	done, listeners := r.tasks[i].clone(), append([]Listener(nil), r.listeners...)
	r.mu.Unlock()

	if next == StatusDone {
		for _, l := range listeners {
			l.OnTaskCompleted(done)
		}
	}
	return true
}

// SetCurrent binds the task that receives pomodoro credit and moves it to
// in_progress. The previously current task is left as it was.
func (r *Registry) SetCurrent(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexLocked(id)
	if i < 0 {
		return false
	}
	r.current = id
	if r.tasks[i].Status != StatusInProgress {
		s := StatusInProgress
		r.applyLocked(i, Patch{Status: &s})
	}
	return true
}

// ClearCurrent unbinds the current task.
func (r *Registry) ClearCurrent() {
	r.mu.Lock()
	r.current = ""
	r.mu.Unlock()
}

// Current returns the bound task, if any.
func (r *Registry) Current() (Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == "" {
		return Task{}, false
	}
	i := r.indexLocked(r.current)
	if i < 0 {
		return Task{}, false
	}
	return r.tasks[i].clone(), true
}

// IncrementPomodoro credits one completed work session to a task.
func (r *Registry) IncrementPomodoro(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexLocked(id)
	if i < 0 {
		return false
	}
	r.tasks[i].ActualPomodoros++
	r.tasks[i].UpdatedAt = r.now()
	return true
}

// Get returns a copy of a task.
func (r *Registry) Get(id string) (Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexLocked(id)
	if i < 0 {
		return Task{}, false
	}
	return r.tasks[i].clone(), true
}

// List returns every task, most recent first.
func (r *Registry) List() []Task {
	return r.filter(func(Task) bool { return true })
}

func (r *Registry) ByStatus(s Status) []Task {
	return r.filter(func(t Task) bool { return t.Status == s })
}

func (r *Registry) ByPriority(p Priority) []Task {
	return r.filter(func(t Task) bool { return t.Priority == p })
}

// Snapshot returns the persisted form of the registry.
func (r *Registry) Snapshot() Snapshot {
	return Snapshot{Tasks: r.List(), CurrentID: r.currentID()}
}

// Restore replaces the registry contents. A current id that does not match
// any task is dropped.
func (r *Registry) Restore(s Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tasks = make([]Task, 0, len(s.Tasks))
	for _, t := range s.Tasks {
		r.tasks = append(r.tasks, t.clone())
	}
	r.current = ""
	if r.indexLocked(s.CurrentID) >= 0 {
		r.current = s.CurrentID
	}
}

func (r *Registry) currentID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

func (r *Registry) filter(keep func(Task) bool) []Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		if keep(t) {
			out = append(out, t.clone())
		}
	}
	return out
}

func (r *Registry) indexLocked(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(r.tasks, func(t Task) bool { return t.ID == id })
}

func (r *Registry) applyLocked(i int, p Patch) {
	t := &r.tasks[i]
	now := r.now()
	if p.Title != nil {
		if title := strings.TrimSpace(*p.Title); title != "" {
			t.Title = title
		}
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Tags != nil {
		t.Tags = slices.Clone(*p.Tags)
	}
	if p.EstimatedPomodoros != nil && *p.EstimatedPomodoros >= 1 {
		t.EstimatedPomodoros = *p.EstimatedPomodoros
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Status != nil && *p.Status != t.Status {
		switch {
		case *p.Status == StatusDone:
			t.CompletedAt = &now
		case t.Status == StatusDone:
			t.CompletedAt = nil
		}
		t.Status = *p.Status
	}
	t.UpdatedAt = now
}
