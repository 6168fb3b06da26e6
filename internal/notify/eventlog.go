package notify

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/sadopc/pomofocus/internal/timer"
)

// Event is one line of the boundary log.
type Event struct {
	Time  time.Time         `json:"time"`
	User  string            `json:"user,omitempty"`
	Next  timer.SessionType `json:"next"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
}

// EventLog appends boundaries to a JSONL file.
type EventLog struct {
	path string
	user string
	now  func() time.Time

	mu   sync.Mutex
	file *os.File
}

// OpenEventLog opens (or creates) the log at path for appending.
func OpenEventLog(path, user string) (*EventLog, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}
	return &EventLog{path: path, user: user, now: time.Now, file: f}, nil
}

func (l *EventLog) OnSessionBoundary(_ context.Context, next timer.SessionType) error {
	msg := MessageFor(next)
	data, err := json.Marshal(Event{
		Time:  l.now().UTC(),
		User:  l.user,
		Next:  next,
		Title: msg.Title,
		Body:  msg.Body,
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	data = append(data, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.file.Write(data); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}

// Read returns every event in the log, skipping malformed lines.
func (l *EventLog) Read() ([]Event, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open event log for reading: %w", err)
	}
	defer func() { _ = f.Close() }()

	var events []Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var ev Event
		if err := json.Unmarshal(line, &ev); err != nil {
			continue
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan event log: %w", err)
	}
	return events, nil
}

func (l *EventLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.file.Close(); err != nil {
		return fmt.Errorf("close event log: %w", err)
	}
	return nil
}
