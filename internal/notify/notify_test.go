package notify

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"

	"github.com/sadopc/pomofocus/internal/timer"
)

func TestMessageFor(t *testing.T) {
	tests := []struct {
		next  timer.SessionType
		title string
	}{
		{timer.Work, "Work time!"},
		{timer.ShortBreak, "Break time!"},
		{timer.LongBreak, "Break time!"},
	}
	for _, tt := range tests {
		if got := MessageFor(tt.next).Title; got != tt.title {
			t.Fatalf("MessageFor(%s) = %q, want %q", tt.next, got, tt.title)
		}
	}
}

func TestBell(t *testing.T) {
	var buf bytes.Buffer
	if err := NewBell(&buf, false).OnSessionBoundary(context.Background(), timer.ShortBreak); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "\a" {
		t.Fatalf("expected bare bell, got %q", buf.String())
	}

	buf.Reset()
	NewBell(&buf, true).OnSessionBoundary(context.Background(), timer.Work)
	if !strings.HasPrefix(buf.String(), "\a") || !strings.Contains(buf.String(), "Work time!") {
		t.Fatalf("unexpected verbose output %q", buf.String())
	}
}

func TestEventLogAppendsAndReads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	log, err := OpenEventLog(path, "alice")
	if err != nil {
		t.Fatalf("open event log: %v", err)
	}
	defer log.Close()

	ctx := context.Background()
	for _, next := range []timer.SessionType{timer.ShortBreak, timer.Work} {
		if err := log.OnSessionBoundary(ctx, next); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	events, err := log.Read()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Next != timer.ShortBreak || events[0].User != "alice" || events[0].Title != "Break time!" {
		t.Fatalf("unexpected first event %+v", events[0])
	}
	if events[1].Next != timer.Work {
		t.Fatalf("unexpected second event %+v", events[1])
	}
}

type fakeSender struct {
	channel, content string
	err              error
}

func (f *fakeSender) ChannelMessageSend(channelID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.channel, f.content = channelID, content
	if f.err != nil {
		return nil, f.err
	}
	return &discordgo.Message{ChannelID: channelID, Content: content}, nil
}

func TestDiscord(t *testing.T) {
	sender := &fakeSender{}
	d := NewDiscord(sender, "chan-1")
	if err := d.OnSessionBoundary(context.Background(), timer.LongBreak); err != nil {
		t.Fatal(err)
	}
	if sender.channel != "chan-1" || !strings.Contains(sender.content, "Break time!") {
		t.Fatalf("unexpected message %q to %q", sender.content, sender.channel)
	}

	sender.err = errors.New("rate limited")
	if err := d.OnSessionBoundary(context.Background(), timer.Work); err == nil {
		t.Fatal("expected send error")
	}
}

func TestDialDiscordRequiresConfig(t *testing.T) {
	if _, err := DialDiscord("", "chan"); err == nil {
		t.Fatal("expected error for missing token")
	}
}

func TestMultiCallsEverySink(t *testing.T) {
	var calls []string
	boom := errors.New("boom")
	m := Multi{
		SinkFunc(func(context.Context, timer.SessionType) error { calls = append(calls, "a"); return boom }),
		nil,
		SinkFunc(func(context.Context, timer.SessionType) error { calls = append(calls, "b"); return nil }),
	}
	err := m.OnSessionBoundary(context.Background(), timer.Work)
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if strings.Join(calls, ",") != "a,b" {
		t.Fatalf("expected both sinks called, got %v", calls)
	}
	if err := (Nop{}).OnSessionBoundary(context.Background(), timer.Work); err != nil {
		t.Fatal(err)
	}
}
