package connector

import (
	"context"
	"strings"
	"testing"
)

func TestSplitMessageShortPassesThrough(t *testing.T) {
	chunks := SplitMessage("hello", 100)
	if len(chunks) != 1 || chunks[0] != "hello" {
		t.Fatalf("got %v, want [hello]", chunks)
	}
}

func TestSplitMessageLong(t *testing.T) {
	long := strings.Repeat("a", 5000)
	chunks := SplitMessage(long, 2000)
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}
	if len(chunks[0]) != 2000 || len(chunks[1]) != 2000 || len(chunks[2]) != 1000 {
		t.Errorf("unexpected chunk sizes: %d %d %d", len(chunks[0]), len(chunks[1]), len(chunks[2]))
	}
}

func TestSplitMessagePrefersNewlineBoundary(t *testing.T) {
	text := strings.Repeat("a", 95) + "line1\n" + strings.Repeat("b", 95) + "line2"
	chunks := SplitMessage(text, 105)
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	if !strings.HasSuffix(chunks[0], "line1") {
		t.Errorf("chunk[0] = %q, want suffix line1", chunks[0])
	}
	if !strings.HasSuffix(chunks[1], "line2") {
		t.Errorf("chunk[1] = %q, want suffix line2", chunks[1])
	}
}

type fakeConnector struct {
	name     string
	messages []IncomingMessage
	polled   int
}

func (f *fakeConnector) PollMessages(ctx context.Context, timeoutSecs int) ([]IncomingMessage, error) {
	f.polled++
	if f.polled == 1 {
		return f.messages, nil
	}
	return nil, nil
}
func (f *fakeConnector) SendMessage(ctx context.Context, chatID, text string) error { return nil }
func (f *fakeConnector) SendMessageGetID(ctx context.Context, chatID, text string) (string, error) {
	return "id1", nil
}
func (f *fakeConnector) EditMessageText(ctx context.Context, chatID, messageID, text string) error {
	return nil
}
func (f *fakeConnector) PlatformName() string { return f.name }

func TestDispatcherRoundRobinsAcrossConnectors(t *testing.T) {
	a := &fakeConnector{name: "a", messages: []IncomingMessage{{ChatID: "c1", Text: "hi-a"}}}
	b := &fakeConnector{name: "b", messages: []IncomingMessage{{ChatID: "c1", Text: "hi-b"}}}

	var seen []string
	ctx, cancel := context.WithCancel(context.Background())
	d := NewDispatcher([]Connector{a, b}, func(ctx context.Context, platform string, msg IncomingMessage) {
		seen = append(seen, platform+":"+msg.Text)
		if len(seen) == 2 {
			cancel()
		}
	}, nil, 1)

	d.Run(ctx)

	if len(seen) != 2 {
		t.Fatalf("got %d messages handled, want 2: %v", len(seen), seen)
	}
	if seen[0] != "a:hi-a" || seen[1] != "b:hi-b" {
		t.Errorf("got %v, want both connectors polled in order", seen)
	}
}
