package audit

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestLoggerWritesOneLinePerEvent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audit.jsonl")

	logger, err := NewLogger(Config{Output: OutputFile, Path: path})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}

	events := []Event{
		{Kind: KindCapabilityCheck, Capability: "read_paths", Resource: "/data/a", Decision: Allowed},
		{Kind: KindCapabilityCheck, Capability: "write_paths", Resource: "/data/b", Decision: Denied, Reason: "not_in_grant"},
		{Kind: KindToolInvoke, ToolName: "run_command", TurnID: "t1"},
	}
	for _, ev := range events {
		if err := logger.Write(ev); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	var lines int
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var got Event
		if err := json.Unmarshal(scanner.Bytes(), &got); err != nil {
			t.Fatalf("line %d: %v", lines, err)
		}
		if got.Timestamp.IsZero() {
			t.Errorf("line %d: missing timestamp", lines)
		}
		lines++
	}
	if lines != len(events) {
		t.Fatalf("got %d lines, want %d (every event must be written, never dropped)", lines, len(events))
	}
}

func TestNewLoggerRejectsFileOutputWithoutPath(t *testing.T) {
	if _, err := NewLogger(Config{Output: OutputFile}); err == nil {
		t.Fatal("expected error for file output with empty path")
	}
}

func TestNewLoggerRejectsUnknownOutput(t *testing.T) {
	if _, err := NewLogger(Config{Output: "syslog"}); err == nil {
		t.Fatal("expected error for unknown output")
	}
}

func TestLoggerDecisionRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audit.jsonl")
	logger, err := NewLogger(Config{Output: OutputFile, Path: path})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	defer logger.Close()

	want := Event{Kind: KindCapabilityCheck, Capability: "commands", Resource: "curl", Decision: Denied, Reason: "not_in_grant"}
	if err := logger.Write(want); err != nil {
		t.Fatalf("Write: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var got Event
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Decision != want.Decision || got.Reason != want.Reason || got.Capability != want.Capability {
		t.Errorf("got %+v, want %+v", got, want)
	}
}
