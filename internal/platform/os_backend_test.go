package platform

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestOSBackendReadWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "note.txt")
	b := NewOSBackend()
	ctx := context.Background()

	if err := b.WriteFile(ctx, path, []byte("hello")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	data, err := b.ReadFile(ctx, path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("got %q, want %q", data, "hello")
	}
}

func TestOSBackendWriteFileCreatesParentDirectories(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "deeper", "note.txt")

	if err := NewOSBackend().WriteFile(context.Background(), path, []byte("hi")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "hi" {
		t.Errorf("got %q, want %q", data, "hi")
	}
}

func TestOSBackendWriteFileLeavesNoTempFileBehind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "note.txt")

	if err := NewOSBackend().WriteFile(context.Background(), path, []byte("hi")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "note.txt" {
		t.Fatalf("expected only note.txt in %s, got %v", dir, entries)
	}
}

func TestOSBackendListDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}

	entries, err := NewOSBackend().ListDir(context.Background(), dir)
	if err != nil {
		t.Fatalf("ListDir: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
}

func TestOSBackendRunCapturesOutput(t *testing.T) {
	var stdout bytes.Buffer
	result, err := NewOSBackend().Run(context.Background(), CommandSpec{
		Name:   "echo",
		Args:   []string{"hello"},
		Stdout: &stdout,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.ExitCode != 0 {
		t.Errorf("exit code = %d, want 0", result.ExitCode)
	}
	if stdout.String() != "hello\n" {
		t.Errorf("stdout = %q, want %q", stdout.String(), "hello\n")
	}
}

func TestOSBackendRunTimesOut(t *testing.T) {
	result, err := NewOSBackend().Run(context.Background(), CommandSpec{
		Name:    "sleep",
		Args:    []string{"5"},
		Timeout: 50 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.TimedOut {
		t.Error("expected TimedOut to be true")
	}
}

func TestOSBackendRunNonzeroExit(t *testing.T) {
	result, err := NewOSBackend().Run(context.Background(), CommandSpec{
		Name: "false",
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.ExitCode == 0 {
		t.Error("expected nonzero exit code")
	}
}
