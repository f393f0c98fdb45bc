package tool

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/LuperIQ/sentinel/internal/capability"
	"github.com/LuperIQ/sentinel/internal/platform"
)

// RunCommandTool spawns an allowlisted command through the platform
// backend. The command's own timeout is capability-configured, not
// caller-supplied: a tool call cannot ask for a longer leash than the
// grant allows.
type RunCommandTool struct {
	checker   *capability.Checker
	backend   platform.Backend
	maxOutput int
}

// NewRunCommandTool returns a run_command tool. maxOutput bounds how much
// combined stdout/stderr is captured per stream; a nonpositive value
// falls back to 64000 bytes, matching the teacher's exec manager.
func NewRunCommandTool(checker *capability.Checker, backend platform.Backend, maxOutput int) *RunCommandTool {
	if maxOutput <= 0 {
		maxOutput = 64000
	}
	return &RunCommandTool{checker: checker, backend: backend, maxOutput: maxOutput}
}

func (t *RunCommandTool) Name() string { return "run_command" }
func (t *RunCommandTool) Description() string {
	return "Run an allowlisted shell command and capture its output."
}

func (t *RunCommandTool) Schema() json.RawMessage {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"command": map[string]any{
				"type":        "string",
				"description": "The command to run, e.g. \"ls\".",
			},
			"args": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Arguments to pass to the command.",
			},
			"dir": map[string]any{
				"type":        "string",
				"description": "Working directory for the command.",
			},
		},
		"required": []string{"command"},
	}
	payload, _ := json.Marshal(schema)
	return payload
}

func (t *RunCommandTool) Execute(ctx context.Context, params json.RawMessage) (*Result, error) {
	var input struct {
		Command string   `json:"command"`
		Args    []string `json:"args"`
		Dir     string   `json:"dir"`
	}
	if err := json.Unmarshal(params, &input); err != nil {
		return errorResult(ErrIO, "invalid parameters: "+err.Error()), nil
	}
	command := strings.TrimSpace(input.Command)
	if command == "" {
		return errorResult(ErrSpawn, "command is required"), nil
	}

	if decision := t.checker.CheckCommand(command, input.Args); !decision.Allowed {
		return errorResult(ErrDenied, decision.Reason), nil
	}

	timeout, disabled := t.checker.CommandTimeout()
	if disabled {
		timeout = 0
	}

	stdout := newLimitedBuffer(t.maxOutput)
	stderr := newLimitedBuffer(t.maxOutput)

	homeDir := input.Dir
	if homeDir == "" {
		homeDir = "/tmp"
	}

	start := time.Now()
	result, err := t.backend.Run(ctx, platform.CommandSpec{
		Name: command,
		Args: input.Args,
		Dir:  input.Dir,
		Env: []string{
			"PATH=/usr/bin:/usr/local/bin:/bin",
			"HOME=" + homeDir,
			"LANG=C.UTF-8",
		},
		Stdout:  stdout,
		Stderr:  stderr,
		Timeout: timeout,
	})
	duration := time.Since(start)
	if err != nil {
		return errorResult(ErrSpawn, err.Error()), nil
	}
	if result.TimedOut {
		return errorResult(ErrTimeout, "command exceeded its timeout"), nil
	}

	payload := map[string]any{
		"command":     command,
		"exit_code":   result.ExitCode,
		"stdout":      stdout.String(),
		"stderr":      stderr.String(),
		"duration_ms": duration.Milliseconds(),
	}
	out, marshalErr := json.MarshalIndent(payload, "", "  ")
	if marshalErr != nil {
		return errorResult(ErrInternal, "encode result: "+marshalErr.Error()), nil
	}
	if result.ExitCode != 0 {
		// A nonzero exit is a fact for the model to see, not a
		// transport failure, but the taxonomy still classifies it
		// as a ToolError so callers can branch on Kind if they need to.
		return &Result{Content: string(out), IsError: true, Kind: ErrNonzeroExit}, nil
	}
	return &Result{Content: string(out)}, nil
}

// limitedBuffer caps how much output it will retain, silently dropping
// anything past the limit rather than growing without bound.
type limitedBuffer struct {
	mu  sync.Mutex
	buf []byte
	max int
}

func newLimitedBuffer(max int) *limitedBuffer { return &limitedBuffer{max: max} }

func (b *limitedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.buf) >= b.max {
		return len(p), nil
	}
	remaining := b.max - len(b.buf)
	if len(p) > remaining {
		b.buf = append(b.buf, p[:remaining]...)
		return len(p), nil
	}
	b.buf = append(b.buf, p...)
	return len(p), nil
}

func (b *limitedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}
