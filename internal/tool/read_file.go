package tool

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/LuperIQ/sentinel/internal/capability"
	"github.com/LuperIQ/sentinel/internal/platform"
)

// ReadFileTool reads a file that the capability grant permits.
type ReadFileTool struct {
	checker      *capability.Checker
	backend      platform.Backend
	maxReadBytes int
}

// NewReadFileTool returns a read_file tool. maxReadBytes caps a single
// read; a nonpositive value falls back to 1 MiB (1,048,576 bytes),
// matching the configurable default the read_file operation names.
func NewReadFileTool(checker *capability.Checker, backend platform.Backend, maxReadBytes int) *ReadFileTool {
	if maxReadBytes <= 0 {
		maxReadBytes = 1 << 20
	}
	return &ReadFileTool{checker: checker, backend: backend, maxReadBytes: maxReadBytes}
}

func (t *ReadFileTool) Name() string        { return "read_file" }
func (t *ReadFileTool) Description() string { return "Read a file the agent has read access to." }

func (t *ReadFileTool) Schema() json.RawMessage {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{
				"type":        "string",
				"description": "Absolute or working-directory-relative path to read.",
			},
			"max_bytes": map[string]any{
				"type":        "integer",
				"description": "Maximum bytes to read, capped by the tool's own limit.",
				"minimum":     0,
			},
		},
		"required": []string{"path"},
	}
	payload, _ := json.Marshal(schema)
	return payload
}

func (t *ReadFileTool) Execute(ctx context.Context, params json.RawMessage) (*Result, error) {
	var input struct {
		Path     string `json:"path"`
		MaxBytes int    `json:"max_bytes"`
	}
	if err := json.Unmarshal(params, &input); err != nil {
		return errorResult(ErrIO, "invalid parameters: "+err.Error()), nil
	}
	path := strings.TrimSpace(input.Path)
	if path == "" {
		return errorResult(ErrIO, "path is required"), nil
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	if decision := t.checker.CheckRead(path); !decision.Allowed {
		return errorResult(ErrDenied, decision.Reason), nil
	}

	data, err := t.backend.ReadFile(ctx, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return errorResult(ErrNotFound, "file not found: "+path), nil
		}
		return errorResult(ErrIO, err.Error()), nil
	}

	limit := t.maxReadBytes
	if input.MaxBytes > 0 && input.MaxBytes < limit {
		limit = input.MaxBytes
	}
	truncated := false
	if len(data) > limit {
		data = data[:limit]
		truncated = true
	}

	return okResult(map[string]any{
		"path":      path,
		"content":   string(data),
		"bytes":     len(data),
		"truncated": truncated,
	})
}
