package tool

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/LuperIQ/sentinel/internal/capability"
	"github.com/LuperIQ/sentinel/internal/platform"
)

// ListDirectoryTool lists entries directly under a directory the
// capability grant allows reading.
type ListDirectoryTool struct {
	checker *capability.Checker
	backend platform.Backend
}

func NewListDirectoryTool(checker *capability.Checker, backend platform.Backend) *ListDirectoryTool {
	return &ListDirectoryTool{checker: checker, backend: backend}
}

func (t *ListDirectoryTool) Name() string { return "list_directory" }
func (t *ListDirectoryTool) Description() string {
	return "List the entries directly under a directory the agent can read."
}

func (t *ListDirectoryTool) Schema() json.RawMessage {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{
				"type":        "string",
				"description": "Directory to list.",
			},
		},
		"required": []string{"path"},
	}
	payload, _ := json.Marshal(schema)
	return payload
}

func (t *ListDirectoryTool) Execute(ctx context.Context, params json.RawMessage) (*Result, error) {
	var input struct {
		Path string `json:"path"`
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

	entries, err := t.backend.ListDir(ctx, path)
	if err != nil {
		return errorResult(ErrIO, err.Error()), nil
	}

	names := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		names = append(names, map[string]any{
			"name":   e.Name,
			"is_dir": e.IsDir,
			"size":   e.Size,
		})
	}

	return okResult(map[string]any{
		"path":    path,
		"entries": names,
	})
}
