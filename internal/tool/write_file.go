package tool

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/LuperIQ/sentinel/internal/capability"
	"github.com/LuperIQ/sentinel/internal/platform"
)

// WriteFileTool writes a file that the capability grant permits.
type WriteFileTool struct {
	checker     *capability.Checker
	backend     platform.Backend
	maxWriteLen int
}

// NewWriteFileTool returns a write_file tool. maxWriteLen caps the size
// of content it will accept in one call; a nonpositive value falls back
// to 1MB.
func NewWriteFileTool(checker *capability.Checker, backend platform.Backend, maxWriteLen int) *WriteFileTool {
	if maxWriteLen <= 0 {
		maxWriteLen = 1 << 20
	}
	return &WriteFileTool{checker: checker, backend: backend, maxWriteLen: maxWriteLen}
}

func (t *WriteFileTool) Name() string { return "write_file" }
func (t *WriteFileTool) Description() string {
	return "Write (creating or overwriting) a file the agent has write access to."
}

func (t *WriteFileTool) Schema() json.RawMessage {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{
				"type":        "string",
				"description": "Absolute or working-directory-relative path to write.",
			},
			"content": map[string]any{
				"type":        "string",
				"description": "Full file content.",
			},
		},
		"required": []string{"path", "content"},
	}
	payload, _ := json.Marshal(schema)
	return payload
}

func (t *WriteFileTool) Execute(ctx context.Context, params json.RawMessage) (*Result, error) {
	var input struct {
		Path    string `json:"path"`
		Content string `json:"content"`
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
	if len(input.Content) > t.maxWriteLen {
		return errorResult(ErrTooLarge, "content exceeds the write size limit"), nil
	}

	if decision := t.checker.CheckWrite(path); !decision.Allowed {
		return errorResult(ErrDenied, decision.Reason), nil
	}

	if err := t.backend.WriteFile(ctx, path, []byte(input.Content)); err != nil {
		return errorResult(ErrIO, err.Error()), nil
	}

	return okResult(map[string]any{
		"path":  path,
		"bytes": len(input.Content),
	})
}
