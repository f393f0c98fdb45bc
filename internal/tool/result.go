// Package tool implements the agent's built-in tools: read_file,
// write_file, list_directory, and run_command. Every tool consults the
// capability checker before touching the platform backend, and returns a
// structured error rather than ever panicking or aborting the turn.
package tool

import (
	"context"
	"encoding/json"
)

// Result is what a tool execution returns to the orchestrator. IsError
// distinguishes a well-formed failure (capability denied, file not
// found, command timed out) from success; it is never used for
// transport-level failures, which surface as a Go error instead. Kind
// classifies an error result so the audit sink can record which kind
// of failure occurred without having to parse Content back out of its
// serialized form.
type Result struct {
	Content string
	IsError bool
	Kind    ErrorKind
}

// Tool is the contract every built-in (and, via the skill bridge, every
// skill-provided tool) satisfies so the orchestrator can dispatch a
// model's tool call without knowing its concrete type.
type Tool interface {
	Name() string
	Description() string
	Schema() json.RawMessage
	Execute(ctx context.Context, params json.RawMessage) (*Result, error)
}

func errorResult(kind ErrorKind, message string) *Result {
	return ErrorResult(kind, message)
}

// ErrorResult builds the structured failure payload a Tool returns for
// a classified error, exported so skill-bridged tools can produce the
// same shape the built-ins do.
func ErrorResult(kind ErrorKind, message string) *Result {
	payload, err := json.Marshal(map[string]string{"kind": string(kind), "error": message})
	if err != nil {
		return &Result{Content: message, IsError: true, Kind: kind}
	}
	return &Result{Content: string(payload), IsError: true, Kind: kind}
}

func okResult(v any) (*Result, error) {
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult(ErrInternal, "encode result: "+err.Error()), nil
	}
	return &Result{Content: string(payload)}, nil
}
