// Package llm defines the contract the orchestrator uses to talk to the
// configured language model, plus a concrete implementation backed by
// the Anthropic API.
package llm

import (
	"context"
	"encoding/json"

	"github.com/LuperIQ/sentinel/internal/conversation"
)

// ToolSpec describes one tool the model may call, in provider-agnostic
// form; the concrete Provider translates it into its wire format.
type ToolSpec struct {
	Name        string
	Description string
	Schema      json.RawMessage
}

// StopReason is why the model stopped generating.
type StopReason string

const (
	StopEndTurn   StopReason = "end_turn"
	StopToolUse   StopReason = "tool_use"
	StopMaxTokens StopReason = "max_tokens"
)

// Response is a single completion from the model.
type Response struct {
	Blocks     []conversation.Block
	StopReason StopReason
}

// Provider is the contract the orchestrator depends on. Every
// implementation must translate transport failures into the
// TransportError taxonomy rather than letting raw HTTP or SDK errors
// escape.
type Provider interface {
	Send(ctx context.Context, history []conversation.Message, system string, tools []ToolSpec) (*Response, error)
}
