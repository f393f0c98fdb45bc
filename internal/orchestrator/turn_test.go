package orchestrator

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/LuperIQ/sentinel/internal/conversation"
	"github.com/LuperIQ/sentinel/internal/llm"
	"github.com/LuperIQ/sentinel/internal/tool"
)

type scriptedProvider struct {
	responses []*llm.Response
	errs      []error
	calls     int
	lastTools []llm.ToolSpec
}

func (p *scriptedProvider) Send(ctx context.Context, history []conversation.Message, system string, tools []llm.ToolSpec) (*llm.Response, error) {
	i := p.calls
	p.calls++
	p.lastTools = tools
	if i < len(p.errs) && p.errs[i] != nil {
		return nil, p.errs[i]
	}
	return p.responses[i], nil
}

type echoTool struct{}

func (echoTool) Name() string               { return "echo" }
func (echoTool) Description() string        { return "echoes input" }
func (echoTool) Schema() json.RawMessage    { return json.RawMessage(`{"type":"object"}`) }
func (echoTool) Execute(ctx context.Context, params json.RawMessage) (*tool.Result, error) {
	return &tool.Result{Content: "echoed"}, nil
}

func TestRunEndsTurnOnTextResponse(t *testing.T) {
	provider := &scriptedProvider{responses: []*llm.Response{
		{StopReason: llm.StopEndTurn, Blocks: []conversation.Block{{Kind: conversation.BlockText, Text: "hello there"}}},
	}}
	store := conversation.NewStore(10)
	key := conversation.Key{Platform: "discord", Chat: "c1"}
	store.Append(key, conversation.Message{Role: conversation.RoleUser, Blocks: []conversation.Block{{Kind: conversation.BlockText, Text: "hi"}}})

	loop := NewLoop(provider, tool.NewRegistry(), store, nil, Config{})
	outcome, err := loop.Run(context.Background(), key, "t1")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outcome.Fatal {
		t.Fatal("expected non-fatal outcome")
	}
	if outcome.Reply != "hello there" {
		t.Errorf("Reply = %q, want %q", outcome.Reply, "hello there")
	}
}

func TestRunExecutesToolThenReplies(t *testing.T) {
	provider := &scriptedProvider{responses: []*llm.Response{
		{StopReason: llm.StopToolUse, Blocks: []conversation.Block{{Kind: conversation.BlockToolUse, ToolUseID: "u1", ToolName: "echo", ToolInput: json.RawMessage(`{}`)}}},
		{StopReason: llm.StopEndTurn, Blocks: []conversation.Block{{Kind: conversation.BlockText, Text: "done"}}},
	}}
	registry := tool.NewRegistry()
	registry.Register(echoTool{})
	store := conversation.NewStore(10)
	key := conversation.Key{Platform: "discord", Chat: "c1"}

	loop := NewLoop(provider, registry, store, nil, Config{})
	outcome, err := loop.Run(context.Background(), key, "t1")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outcome.Reply != "done" {
		t.Errorf("Reply = %q, want %q", outcome.Reply, "done")
	}

	history := store.History(key)
	foundResult := false
	for _, msg := range history {
		for _, b := range msg.Blocks {
			if b.Kind == conversation.BlockToolResult && b.ToolUseID == "u1" {
				foundResult = true
				if b.ToolOutput != "echoed" {
					t.Errorf("tool result = %q, want %q", b.ToolOutput, "echoed")
				}
			}
		}
	}
	if !foundResult {
		t.Fatal("expected a tool_result block for u1 in history")
	}
	if len(provider.lastTools) != 1 || provider.lastTools[0].Name != "echo" {
		t.Errorf("expected the registered echo tool to be advertised to the provider, got %v", provider.lastTools)
	}
}

func TestRunStopsAtMaxToolRounds(t *testing.T) {
	toolUseResp := &llm.Response{StopReason: llm.StopToolUse, Blocks: []conversation.Block{{Kind: conversation.BlockToolUse, ToolUseID: "u1", ToolName: "echo", ToolInput: json.RawMessage(`{}`)}}}
	responses := make([]*llm.Response, 0, DefaultMaxToolRounds)
	for i := 0; i < DefaultMaxToolRounds; i++ {
		responses = append(responses, toolUseResp)
	}
	provider := &scriptedProvider{responses: responses}
	registry := tool.NewRegistry()
	registry.Register(echoTool{})
	store := conversation.NewStore(100)
	key := conversation.Key{Platform: "discord", Chat: "c1"}

	loop := NewLoop(provider, registry, store, nil, Config{MaxToolRounds: DefaultMaxToolRounds})
	outcome, err := loop.Run(context.Background(), key, "t1")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outcome.Fatal {
		t.Fatal("hitting the round limit must not be fatal")
	}
	if got := outcome.Reply; got == "" || got[len(got)-len("(tool-use limit reached)"):] != "(tool-use limit reached)" {
		t.Errorf("Reply = %q, want it to end with the tool-use limit notice", got)
	}
}

func TestRunEndsTurnFatallyOnFatalTransportError(t *testing.T) {
	provider := &scriptedProvider{
		responses: []*llm.Response{nil},
		errs:      []error{&llm.TransportError{Fatal: true, Message: "auth failed"}},
	}
	store := conversation.NewStore(10)
	key := conversation.Key{Platform: "discord", Chat: "c1"}

	loop := NewLoop(provider, tool.NewRegistry(), store, nil, Config{})
	outcome, err := loop.Run(context.Background(), key, "t1")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !outcome.Fatal {
		t.Fatal("expected a fatal outcome")
	}
}

func TestRunToolFailureDoesNotEndTurn(t *testing.T) {
	provider := &scriptedProvider{responses: []*llm.Response{
		{StopReason: llm.StopToolUse, Blocks: []conversation.Block{{Kind: conversation.BlockToolUse, ToolUseID: "u1", ToolName: "nonexistent", ToolInput: json.RawMessage(`{}`)}}},
		{StopReason: llm.StopEndTurn, Blocks: []conversation.Block{{Kind: conversation.BlockText, Text: "recovered"}}},
	}}
	store := conversation.NewStore(10)
	key := conversation.Key{Platform: "discord", Chat: "c1"}

	loop := NewLoop(provider, tool.NewRegistry(), store, nil, Config{})
	outcome, err := loop.Run(context.Background(), key, "t1")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outcome.Fatal {
		t.Fatal("an unknown-tool failure must not end the turn fatally")
	}
	if outcome.Reply != "recovered" {
		t.Errorf("Reply = %q, want %q", outcome.Reply, "recovered")
	}
}
