// Package orchestrator runs the turn state machine: Receiving → Thinking
// → {Replying | ToolRunning} → Thinking | Done, bounded by a tool-round
// budget. A tool failure, a denied capability, or an llm transport
// retry never ends the turn early; only a transport error that is fatal
// or still failing once the retry budget is spent, or hitting the round
// budget, does.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/LuperIQ/sentinel/internal/audit"
	"github.com/LuperIQ/sentinel/internal/backoff"
	"github.com/LuperIQ/sentinel/internal/conversation"
	"github.com/LuperIQ/sentinel/internal/llm"
	"github.com/LuperIQ/sentinel/internal/tool"
)

// Phase names the turn state machine's current state.
type Phase string

const (
	PhaseReceiving   Phase = "receiving"
	PhaseThinking    Phase = "thinking"
	PhaseReplying    Phase = "replying"
	PhaseToolRunning Phase = "tool_running"
	PhaseDone        Phase = "done"
)

// DefaultMaxToolRounds bounds how many think/act cycles a single turn
// may take before it is forced to stop and reply with whatever it has.
const DefaultMaxToolRounds = 10

// Config configures a Loop.
type Config struct {
	MaxToolRounds int
	System        string
	RetryPolicy   backoff.BackoffPolicy
	MaxRetries    int
}

func sanitize(cfg Config) Config {
	if cfg.MaxToolRounds <= 0 {
		cfg.MaxToolRounds = DefaultMaxToolRounds
	}
	if cfg.RetryPolicy == (backoff.BackoffPolicy{}) {
		cfg.RetryPolicy = backoff.DefaultPolicy()
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	return cfg
}

// Loop drives one conversation's turns end to end.
type Loop struct {
	provider llm.Provider
	tools    *tool.Registry
	store    *conversation.Store
	sink     audit.Sink
	cfg      Config
}

// NewLoop constructs a turn loop over the given provider, tool registry,
// conversation store, and audit sink.
func NewLoop(provider llm.Provider, tools *tool.Registry, store *conversation.Store, sink audit.Sink, cfg Config) *Loop {
	return &Loop{provider: provider, tools: tools, store: store, sink: sink, cfg: sanitize(cfg)}
}

// toolSpecs translates the registry into the provider-agnostic form the
// model needs to see what it can call.
func (l *Loop) toolSpecs() []llm.ToolSpec {
	all := l.tools.All()
	specs := make([]llm.ToolSpec, 0, len(all))
	for _, t := range all {
		specs = append(specs, llm.ToolSpec{Name: t.Name(), Description: t.Description(), Schema: t.Schema()})
	}
	return specs
}

// Outcome is the final result of a turn: either a reply to send back to
// the connector, or a fatal error that ends the turn with an apology.
type Outcome struct {
	Reply string
	Fatal bool
}

// Run executes one turn: the user's message has already been appended
// to the conversation by the caller (the connector dispatch layer), so
// Run starts from Thinking and proceeds until Done.
func (l *Loop) Run(ctx context.Context, key conversation.Key, turnID string) (*Outcome, error) {
	l.emit(audit.Event{Kind: audit.KindTurnBegin, TurnID: turnID, Platform: key.Platform, Chat: key.Chat})

	phase := PhaseThinking
	var reply string
	specs := l.toolSpecs()

	for round := 0; round < l.cfg.MaxToolRounds; round++ {
		if err := ctx.Err(); err != nil {
			l.emit(audit.Event{Kind: audit.KindTurnCancelled, TurnID: turnID, Platform: key.Platform, Chat: key.Chat})
			return nil, err
		}

		history := l.store.History(key)
		resp, err := l.sendWithRetry(ctx, history, specs)
		if err != nil {
			var transportErr *llm.TransportError
			// A fatal error, or a retryable one still failing once the
			// retry budget is spent, ends the turn with the apology.
			if errors.As(err, &transportErr) {
				l.emit(audit.Event{Kind: audit.KindTurnEnd, TurnID: turnID, Platform: key.Platform, Chat: key.Chat, Fields: map[string]any{"fatal": true}})
				return &Outcome{Fatal: true, Reply: "Sorry, I ran into a problem talking to the model and can't continue this turn."}, nil
			}
			return nil, err
		}

		var assistantBlocks []conversation.Block
		var toolUses []conversation.Block
		for _, b := range resp.Blocks {
			assistantBlocks = append(assistantBlocks, b)
			if b.Kind == conversation.BlockText {
				reply += b.Text
			}
			if b.Kind == conversation.BlockToolUse {
				toolUses = append(toolUses, b)
			}
		}
		l.store.Append(key, conversation.Message{Role: conversation.RoleAssistant, Blocks: assistantBlocks, Timestamp: time.Now()})

		if resp.StopReason != llm.StopToolUse || len(toolUses) == 0 {
			phase = PhaseDone
			break
		}

		phase = PhaseToolRunning
		var resultBlocks []conversation.Block
		for _, use := range toolUses {
			resultBlocks = append(resultBlocks, l.runTool(ctx, turnID, use))
		}
		l.store.Append(key, conversation.Message{Role: conversation.RoleUser, Blocks: resultBlocks, Timestamp: time.Now()})
		phase = PhaseThinking
	}

	if phase != PhaseDone {
		notice := "(tool-use limit reached)"
		reply += "\n\n" + notice
		l.store.Append(key, conversation.Message{
			Role:      conversation.RoleAssistant,
			Blocks:    []conversation.Block{{Kind: conversation.BlockText, Text: notice}},
			Timestamp: time.Now(),
		})
		l.emit(audit.Event{Kind: audit.KindTurnEnd, TurnID: turnID, Platform: key.Platform, Chat: key.Chat, Fields: map[string]any{"reason": "cap_hit"}})
		return &Outcome{Reply: reply}, nil
	}

	l.emit(audit.Event{Kind: audit.KindTurnEnd, TurnID: turnID, Platform: key.Platform, Chat: key.Chat, Fields: map[string]any{"reason": "end_turn"}})
	return &Outcome{Reply: reply}, nil
}

func (l *Loop) sendWithRetry(ctx context.Context, history []conversation.Message, specs []llm.ToolSpec) (*llm.Response, error) {
	var lastErr error
	for attempt := 1; attempt <= l.cfg.MaxRetries; attempt++ {
		resp, err := l.provider.Send(ctx, history, l.cfg.System, specs)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		var transportErr *llm.TransportError
		if !errors.As(err, &transportErr) || transportErr.Fatal {
			return nil, err
		}
		if attempt >= l.cfg.MaxRetries {
			break
		}

		delay := backoff.ComputeBackoff(l.cfg.RetryPolicy, attempt)
		if transportErr.RateLimited && transportErr.RetryAfter > delay {
			delay = transportErr.RetryAfter
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, lastErr
}

// runTool dispatches a single tool_use block and always returns a
// matching tool_result block: a tool failure never propagates as a Go
// error that would abort the turn.
func (l *Loop) runTool(ctx context.Context, turnID string, use conversation.Block) conversation.Block {
	l.emit(audit.Event{Kind: audit.KindToolInvoke, TurnID: turnID, ToolUseID: use.ToolUseID, ToolName: use.ToolName})

	t, ok := l.tools.Get(use.ToolName)
	if !ok {
		l.emit(audit.Event{Kind: audit.KindToolResult, TurnID: turnID, ToolUseID: use.ToolUseID, ToolName: use.ToolName, Decision: audit.Denied, Reason: "unknown_tool"})
		return conversation.Block{Kind: conversation.BlockToolResult, ToolUseID: use.ToolUseID, ToolOutput: fmt.Sprintf("unknown tool %q", use.ToolName), ToolIsError: true}
	}

	result, err := t.Execute(ctx, use.ToolInput)
	if err != nil {
		l.emit(audit.Event{Kind: audit.KindToolResult, TurnID: turnID, ToolUseID: use.ToolUseID, ToolName: use.ToolName, Decision: audit.Denied, Reason: err.Error(), Fields: map[string]any{"is_error": true}})
		return conversation.Block{Kind: conversation.BlockToolResult, ToolUseID: use.ToolUseID, ToolOutput: err.Error(), ToolIsError: true}
	}

	if result.IsError {
		l.emit(audit.Event{Kind: audit.KindToolResult, TurnID: turnID, ToolUseID: use.ToolUseID, ToolName: use.ToolName, Decision: audit.Denied, Reason: string(result.Kind), Fields: map[string]any{"is_error": true, "kind": string(result.Kind)}})
	} else {
		l.emit(audit.Event{Kind: audit.KindToolResult, TurnID: turnID, ToolUseID: use.ToolUseID, ToolName: use.ToolName, Decision: audit.Allowed, Fields: map[string]any{"is_error": false}})
	}
	return conversation.Block{Kind: conversation.BlockToolResult, ToolUseID: use.ToolUseID, ToolOutput: result.Content, ToolIsError: result.IsError}
}

func (l *Loop) emit(ev audit.Event) {
	if l.sink == nil {
		return
	}
	_ = l.sink.Write(ev)
}
