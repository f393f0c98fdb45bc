package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/LuperIQ/sentinel/internal/conversation"
)

// AnthropicConfig configures the Anthropic-backed Provider.
type AnthropicConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
}

// AnthropicProvider implements Provider against the Anthropic Messages API.
type AnthropicProvider struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewAnthropicProvider constructs a Provider. APIKey is required; Model
// and MaxTokens fall back to sensible defaults if left zero.
func NewAnthropicProvider(cfg AnthropicConfig) (*AnthropicProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("llm: anthropic api key is required")
	}
	model := cfg.Model
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &AnthropicProvider{
		client:    anthropic.NewClient(opts...),
		model:     model,
		maxTokens: int64(maxTokens),
	}, nil
}

// Send issues one non-streaming completion request and translates the
// result back into conversation blocks and a provider-agnostic stop
// reason.
func (p *AnthropicProvider) Send(ctx context.Context, history []conversation.Message, system string, tools []ToolSpec) (*Response, error) {
	messages, err := convertMessages(history)
	if err != nil {
		return nil, &TransportError{Fatal: true, Message: "convert history: " + err.Error(), Cause: err}
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		Messages:  messages,
		MaxTokens: p.maxTokens,
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if len(tools) > 0 {
		toolParams, err := convertTools(tools)
		if err != nil {
			return nil, &TransportError{Fatal: true, Message: "convert tools: " + err.Error(), Cause: err}
		}
		params.Tools = toolParams
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, classifyAnthropicError(err)
	}

	return convertResponse(msg), nil
}

func convertMessages(history []conversation.Message) ([]anthropic.MessageParam, error) {
	result := make([]anthropic.MessageParam, 0, len(history))
	for _, msg := range history {
		var content []anthropic.ContentBlockParamUnion
		for _, b := range msg.Blocks {
			switch b.Kind {
			case conversation.BlockText:
				if b.Text != "" {
					content = append(content, anthropic.NewTextBlock(b.Text))
				}
			case conversation.BlockToolUse:
				var input map[string]any
				if len(b.ToolInput) > 0 {
					if err := json.Unmarshal(b.ToolInput, &input); err != nil {
						return nil, fmt.Errorf("tool_use %s: %w", b.ToolUseID, err)
					}
				}
				content = append(content, anthropic.NewToolUseBlock(b.ToolUseID, input, b.ToolName))
			case conversation.BlockToolResult:
				content = append(content, anthropic.NewToolResultBlock(b.ToolUseID, b.ToolOutput, b.ToolIsError))
			}
		}
		if len(content) == 0 {
			continue
		}
		if msg.Role == conversation.RoleAssistant {
			result = append(result, anthropic.NewAssistantMessage(content...))
		} else {
			result = append(result, anthropic.NewUserMessage(content...))
		}
	}
	return result, nil
}

func convertTools(tools []ToolSpec) ([]anthropic.ToolUnionParam, error) {
	result := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		var schema anthropic.ToolInputSchemaParam
		if err := json.Unmarshal(t.Schema, &schema); err != nil {
			return nil, fmt.Errorf("tool %s: %w", t.Name, err)
		}
		param := anthropic.ToolUnionParamOfTool(schema, t.Name)
		if param.OfTool == nil {
			return nil, fmt.Errorf("tool %s: missing tool definition", t.Name)
		}
		param.OfTool.Description = anthropic.String(t.Description)
		result = append(result, param)
	}
	return result, nil
}

func convertResponse(msg *anthropic.Message) *Response {
	resp := &Response{}
	for _, block := range msg.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			resp.Blocks = append(resp.Blocks, conversation.Block{Kind: conversation.BlockText, Text: variant.Text})
		case anthropic.ToolUseBlock:
			input, _ := json.Marshal(variant.Input)
			resp.Blocks = append(resp.Blocks, conversation.Block{
				Kind:      conversation.BlockToolUse,
				ToolUseID: variant.ID,
				ToolName:  variant.Name,
				ToolInput: input,
			})
		}
	}

	switch msg.StopReason {
	case anthropic.StopReasonToolUse:
		resp.StopReason = StopToolUse
	case anthropic.StopReasonMaxTokens:
		resp.StopReason = StopMaxTokens
	default:
		resp.StopReason = StopEndTurn
	}
	return resp
}

func classifyAnthropicError(err error) *TransportError {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		retryAfter := time.Duration(0)
		return ClassifyHTTPStatus(apiErr.StatusCode, retryAfter, err)
	}
	return &TransportError{Retryable: true, Message: "network error: " + err.Error(), Cause: err}
}
