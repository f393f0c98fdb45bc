package llm

import (
	"encoding/json"
	"testing"

	"github.com/LuperIQ/sentinel/internal/conversation"
)

func TestConvertMessagesSkipsEmptyContent(t *testing.T) {
	history := []conversation.Message{
		{Role: conversation.RoleUser, Blocks: []conversation.Block{{Kind: conversation.BlockText, Text: "hi"}}},
		{Role: conversation.RoleAssistant, Blocks: []conversation.Block{{Kind: conversation.BlockText, Text: ""}}},
	}
	out, err := convertMessages(history)
	if err != nil {
		t.Fatalf("convertMessages: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("got %d messages, want 1 (empty-content message should be skipped)", len(out))
	}
}

func TestConvertMessagesRejectsInvalidToolInput(t *testing.T) {
	history := []conversation.Message{
		{Role: conversation.RoleAssistant, Blocks: []conversation.Block{{
			Kind:      conversation.BlockToolUse,
			ToolUseID: "t1",
			ToolName:  "read_file",
			ToolInput: []byte("not json"),
		}}},
	}
	if _, err := convertMessages(history); err == nil {
		t.Fatal("expected an error for malformed tool_use input")
	}
}

func TestConvertToolsRejectsInvalidSchema(t *testing.T) {
	_, err := convertTools([]ToolSpec{{Name: "x", Schema: json.RawMessage("not json")}})
	if err == nil {
		t.Fatal("expected an error for malformed tool schema")
	}
}

func TestClassifyHTTPStatus(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		wantFatal   bool
		wantRetry   bool
		wantLimited bool
	}{
		{"rate limited", 429, false, true, true},
		{"unauthorized", 401, true, false, false},
		{"server error", 503, false, true, false},
		{"bad request", 400, true, false, false},
		{"network error", 0, false, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyHTTPStatus(tt.status, 0, nil)
			if got.Fatal != tt.wantFatal {
				t.Errorf("Fatal = %v, want %v", got.Fatal, tt.wantFatal)
			}
			if got.Retryable != tt.wantRetry {
				t.Errorf("Retryable = %v, want %v", got.Retryable, tt.wantRetry)
			}
			if got.RateLimited != tt.wantLimited {
				t.Errorf("RateLimited = %v, want %v", got.RateLimited, tt.wantLimited)
			}
		})
	}
}
