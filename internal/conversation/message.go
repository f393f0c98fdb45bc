// Package conversation holds the agent's per-chat message history: a
// flat, ordered list of content blocks keyed by (platform, chat), with
// no multi-tenant session, user, or API-key concepts layered on top.
package conversation

import "time"

// Role identifies who produced a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// BlockKind distinguishes the shapes of content a message can carry.
type BlockKind string

const (
	BlockText       BlockKind = "text"
	BlockToolUse    BlockKind = "tool_use"
	BlockToolResult BlockKind = "tool_result"
)

// Block is one piece of a message's content. Only the fields relevant to
// Kind are populated.
type Block struct {
	Kind BlockKind

	Text string // BlockText

	ToolUseID string // BlockToolUse, BlockToolResult
	ToolName  string // BlockToolUse
	ToolInput []byte // BlockToolUse, raw JSON

	ToolOutput  string // BlockToolResult
	ToolIsError bool   // BlockToolResult
}

// Message is one turn's worth of content from a single role.
type Message struct {
	Role      Role
	Blocks    []Block
	Timestamp time.Time
}

// Key identifies a conversation by the platform it arrived on and the
// chat/channel identifier that platform uses.
type Key struct {
	Platform string
	Chat     string
}
