// Package audit provides the append-only structured event stream that
// records every security-relevant decision the agent makes.
package audit

import "time"

// Kind enumerates the audit event types the agent emits.
type Kind string

const (
	KindCapabilityCheck Kind = "capability_check"
	KindToolInvoke      Kind = "tool_invoke"
	KindToolResult      Kind = "tool_result"
	KindSkillLaunch     Kind = "skill_launch"
	KindSkillExit       Kind = "skill_exit"
	KindTurnBegin       Kind = "turn_begin"
	KindTurnEnd         Kind = "turn_end"
	KindTurnCancelled   Kind = "turn_cancelled"
)

// Decision is the outcome of a capability check.
type Decision string

const (
	Allowed Decision = "allowed"
	Denied  Decision = "denied"
)

// Event is a single immutable audit record. Exactly one is emitted per
// capability check, and it is written before the governed operation's
// result is returned to the orchestrator.
type Event struct {
	Timestamp   time.Time      `json:"timestamp"`
	Kind        Kind           `json:"event"`
	Capability  string         `json:"capability,omitempty"`
	Resource    string         `json:"resource,omitempty"`
	Decision    Decision       `json:"decision,omitempty"`
	Reason      string         `json:"reason,omitempty"`
	TurnID      string         `json:"turn_id,omitempty"`
	ToolUseID   string         `json:"tool_use_id,omitempty"`
	ToolName    string         `json:"tool_name,omitempty"`
	Platform    string         `json:"platform,omitempty"`
	Chat        string         `json:"chat,omitempty"`
	Fields      map[string]any `json:"fields,omitempty"`
}
