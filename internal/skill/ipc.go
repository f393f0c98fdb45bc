package skill

import "encoding/json"

// request is one line sent to a skill subprocess's stdin.
type request struct {
	ID   uint64          `json:"id"`
	Tool string          `json:"tool"`
	Args json.RawMessage `json:"args"`
}

// reply is one line read from a skill subprocess's stdout. Exactly one
// of Result or Error is set.
type reply struct {
	ID     uint64          `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *replyError     `json:"error,omitempty"`
}

type replyError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// ProtocolError indicates the skill subprocess violated the IPC
// contract: a non-JSON line, a reply for an ID that was never sent, or
// a reply missing both result and error. The session is unusable after
// this and must be torn down.
type ProtocolError struct {
	Message string
}

func (e *ProtocolError) Error() string { return "skill: protocol violation: " + e.Message }

// ToolError is the structured error a skill's tool returned, distinct
// from a ProtocolError: the subprocess is still healthy, the tool call
// itself just failed.
type ToolError struct {
	Kind    string
	Message string
}

func (e *ToolError) Error() string { return "skill: tool error (" + e.Kind + "): " + e.Message }
