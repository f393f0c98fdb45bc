package conversation

import (
	"sync"
)

// DefaultHistoryCap is the maximum number of messages retained per
// conversation once trimming engages.
const DefaultHistoryCap = 40

// Store holds one message history per (platform, chat) pair in memory.
// It is the agent's only conversation state; there is no persistence
// layer, matching the single-process, no-ambient-authority design.
type Store struct {
	mu         sync.Mutex
	historyCap int
	histories  map[Key][]Message
}

// NewStore returns an empty store. A nonpositive historyCap falls back
// to DefaultHistoryCap.
func NewStore(historyCap int) *Store {
	if historyCap <= 0 {
		historyCap = DefaultHistoryCap
	}
	return &Store{historyCap: historyCap, histories: map[Key][]Message{}}
}

// Append adds msg to the conversation identified by key and trims the
// history if it now exceeds the cap. The returned slice is a copy; the
// caller may read it freely without racing the store.
func (s *Store) Append(key Key, msg Message) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := append(s.histories[key], msg)
	history = trimToMatchedPairs(history, s.historyCap)
	s.histories[key] = history
	return cloneHistory(history)
}

// History returns a copy of the conversation's current messages.
func (s *Store) History(key Key) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneHistory(s.histories[key])
}

// Clear resets the conversation identified by key to empty, the
// operation behind a user-issued "/clear" request. It is atomic: no
// caller can observe a partially-cleared history.
func (s *Store) Clear(key Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.histories, key)
}

func cloneHistory(history []Message) []Message {
	if history == nil {
		return nil
	}
	out := make([]Message, len(history))
	copy(out, history)
	return out
}

// trimToMatchedPairs drops messages from the front until the history is
// at or under cap, but never leaves a tool_result block whose matching
// tool_use was trimmed, and never trims a tool_use message while leaving
// its tool_result behind. When the natural cutoff would split such a
// pair, the cutoff advances to include both messages in the same trim.
func trimToMatchedPairs(history []Message, capacity int) []Message {
	if len(history) <= capacity {
		return history
	}

	cut := len(history) - capacity
	for cut < len(history) {
		pending := pendingToolUseIDs(history[:cut])
		if len(pending) == 0 {
			break
		}
		// The next message(s) being kept still owe a tool_result for
		// a tool_use we're about to drop; pull that message into the
		// trimmed region too, and keep walking until every tool_use
		// we drop has its tool_result dropped alongside it.
		if !messageConsumesAny(history[cut], pending) {
			break
		}
		cut++
	}
	return history[cut:]
}

// pendingToolUseIDs returns the tool_use IDs introduced in dropped that
// have not yet been answered by a tool_result within dropped itself.
func pendingToolUseIDs(dropped []Message) map[string]bool {
	pending := map[string]bool{}
	for _, msg := range dropped {
		for _, b := range msg.Blocks {
			switch b.Kind {
			case BlockToolUse:
				pending[b.ToolUseID] = true
			case BlockToolResult:
				delete(pending, b.ToolUseID)
			}
		}
	}
	return pending
}

func messageConsumesAny(msg Message, pending map[string]bool) bool {
	for _, b := range msg.Blocks {
		if b.Kind == BlockToolResult && pending[b.ToolUseID] {
			return true
		}
	}
	return false
}
