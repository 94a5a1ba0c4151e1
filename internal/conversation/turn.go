// Package conversation defines the turns exchanged during one dispatcher
// invocation and the append-only log that carries them.
package conversation

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Turn is one entry in a conversation log. The set of implementations is
// closed: [UserTurn], [AssistantTurn], and [ToolResultTurn].
type Turn interface {
	// Role reports the chat role the turn maps to (user, assistant, tool).
	Role() string
	// String renders the turn as text. For user and assistant turns this
	// is the message text; tool results render as JSON.
	String() string

	isTurn()
}

// Roles reported by [Turn.Role].
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// UserTurn is a message from the person using the assistant.
type UserTurn struct {
	Text string `json:"text"`
}

func (UserTurn) Role() string     { return RoleUser }
func (t UserTurn) String() string { return t.Text }
func (UserTurn) isTurn()          {}

// ToolCallRequest asks for one named tool to be run with the given
// arguments. ID is unique within its assistant turn and is echoed back
// by the matching [ToolResultTurn].
type ToolCallRequest struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// AssistantTurn is a reply from the decision capability. Text may be
// empty when the reply only requests tools.
type AssistantTurn struct {
	Text      string            `json:"text,omitempty"`
	ToolCalls []ToolCallRequest `json:"tool_calls,omitempty"`
}

func (AssistantTurn) Role() string { return RoleAssistant }
func (AssistantTurn) isTurn()      {}

// String returns the reply text, or a summary of the requested tools
// when the reply carries no text.
func (t AssistantTurn) String() string {
	if t.Text != "" || len(t.ToolCalls) == 0 {
		return t.Text
	}
	names := make([]string, len(t.ToolCalls))
	for i, c := range t.ToolCalls {
		names[i] = c.Name
	}
	return "tool calls: " + strings.Join(names, ", ")
}

// HasToolCalls reports whether the reply requests any tool.
func (t AssistantTurn) HasToolCalls() bool { return len(t.ToolCalls) > 0 }

// ToolResultTurn carries the outcome of one tool call back into the
// conversation. IsError marks a structured failure payload.
type ToolResultTurn struct {
	ToolCallID string         `json:"tool_call_id"`
	ToolName   string         `json:"tool_name,omitempty"`
	Result     map[string]any `json:"result"`
	IsError    bool           `json:"is_error,omitempty"`
}

func (ToolResultTurn) Role() string { return RoleTool }
func (ToolResultTurn) isTurn()      {}

// String renders the result payload as compact JSON.
func (t ToolResultTurn) String() string {
	data, err := json.Marshal(t.Result)
	if err != nil {
		return fmt.Sprintf("%v", t.Result)
	}
	return string(data)
}

// clone returns a copy of t whose maps and slices are not shared with
// t, so callers holding a turn cannot reach into the log.
func clone(t Turn) Turn {
	switch v := t.(type) {
	case UserTurn:
		return v
	case AssistantTurn:
		if v.ToolCalls == nil {
			return v
		}
		calls := make([]ToolCallRequest, len(v.ToolCalls))
		for i, c := range v.ToolCalls {
			c.Arguments = cloneMap(c.Arguments)
			calls[i] = c
		}
		v.ToolCalls = calls
		return v
	case ToolResultTurn:
		v.Result = cloneMap(v.Result)
		return v
	default:
		return t
	}
}

// cloneMap copies m and every nested map and slice in it.
func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		return cloneMap(x)
	case []any:
		if x == nil {
			return x
		}
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = cloneValue(e)
		}
		return out
	case []map[string]any:
		if x == nil {
			return x
		}
		out := make([]map[string]any, len(x))
		for i, e := range x {
			out[i] = cloneMap(e)
		}
		return out
	case []string:
		return append([]string(nil), x...)
	default:
		return v
	}
}
