package tools

import "context"

// SentinelName is the reserved tool name the decision model calls to
// signal that the request is complete. It is offered to the model but
// never executed, and no registered tool may use it.
const SentinelName = "Done"

// Tool is a named, side-effecting operation the decision model can invoke.
type Tool interface {
	Name() string
	Description() string
	// Parameters returns the JSON schema of the tool's arguments.
	Parameters() map[string]any
	// Execute runs the tool. Results must be JSON-representable.
	Execute(ctx context.Context, args map[string]any) (map[string]any, error)
}

// Spec describes a tool to the decision model.
type Spec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// SpecOf returns the description of t offered to the decision model.
func SpecOf(t Tool) Spec {
	return Spec{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters:  t.Parameters(),
	}
}

// SentinelSpec describes the completion sentinel.
func SentinelSpec() Spec {
	return Spec{
		Name:        SentinelName,
		Description: "Call this when you have completed the user's request and no further action is needed.",
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
	}
}

// IsSentinel reports whether name is the completion sentinel.
func IsSentinel(name string) bool { return name == SentinelName }
