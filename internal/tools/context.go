package tools

import "context"

type contextKey string

const (
	userIDKey       contextKey = "user_id"
	invocationIDKey contextKey = "invocation_id"
	toolCallIDKey   contextKey = "tool_call_id"
)

// DefaultUserID is the user tools act for when none is set on the context.
const DefaultUserID = "default"

// WithUserID sets the user whose applications the tools read and write.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// UserIDFromContext extracts the user ID from the context.
// Returns [DefaultUserID] if not set.
func UserIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey).(string); ok && id != "" {
		return id
	}
	return DefaultUserID
}

// WithInvocationID tags the context with the dispatcher invocation ID.
func WithInvocationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, invocationIDKey, id)
}

// InvocationIDFromContext returns the invocation ID, or "" if unset.
func InvocationIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(invocationIDKey).(string)
	return id
}

// WithToolCallID tags the context with the ID of the tool call being run.
func WithToolCallID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, toolCallIDKey, id)
}

// ToolCallIDFromContext returns the current tool call ID, or "" if unset.
func ToolCallIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(toolCallIDKey).(string)
	return id
}
