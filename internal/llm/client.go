// Package llm provides the chat client used to reach language models.
package llm

import (
	"context"
	"encoding/json"
)

// Client is the interface a chat provider implements.
type Client interface {
	// Chat sends a chat completion request and returns the response.
	// tools holds function definitions in the OpenAI/Ollama shape.
	Chat(ctx context.Context, model string, messages []Message, tools []map[string]any) (*ChatResponse, error)

	// Ping checks if the provider is reachable.
	Ping(ctx context.Context) error
}

// StructuredClient is implemented by providers that can constrain a
// reply to a JSON schema.
type StructuredClient interface {
	Client
	ChatFormat(ctx context.Context, model string, messages []Message, format json.RawMessage) (*ChatResponse, error)
}
