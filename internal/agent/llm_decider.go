package agent

import (
	"context"
	"log/slog"

	"github.com/nugget/jobtrack/internal/conversation"
	"github.com/nugget/jobtrack/internal/llm"
	"github.com/nugget/jobtrack/internal/retry"
	"github.com/nugget/jobtrack/internal/tools"
)

// LLMDecider asks a chat model for the next action.
type LLMDecider struct {
	client llm.Client
	model  string
	logger *slog.Logger
}

// NewLLMDecider creates a decider backed by client and model.
func NewLLMDecider(client llm.Client, model string, logger *slog.Logger) *LLMDecider {
	if logger == nil {
		logger = slog.Default()
	}
	return &LLMDecider{client: client, model: model, logger: logger}
}

// Decide sends the conversation and tool list to the model and converts
// its reply to an assistant turn.
func (d *LLMDecider) Decide(ctx context.Context, systemPrompt string, history []conversation.Turn, specs []tools.Spec) (conversation.AssistantTurn, error) {
	resp, err := d.client.Chat(ctx, d.model, toMessages(systemPrompt, history), toolDefinitions(specs))
	if err != nil {
		if llm.IsPermanent(err) {
			return conversation.AssistantTurn{}, retry.Permanent(err)
		}
		return conversation.AssistantTurn{}, err
	}

	d.logger.Debug("decision model replied",
		"model", resp.Model,
		"tool_calls", len(resp.Message.ToolCalls),
		"input_tokens", resp.InputTokens,
		"output_tokens", resp.OutputTokens,
	)
	return fromMessage(resp.Message), nil
}

func toMessages(systemPrompt string, history []conversation.Turn) []llm.Message {
	msgs := make([]llm.Message, 0, len(history)+1)
	if systemPrompt != "" {
		msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: systemPrompt})
	}
	for _, t := range history {
		switch v := t.(type) {
		case conversation.UserTurn:
			msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: v.Text})
		case conversation.AssistantTurn:
			m := llm.Message{Role: llm.RoleAssistant, Content: v.Text}
			for _, c := range v.ToolCalls {
				m.ToolCalls = append(m.ToolCalls, llm.ToolCall{
					ID:       c.ID,
					Function: llm.ToolCallFunction{Name: c.Name, Arguments: c.Arguments},
				})
			}
			msgs = append(msgs, m)
		case conversation.ToolResultTurn:
			msgs = append(msgs, llm.Message{
				Role:       llm.RoleTool,
				Content:    v.String(),
				ToolCallID: v.ToolCallID,
				ToolName:   v.ToolName,
			})
		}
	}
	return msgs
}

// toolDefinitions renders specs in the function-tool shape chat APIs
// expect.
func toolDefinitions(specs []tools.Spec) []map[string]any {
	defs := make([]map[string]any, 0, len(specs))
	for _, s := range specs {
		params := s.Parameters
		if params == nil {
			params = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		defs = append(defs, map[string]any{
			"type": "function",
			"function": map[string]any{
				"name":        s.Name,
				"description": s.Description,
				"parameters":  params,
			},
		})
	}
	return defs
}

func fromMessage(m llm.Message) conversation.AssistantTurn {
	turn := conversation.AssistantTurn{Text: m.Content}
	for _, tc := range m.ToolCalls {
		turn.ToolCalls = append(turn.ToolCalls, conversation.ToolCallRequest{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return turn
}
