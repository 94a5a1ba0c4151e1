package agent

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/nugget/jobtrack/internal/conversation"
	"github.com/nugget/jobtrack/internal/llm"
	"github.com/nugget/jobtrack/internal/tools"
)

// mockLLM returns canned responses in order and records each request.
type mockLLM struct {
	responses []*llm.ChatResponse
	err       error
	calls     []mockCall
}

type mockCall struct {
	Model    string
	Messages []llm.Message
	Tools    []map[string]any
}

func (m *mockLLM) Chat(_ context.Context, model string, messages []llm.Message, tools []map[string]any) (*llm.ChatResponse, error) {
	m.calls = append(m.calls, mockCall{Model: model, Messages: messages, Tools: tools})
	if m.err != nil {
		return nil, m.err
	}
	resp := m.responses[0]
	m.responses = m.responses[1:]
	return resp, nil
}

func (m *mockLLM) Ping(context.Context) error { return nil }

func TestLLMDecider_ConvertsHistory(t *testing.T) {
	mock := &mockLLM{responses: []*llm.ChatResponse{{
		Model: "test-model",
		Message: llm.Message{
			Role:    llm.RoleAssistant,
			Content: "",
			ToolCalls: []llm.ToolCall{{
				ID:       "p1",
				Function: llm.ToolCallFunction{Name: "update_application", Arguments: map[string]any{"company": "Google"}},
			}},
		},
	}}}

	history := []conversation.Turn{
		conversation.UserTurn{Text: "show my applications"},
		conversation.AssistantTurn{ToolCalls: []conversation.ToolCallRequest{{ID: "c1", Name: "get_applications_by_user"}}},
		conversation.ToolResultTurn{ToolCallID: "c1", ToolName: "get_applications_by_user", Result: map[string]any{"applications": []any{}}},
		conversation.UserTurn{Text: "move Google to interviewing"},
	}
	specs := []tools.Spec{
		{Name: "update_application", Description: "Update an application", Parameters: map[string]any{"type": "object"}},
		tools.SentinelSpec(),
	}

	d := NewLLMDecider(mock, "test-model", discardLogger())
	turn, err := d.Decide(context.Background(), "You manage applications.", history, specs)
	if err != nil {
		t.Fatalf("Decide() error: %v", err)
	}

	if len(turn.ToolCalls) != 1 || turn.ToolCalls[0].ID != "p1" || turn.ToolCalls[0].Name != "update_application" {
		t.Fatalf("tool calls = %+v", turn.ToolCalls)
	}
	if turn.ToolCalls[0].Arguments["company"] != "Google" {
		t.Errorf("arguments = %v", turn.ToolCalls[0].Arguments)
	}

	sent := mock.calls[0]
	if sent.Model != "test-model" {
		t.Errorf("model = %q", sent.Model)
	}
	wantRoles := []string{llm.RoleSystem, llm.RoleUser, llm.RoleAssistant, llm.RoleTool, llm.RoleUser}
	if len(sent.Messages) != len(wantRoles) {
		t.Fatalf("sent %d messages, want %d", len(sent.Messages), len(wantRoles))
	}
	for i, role := range wantRoles {
		if sent.Messages[i].Role != role {
			t.Errorf("message %d role = %q, want %q", i, sent.Messages[i].Role, role)
		}
	}
	if got := sent.Messages[2].ToolCalls; len(got) != 1 || got[0].ID != "c1" {
		t.Errorf("assistant tool calls = %+v", got)
	}
	if tm := sent.Messages[3]; tm.ToolCallID != "c1" || tm.ToolName != "get_applications_by_user" || tm.Content == "" {
		t.Errorf("tool message = %+v", tm)
	}

	if len(sent.Tools) != 2 {
		t.Fatalf("sent %d tool definitions, want 2", len(sent.Tools))
	}
	fn := sent.Tools[1]["function"].(map[string]any)
	if fn["name"] != tools.SentinelName || fn["parameters"] == nil {
		t.Errorf("sentinel definition = %v", fn)
	}
}

func TestLLMDecider_FinalReply(t *testing.T) {
	mock := &mockLLM{responses: []*llm.ChatResponse{{
		Message: llm.Message{Role: llm.RoleAssistant, Content: "You have 2 open applications."},
	}}}
	turn, err := NewLLMDecider(mock, "m", nil).Decide(context.Background(), "", []conversation.Turn{conversation.UserTurn{Text: "status?"}}, nil)
	if err != nil {
		t.Fatalf("Decide() error: %v", err)
	}
	if turn.HasToolCalls() || turn.Text != "You have 2 open applications." {
		t.Errorf("turn = %+v", turn)
	}
	if mock.calls[0].Messages[0].Role != llm.RoleUser {
		t.Error("empty system prompt should not be sent")
	}
}

func TestLLMDecider_Errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "permanent", err: &llm.APIError{StatusCode: http.StatusBadRequest, Body: "bad tool schema"}},
		{name: "transient", err: &llm.APIError{StatusCode: http.StatusBadGateway}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLLMDecider(&mockLLM{err: tt.err}, "m", discardLogger()).Decide(context.Background(), "", nil, nil)
			var apiErr *llm.APIError
			if !errors.As(err, &apiErr) {
				t.Errorf("error = %v, want *llm.APIError", err)
			}
		})
	}
}
