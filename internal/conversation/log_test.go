package conversation

import (
	"errors"
	"strings"
	"testing"
)

func TestLog_AppendGrows(t *testing.T) {
	l, err := NewLog(UserTurn{Text: "I applied to Google today"})
	if err != nil {
		t.Fatalf("NewLog() error: %v", err)
	}

	turns := []Turn{
		AssistantTurn{ToolCalls: []ToolCallRequest{{ID: "call-1", Name: "log_application"}}},
		ToolResultTurn{ToolCallID: "call-1", Result: map[string]any{"status": "success"}},
		AssistantTurn{Text: "Logged."},
	}

	prev := l.Len()
	for _, turn := range turns {
		if err := l.Append(turn); err != nil {
			t.Fatalf("Append() error: %v", err)
		}
		if l.Len() != prev+1 {
			t.Fatalf("Len() = %d after append, want %d", l.Len(), prev+1)
		}
		prev = l.Len()
	}

	last, ok := l.Last()
	if !ok {
		t.Fatal("Last() on non-empty log returned false")
	}
	if last.String() != "Logged." {
		t.Errorf("Last().String() = %q, want %q", last.String(), "Logged.")
	}
}

func TestLog_AppendNil(t *testing.T) {
	var l Log
	if err := l.Append(nil); !errors.Is(err, ErrNilTurn) {
		t.Errorf("Append(nil) error = %v, want ErrNilTurn", err)
	}
	if l.Len() != 0 {
		t.Errorf("Len() = %d after rejected append, want 0", l.Len())
	}
}

func TestLog_EmptyLast(t *testing.T) {
	l, _ := NewLog()
	if _, ok := l.Last(); ok {
		t.Error("Last() on empty log returned true")
	}
	if l.Turns() != nil {
		t.Error("Turns() on empty log should be nil")
	}
}

func TestLog_TurnsAreCopies(t *testing.T) {
	l, _ := NewLog(AssistantTurn{ToolCalls: []ToolCallRequest{{
		ID:        "call-1",
		Name:      "update_application",
		Arguments: map[string]any{"company": "Google"},
	}}})

	got := l.Turns()
	a := got[0].(AssistantTurn)
	a.ToolCalls[0].Arguments["company"] = "Microsoft"
	a.ToolCalls[0].Name = "changed"

	again := l.At(0).(AssistantTurn)
	if again.ToolCalls[0].Name != "update_application" {
		t.Errorf("stored call name = %q, want unchanged", again.ToolCalls[0].Name)
	}
	if again.ToolCalls[0].Arguments["company"] != "Google" {
		t.Errorf("stored arguments mutated through copy: %v", again.ToolCalls[0].Arguments)
	}
}

func TestLog_NestedValuesAreCopies(t *testing.T) {
	l, _ := NewLog(
		AssistantTurn{ToolCalls: []ToolCallRequest{{
			ID:        "call-1",
			Name:      "update_application",
			Arguments: map[string]any{"company": "Google", "updates": map[string]any{"status": "interviewing"}},
		}}},
		ToolResultTurn{
			ToolCallID: "call-2",
			ToolName:   "get_applications_by_user",
			Result:     map[string]any{"applications": []any{map[string]any{"company": "Google"}}},
		},
	)
	wantResult := l.At(1).String()

	tests := []struct {
		name   string
		mutate func(turns []Turn)
	}{
		{
			name: "nested argument map",
			mutate: func(turns []Turn) {
				a := turns[0].(AssistantTurn)
				a.ToolCalls[0].Arguments["updates"].(map[string]any)["status"] = "rejected"
			},
		},
		{
			name: "map inside result slice",
			mutate: func(turns []Turn) {
				r := turns[1].(ToolResultTurn)
				r.Result["applications"].([]any)[0].(map[string]any)["company"] = "Mutated"
			},
		},
		{
			name: "result slice element",
			mutate: func(turns []Turn) {
				r := turns[1].(ToolResultTurn)
				r.Result["applications"].([]any)[0] = "gone"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mutate(l.Turns())
			stored := l.At(0).(AssistantTurn).ToolCalls[0].Arguments["updates"].(map[string]any)
			if stored["status"] != "interviewing" {
				t.Errorf("stored updates = %v, want status interviewing", stored)
			}
			if got := l.At(1).String(); got != wantResult {
				t.Errorf("stored result = %s, want %s", got, wantResult)
			}
		})
	}

	last, _ := l.Last()
	last.(ToolResultTurn).Result["applications"].([]any)[0].(map[string]any)["company"] = "Mutated"
	if got := l.At(1).String(); got != wantResult {
		t.Errorf("stored result mutated through Last(): %s", got)
	}
}

func TestLog_AppendCopiesInput(t *testing.T) {
	result := map[string]any{"status": "success"}
	l, _ := NewLog()
	_ = l.Append(ToolResultTurn{ToolCallID: "c", Result: result})

	result["status"] = "tampered"

	got := l.At(0).(ToolResultTurn)
	if got.Result["status"] != "success" {
		t.Errorf("Result[status] = %v, want success", got.Result["status"])
	}
}

func TestLog_Since(t *testing.T) {
	l, _ := NewLog(UserTurn{Text: "a"}, UserTurn{Text: "b"}, UserTurn{Text: "c"})

	tests := []struct {
		from int
		want int
	}{
		{from: 0, want: 3},
		{from: 1, want: 2},
		{from: 3, want: 0},
		{from: 10, want: 0},
		{from: -1, want: 3},
	}
	for _, tt := range tests {
		if got := len(l.Since(tt.from)); got != tt.want {
			t.Errorf("Since(%d) returned %d turns, want %d", tt.from, got, tt.want)
		}
	}
}

func TestTurn_String(t *testing.T) {
	tests := []struct {
		name string
		turn Turn
		want string
		role string
	}{
		{name: "user", turn: UserTurn{Text: "hello"}, want: "hello", role: RoleUser},
		{name: "assistant text", turn: AssistantTurn{Text: "done"}, want: "done", role: RoleAssistant},
		{
			name: "assistant tools only",
			turn: AssistantTurn{ToolCalls: []ToolCallRequest{{Name: "log_application"}, {Name: "Done"}}},
			want: "tool calls: log_application, Done",
			role: RoleAssistant,
		},
		{
			name: "tool result",
			turn: ToolResultTurn{ToolCallID: "c1", Result: map[string]any{"status": "success"}},
			want: `{"status":"success"}`,
			role: RoleTool,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.turn.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
			if got := tt.turn.Role(); got != tt.role {
				t.Errorf("Role() = %q, want %q", got, tt.role)
			}
		})
	}
}

func TestAssistantTurn_HasToolCalls(t *testing.T) {
	if (AssistantTurn{Text: "hi"}).HasToolCalls() {
		t.Error("text-only reply reported tool calls")
	}
	if !(AssistantTurn{ToolCalls: []ToolCallRequest{{Name: "x"}}}).HasToolCalls() {
		t.Error("reply with a call reported none")
	}
	if s := (AssistantTurn{}).String(); strings.TrimSpace(s) != "" {
		t.Errorf("empty reply String() = %q, want empty", s)
	}
}
