package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nugget/jobtrack/internal/applications"
)

// fakeOllama stands in for the model server. Structured requests are
// classifications; tool requests get a log_application call followed by
// the sentinel once a tool result is present.
func fakeOllama(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/tags" {
			w.Write([]byte(`{"models": []}`))
			return
		}
		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
			Format json.RawMessage `json:"format"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		var msg map[string]any
		switch {
		case len(req.Format) > 0:
			user := req.Messages[len(req.Messages)-1].Content
			label := "general"
			switch {
			case strings.Contains(user, "applied"):
				label = "application_tracking"
			case strings.Contains(user, "salary"):
				label = "salary_negotiation"
			}
			msg = map[string]any{"role": "assistant", "content": `{"classification": "` + label + `"}`}
		case req.Messages[len(req.Messages)-1].Role == "tool":
			msg = map[string]any{
				"role":       "assistant",
				"content":    "Logged your Google application.",
				"tool_calls": []any{map[string]any{"function": map[string]any{"name": "Done", "arguments": map[string]any{}}}},
			}
		default:
			msg = map[string]any{
				"role":    "assistant",
				"content": "",
				"tool_calls": []any{map[string]any{"function": map[string]any{
					"name": "log_application",
					"arguments": map[string]any{
						"company": "Google", "role": "SWE", "date": "2024-01-15", "source": "LinkedIn",
					},
				}}},
			}
		}
		json.NewEncoder(w).Encode(map[string]any{"model": "fake", "message": msg, "done": true})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeTestConfig(t *testing.T, ollamaURL string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "log_level: error\n" +
		"user_id: u1\n" +
		"models:\n  ollama_url: " + ollamaURL + "\n" +
		"retry:\n  max_attempts: 1\n" +
		"store:\n  driver: sqlite\n  path: " + filepath.Join(dir, "data", "apps.db") + "\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), &stdout, &stderr, args)
	return stdout.String(), err
}

func TestRun_Flags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantOut string
		wantErr string
	}{
		{name: "no command", args: nil, wantOut: "Usage: jobtrack"},
		{name: "help", args: []string{"-h"}, wantOut: "Commands:"},
		{name: "version", args: []string{"version"}, wantOut: "jobtrack dev"},
		{name: "version json", args: []string{"-o", "json", "version"}, wantOut: `"go_version"`},
		{name: "bad output", args: []string{"-o", "yaml", "version"}, wantErr: "unknown output format"},
		{name: "unknown flag", args: []string{"-verbose", "version"}, wantErr: "unknown flag"},
		{name: "unknown command", args: []string{"serve"}, wantErr: "unknown command"},
		{name: "ask without message", args: []string{"ask"}, wantErr: "usage: jobtrack ask"},
		{name: "missing config", args: []string{"-config", "/nonexistent.yaml", "applications"}, wantErr: "config file not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCLI(t, tt.args...)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("error = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("run() error: %v", err)
			}
			if !strings.Contains(out, tt.wantOut) {
				t.Errorf("output = %q, want containing %q", out, tt.wantOut)
			}
		})
	}
}

func TestRun_AskApplicationTracking(t *testing.T) {
	cfg := writeTestConfig(t, fakeOllama(t).URL)

	out, err := runCLI(t, "-config", cfg, "-o", "json", "ask", "I applied to Google for a SWE role today via LinkedIn")
	if err != nil {
		t.Fatalf("ask error: %v", err)
	}
	var res askResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if res.Intent != "application_tracking" || res.Reply != "Logged your Google application." || res.Turns != 4 {
		t.Errorf("result = %+v", res)
	}

	out, err = runCLI(t, "-config", cfg, "-o", "json", "applications")
	if err != nil {
		t.Fatalf("applications error: %v", err)
	}
	var apps []applications.Application
	if err := json.Unmarshal([]byte(out), &apps); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(apps) != 1 || apps[0].Company != "Google" || apps[0].UserID != "u1" {
		t.Errorf("applications = %+v", apps)
	}

	out, err = runCLI(t, "-config", cfg, "-user", "someone-else", "applications")
	if err != nil {
		t.Fatalf("applications error: %v", err)
	}
	if !strings.Contains(out, "No applications logged for someone-else") {
		t.Errorf("output = %q", out)
	}
}

func TestRun_AskTerminatingIntent(t *testing.T) {
	cfg := writeTestConfig(t, fakeOllama(t).URL)

	out, err := runCLI(t, "-config", cfg, "ask", "Any", "tips", "for", "networking?")
	if err != nil {
		t.Fatalf("ask error: %v", err)
	}
	if strings.TrimSpace(out) != "intent: general" {
		t.Errorf("output = %q", out)
	}
}

func TestRun_AskInvalidClassification(t *testing.T) {
	cfg := writeTestConfig(t, fakeOllama(t).URL)

	out, err := runCLI(t, "-config", cfg, "ask", "what salary should I ask for")
	if err == nil || !strings.Contains(err.Error(), "outside the intent set") {
		t.Fatalf("error = %v, want config violation", err)
	}
	if !strings.Contains(out, "intent: unset") {
		t.Errorf("output = %q", out)
	}
}

func TestRun_Batch(t *testing.T) {
	cfg := writeTestConfig(t, fakeOllama(t).URL)
	input := filepath.Join(t.TempDir(), "messages.txt")
	body := "How do I follow up after an interview?\n\n  I applied to Google for SWE today  \nWhat should my resume headline say?\n"
	if err := os.WriteFile(input, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, "-config", cfg, "-o", "json", "batch", input)
	if err != nil {
		t.Fatalf("batch error: %v", err)
	}
	var results []askResult
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	want := []string{"general", "application_tracking", "general"}
	for i, r := range results {
		if r.Intent != want[i] {
			t.Errorf("result %d intent = %s, want %s", i, r.Intent, want[i])
		}
	}
	if results[1].Message != "I applied to Google for SWE today" {
		t.Errorf("message not trimmed: %q", results[1].Message)
	}
}

func TestRun_BatchMissingFile(t *testing.T) {
	if _, err := runCLI(t, "batch", filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Fatal("expected error for missing batch file")
	}
}

func TestRun_AskOllamaUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("unexpected request to %s before reachability check passed", r.URL.Path)
		}
		http.Error(w, "loading", http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	cfg := writeTestConfig(t, srv.URL)

	_, err := runCLI(t, "-config", cfg, "ask", "I applied to Google")
	if err == nil || !strings.Contains(err.Error(), "ollama unreachable") {
		t.Fatalf("error = %v, want ollama unreachable", err)
	}
	if _, statErr := os.Stat(filepath.Join(filepath.Dir(cfg), "data", "apps.db")); !os.IsNotExist(statErr) {
		t.Errorf("store opened despite unreachable model server: %v", statErr)
	}
}
