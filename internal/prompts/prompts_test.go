package prompts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaults_Interpolation(t *testing.T) {
	s := Defaults()

	user := s.ClassifierUserPrompt("I applied to Google today")
	if !strings.Contains(user, "User message: I applied to Google today") {
		t.Errorf("classifier user prompt = %q", user)
	}

	for _, label := range []string{"application_tracking", "interview_prep", "calendar", "resume_assistant", "general"} {
		if !strings.Contains(s.ClassifierSystemPrompt(), label) {
			t.Errorf("classifier system prompt missing %q", label)
		}
	}

	am := s.ApplicationManagerPrompt(time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC))
	if !strings.Contains(am, "Today is 2024-01-15.") {
		t.Error("application manager prompt missing today's date")
	}
	if strings.Contains(am, "%!") {
		t.Errorf("bad format verb in application manager prompt")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
			t.Fatal(err)
		}
		return p
	}

	tests := []struct {
		name    string
		files   Files
		wantErr bool
		check   func(*testing.T, *Set)
	}{
		{
			name: "no overrides",
			check: func(t *testing.T, s *Set) {
				if s.ClassifierSystem != classifierSystem {
					t.Error("default system prompt replaced")
				}
			},
		},
		{
			name:  "system override",
			files: Files{ClassifierSystem: write("sys.txt", "  Route it.\n")},
			check: func(t *testing.T, s *Set) {
				if s.ClassifierSystem != "Route it." {
					t.Errorf("ClassifierSystem = %q", s.ClassifierSystem)
				}
			},
		},
		{
			name:  "user template override",
			files: Files{ClassifierUser: write("user.txt", "Classify: %s")},
			check: func(t *testing.T, s *Set) {
				if got := s.ClassifierUserPrompt("hi"); got != "Classify: hi" {
					t.Errorf("ClassifierUserPrompt = %q", got)
				}
			},
		},
		{name: "template missing verb", files: Files{ApplicationManager: write("am.txt", "Track apps.")}, wantErr: true},
		{name: "empty file", files: Files{ClassifierSystem: write("empty.txt", "\n")}, wantErr: true},
		{name: "missing file", files: Files{ClassifierSystem: filepath.Join(dir, "nope.txt")}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Load(tt.files)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Load() error: %v", err)
			}
			tt.check(t, s)
		})
	}
}
