package prompts

import (
	"fmt"
	"os"
	"strings"
)

// Set is the prompt text in use. Templates keep exactly one %s verb.
type Set struct {
	ClassifierSystem   string
	ClassifierUser     string
	ApplicationManager string
}

// Files names optional override files. Empty paths keep the default.
type Files struct {
	ClassifierSystem   string
	ClassifierUser     string
	ApplicationManager string
}

// Defaults returns the built-in prompts.
func Defaults() *Set {
	return &Set{
		ClassifierSystem:   classifierSystem,
		ClassifierUser:     classifierUser,
		ApplicationManager: applicationManager,
	}
}

// Load returns the defaults with any override files applied.
func Load(files Files) (*Set, error) {
	s := Defaults()
	overrides := []struct {
		path     string
		dst      *string
		template bool
	}{
		{files.ClassifierSystem, &s.ClassifierSystem, false},
		{files.ClassifierUser, &s.ClassifierUser, true},
		{files.ApplicationManager, &s.ApplicationManager, true},
	}
	for _, o := range overrides {
		if o.path == "" {
			continue
		}
		data, err := os.ReadFile(o.path)
		if err != nil {
			return nil, fmt.Errorf("read prompt: %w", err)
		}
		text := strings.TrimSpace(string(data))
		if text == "" {
			return nil, fmt.Errorf("prompt %s is empty", o.path)
		}
		if o.template && strings.Count(text, "%s") != 1 {
			return nil, fmt.Errorf("prompt %s must contain exactly one %%s", o.path)
		}
		*o.dst = text
	}
	return s, nil
}
