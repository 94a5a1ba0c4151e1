package tools

import (
	"fmt"
	"strings"
	"time"
)

// dateLayout is the argument format for application dates.
const dateLayout = "2006-01-02"

// stringArg returns args[key] as a trimmed string. A missing or blank
// value is an error only when required is set.
func stringArg(args map[string]any, key string, required bool) (string, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		if required {
			return "", &ArgumentError{Argument: key, Reason: "is required"}
		}
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", &ArgumentError{Argument: key, Reason: fmt.Sprintf("expected string, got %T", raw)}
	}
	s = strings.TrimSpace(s)
	if s == "" && required {
		return "", &ArgumentError{Argument: key, Reason: "must not be empty"}
	}
	return s, nil
}

// dateArg returns a required YYYY-MM-DD date argument.
func dateArg(args map[string]any, key string) (string, error) {
	s, err := stringArg(args, key, true)
	if err != nil {
		return "", err
	}
	if _, err := time.Parse(dateLayout, s); err != nil {
		return "", &ArgumentError{Argument: key, Reason: "expected YYYY-MM-DD"}
	}
	return s, nil
}

// objectArg returns args[key] as a JSON object.
func objectArg(args map[string]any, key string) (map[string]any, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return nil, &ArgumentError{Argument: key, Reason: "is required"}
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, &ArgumentError{Argument: key, Reason: fmt.Sprintf("expected object, got %T", raw)}
	}
	return obj, nil
}
