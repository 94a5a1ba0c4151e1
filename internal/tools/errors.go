// Package tools provides the tool registry and execution framework.
//
// This file defines the error types returned by tool execution.
package tools

import (
	"errors"
	"fmt"
)

// ErrRateLimited is returned when a tool call is refused by the
// registry's rate limiter.
var ErrRateLimited = errors.New("tool rate limit exceeded")

// ErrToolUnavailable is returned when a tool call targets a tool that
// is not present in the registry. The decision model named something
// it was never offered; the caller reports it back rather than
// crashing the loop.
type ErrToolUnavailable struct {
	ToolName string
}

// Error implements the error interface.
func (e *ErrToolUnavailable) Error() string {
	return fmt.Sprintf("tool %q is not available in this context", e.ToolName)
}

// ArgumentError reports a missing or malformed tool argument.
type ArgumentError struct {
	Argument string
	Reason   string
}

// Error implements the error interface.
func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid argument %q: %s", e.Argument, e.Reason)
}
