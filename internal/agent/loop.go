// Package agent runs the bounded tool loop that handles application
// tracking requests: ask the decision model for an action, execute the
// tools it requests, feed the results back, and stop on the completion
// sentinel or a tool-free reply.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nugget/jobtrack/internal/conversation"
	"github.com/nugget/jobtrack/internal/retry"
	"github.com/nugget/jobtrack/internal/router"
	"github.com/nugget/jobtrack/internal/tools"
)

// DefaultMaxIterations bounds the decisions in one run when no limit is
// configured.
const DefaultMaxIterations = 10

// ErrLoopLimitExceeded is returned when the decision model keeps
// requesting tools past the iteration limit.
var ErrLoopLimitExceeded = errors.New("loop limit exceeded")

// Decider chooses the next action given the conversation so far. The
// returned turn either requests tools, requests the sentinel, or is a
// final reply with no tool calls.
type Decider interface {
	Decide(ctx context.Context, systemPrompt string, history []conversation.Turn, specs []tools.Spec) (conversation.AssistantTurn, error)
}

// ToolExecutor runs tools by name. [*tools.Registry] implements it.
type ToolExecutor interface {
	Specs() []tools.Spec
	Execute(ctx context.Context, name string, args map[string]any) (map[string]any, error)
}

// StopReason says why a run ended normally.
type StopReason string

const (
	StopSentinel    StopReason = "sentinel"
	StopNoToolCalls StopReason = "no_tool_calls"
)

// Outcome summarizes a run.
type Outcome struct {
	Iterations int        // decisions made
	ToolCalls  int        // tools executed, sentinel excluded
	StopReason StopReason // empty when the run failed
	Reply      string     // text of the final assistant turn
}

// Config holds loop configuration.
type Config struct {
	SystemPrompt  string
	MaxIterations int          // default DefaultMaxIterations
	Retry         retry.Policy // applied to each decision
}

// Loop is the tool loop. It holds no per-run state and is safe for
// concurrent use when its Decider and ToolExecutor are.
type Loop struct {
	logger  *slog.Logger
	decider Decider
	tools   ToolExecutor
	config  Config
}

// NewLoop creates a tool loop.
func NewLoop(logger *slog.Logger, decider Decider, executor ToolExecutor, config Config) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	if config.MaxIterations <= 0 {
		config.MaxIterations = DefaultMaxIterations
	}
	return &Loop{
		logger:  logger,
		decider: decider,
		tools:   executor,
		config:  config,
	}
}

// Handle runs the loop on an invocation's log. It satisfies
// [router.Handler].
func (l *Loop) Handle(ctx context.Context, s *router.State) error {
	if s.UserID() != "" {
		ctx = tools.WithUserID(ctx, s.UserID())
	}
	ctx = tools.WithInvocationID(ctx, s.ID())

	_, err := l.run(ctx, l.logger.With("invocation_id", s.ID()), s.Log())
	return err
}

// Run executes the loop against log, appending every assistant and
// tool result turn it produces.
func (l *Loop) Run(ctx context.Context, log *conversation.Log) (Outcome, error) {
	return l.run(ctx, l.logger, log)
}

func (l *Loop) run(ctx context.Context, logger *slog.Logger, log *conversation.Log) (Outcome, error) {
	start := time.Now()
	specs := append(l.tools.Specs(), tools.SentinelSpec())
	var out Outcome

	for out.Iterations < l.config.MaxIterations {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		history := log.Turns()
		reply, err := retry.Do(ctx, l.config.Retry, logger, "decide", func(ctx context.Context) (conversation.AssistantTurn, error) {
			return l.decider.Decide(ctx, l.config.SystemPrompt, history, specs)
		})
		if err != nil {
			return out, fmt.Errorf("decide: %w", err)
		}
		out.Iterations++
		assignCallIDs(&reply)

		if err := log.Append(reply); err != nil {
			return out, err
		}

		switch {
		case requestsSentinel(reply):
			out.StopReason = StopSentinel
		case !reply.HasToolCalls():
			out.StopReason = StopNoToolCalls
		}
		if out.StopReason != "" {
			out.Reply = reply.Text
			logger.Info("tool loop complete",
				"iterations", out.Iterations,
				"tool_calls", out.ToolCalls,
				"stop_reason", out.StopReason,
				"elapsed", time.Since(start).Round(time.Millisecond),
			)
			return out, nil
		}

		logger.Debug("executing tool calls", "iteration", out.Iterations, "count", len(reply.ToolCalls))
		for _, call := range reply.ToolCalls {
			if err := ctx.Err(); err != nil {
				return out, err
			}
			if err := log.Append(l.execute(ctx, logger, call)); err != nil {
				return out, err
			}
			out.ToolCalls++
		}
	}

	logger.Warn("tool loop hit iteration limit",
		"iterations", out.Iterations,
		"tool_calls", out.ToolCalls,
	)
	return out, fmt.Errorf("%w: %d decisions without completion", ErrLoopLimitExceeded, out.Iterations)
}

// execute runs one call and converts any failure into an error result
// for the model to read.
func (l *Loop) execute(ctx context.Context, logger *slog.Logger, call conversation.ToolCallRequest) conversation.ToolResultTurn {
	ctx = tools.WithToolCallID(ctx, call.ID)
	result, err := l.tools.Execute(ctx, call.Name, call.Arguments)
	if err != nil {
		logger.Warn("tool failed", "tool", call.Name, "tool_call_id", call.ID, "error", err)
		return conversation.ToolResultTurn{
			ToolCallID: call.ID,
			ToolName:   call.Name,
			Result:     map[string]any{"status": "error", "error": err.Error()},
			IsError:    true,
		}
	}
	if result == nil {
		result = map[string]any{}
	}
	return conversation.ToolResultTurn{
		ToolCallID: call.ID,
		ToolName:   call.Name,
		Result:     result,
	}
}

// requestsSentinel reports whether any call in the reply is the
// sentinel. The sentinel wins over co-requested tools, which are not run.
func requestsSentinel(reply conversation.AssistantTurn) bool {
	for _, c := range reply.ToolCalls {
		if tools.IsSentinel(c.Name) {
			return true
		}
	}
	return false
}

// assignCallIDs gives every call without an id, or with an id already
// used earlier in the same reply, a fresh one so each result correlates
// with exactly one request.
func assignCallIDs(reply *conversation.AssistantTurn) {
	if len(reply.ToolCalls) == 0 {
		return
	}
	calls := make([]conversation.ToolCallRequest, len(reply.ToolCalls))
	copy(calls, reply.ToolCalls)
	seen := make(map[string]bool, len(calls))
	for i := range calls {
		if calls[i].ID == "" || seen[calls[i].ID] {
			calls[i].ID = "call_" + uuid.NewString()
		}
		seen[calls[i].ID] = true
	}
	reply.ToolCalls = calls
}
