// Package router classifies the latest conversation turn into an intent
// and dispatches the invocation to the handler for that intent.
package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nugget/jobtrack/internal/conversation"
	"github.com/nugget/jobtrack/internal/intent"
	"github.com/nugget/jobtrack/internal/retry"
)

// ErrConfigViolation is returned when the classifier produces a label
// outside the intent enumeration. It is terminal: nothing is dispatched
// and the decision stays unset.
var ErrConfigViolation = errors.New("classifier returned a label outside the intent set")

// Classifier assigns an intent to an utterance. Implementations may
// return any label; the router validates it.
type Classifier interface {
	Classify(ctx context.Context, utterance string) (intent.Intent, error)
}

// ClassifierFunc adapts a function to [Classifier].
type ClassifierFunc func(ctx context.Context, utterance string) (intent.Intent, error)

// Classify calls f.
func (f ClassifierFunc) Classify(ctx context.Context, utterance string) (intent.Intent, error) {
	return f(ctx, utterance)
}

// Handler continues an invocation after routing. It may append to the
// state's log but never removes from it.
type Handler interface {
	Handle(ctx context.Context, s *State) error
}

// HandlerFunc adapts a function to [Handler].
type HandlerFunc func(ctx context.Context, s *State) error

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, s *State) error { return f(ctx, s) }

// Outcomes recorded in the audit log.
const (
	OutcomeEmpty           = "empty"
	OutcomeTerminated      = "terminated"
	OutcomeHandled         = "handled"
	OutcomeHandlerError    = "handler_error"
	OutcomeClassifyError   = "classify_error"
	OutcomeConfigViolation = "config_violation"
	OutcomeAlreadyDecided  = "already_decided"
)

// Decision records one routing pass.
type Decision struct {
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
	UserID    string    `json:"user_id,omitempty"`

	UtteranceLength int    `json:"utterance_length"`
	Intent          string `json:"intent,omitempty"`
	Handled         bool   `json:"handled"`

	Outcome   string `json:"outcome"`
	Error     string `json:"error,omitempty"`
	LatencyMs int64  `json:"latency_ms"`
}

// Stats tracks routing statistics.
type Stats struct {
	TotalRequests int64            `json:"total_requests"`
	IntentCounts  map[string]int64 `json:"intent_counts"`
	OutcomeCounts map[string]int64 `json:"outcome_counts"`
	Errors        int64            `json:"errors"`
}

// Config holds router configuration.
type Config struct {
	MaxAuditLog int          // How many decisions to keep in memory
	Retry       retry.Policy // Applied to classifier calls
}

// Router classifies and dispatches invocations. It is safe for
// concurrent use; each invocation has its own State.
type Router struct {
	logger     *slog.Logger
	config     Config
	classifier Classifier
	handlers   map[intent.Intent]Handler

	mu       sync.RWMutex
	auditLog []Decision
	stats    Stats
}

// New creates a router. A handler for [intent.ApplicationTracking] is
// required; handlers for the other intents are optional and, when
// absent, routing to them ends the invocation.
func New(logger *slog.Logger, classifier Classifier, handlers map[intent.Intent]Handler, config Config) (*Router, error) {
	if classifier == nil {
		return nil, errors.New("router: classifier is required")
	}
	for i, h := range handlers {
		if !i.Valid() {
			return nil, fmt.Errorf("router: handler registered for unknown intent %q", string(i))
		}
		if h == nil {
			return nil, fmt.Errorf("router: nil handler for %s", i)
		}
	}
	if handlers[intent.ApplicationTracking] == nil {
		return nil, fmt.Errorf("router: no handler for %s", intent.ApplicationTracking)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if config.MaxAuditLog <= 0 {
		config.MaxAuditLog = 1000
	}

	hs := make(map[intent.Intent]Handler, len(handlers))
	for i, h := range handlers {
		hs[i] = h
	}

	return &Router{
		logger:     logger,
		config:     config,
		classifier: classifier,
		handlers:   hs,
		auditLog:   make([]Decision, 0, min(config.MaxAuditLog, 64)),
		stats: Stats{
			IntentCounts:  make(map[string]int64),
			OutcomeCounts: make(map[string]int64),
		},
	}, nil
}

// InvokeOption configures a single invocation.
type InvokeOption func(*invokeConfig)

type invokeConfig struct {
	userID string
}

// WithUserID sets the user the invocation acts on behalf of.
func WithUserID(id string) InvokeOption {
	return func(c *invokeConfig) { c.userID = id }
}

// Invoke runs one request: it builds a State from initial, routes it,
// and returns the State. On error the State still reflects the turns
// appended so far but is not a completed transcript. The State is nil
// only when initial cannot seed a log.
func (r *Router) Invoke(ctx context.Context, initial []conversation.Turn, opts ...InvokeOption) (*State, error) {
	var cfg invokeConfig
	for _, o := range opts {
		o(&cfg)
	}

	s, err := NewState(cfg.userID, initial...)
	if err != nil {
		return nil, fmt.Errorf("new invocation: %w", err)
	}
	return s, r.Route(ctx, s)
}

// Route classifies the latest turn of s, records the decision, and
// dispatches to the handler for that intent. An empty log is left
// undecided.
func (r *Router) Route(ctx context.Context, s *State) error {
	start := time.Now()
	d := Decision{
		RequestID: s.ID(),
		Timestamp: start,
		UserID:    s.UserID(),
	}
	log := r.logger.With("invocation_id", s.ID())

	last, ok := s.Log().Last()
	if !ok {
		log.Debug("empty conversation, nothing to route")
		d.Outcome = OutcomeEmpty
		r.recordDecision(d)
		return nil
	}
	utterance := last.String()
	d.UtteranceLength = len(utterance)

	label, err := retry.Do(ctx, r.config.Retry, log, "classify", func(ctx context.Context) (intent.Intent, error) {
		return r.classifier.Classify(ctx, utterance)
	})
	if err != nil {
		r.finish(&d, start, OutcomeClassifyError, err)
		return fmt.Errorf("classify: %w", err)
	}
	d.Intent = string(label)

	var handler Handler
	switch label {
	case intent.ApplicationTracking:
		handler = r.handlers[label]
		log.Info("intent classified, routing to application manager", "intent", label)
	case intent.InterviewPrep, intent.Calendar, intent.ResumeAssistant, intent.General:
		handler = r.handlers[label]
		if handler == nil {
			log.Info("intent classified, no agent for intent", "intent", label)
		} else {
			log.Info("intent classified, routing to handler", "intent", label)
		}
	default:
		err := fmt.Errorf("%w: %q", ErrConfigViolation, string(label))
		log.Error("invalid classification", "label", string(label))
		r.finish(&d, start, OutcomeConfigViolation, err)
		return err
	}

	if err := s.Decide(label); err != nil {
		outcome := OutcomeAlreadyDecided
		if errors.Is(err, ErrConfigViolation) {
			outcome = OutcomeConfigViolation
		}
		r.finish(&d, start, outcome, err)
		return err
	}

	if handler == nil {
		r.finish(&d, start, OutcomeTerminated, nil)
		return nil
	}

	d.Handled = true
	if err := handler.Handle(ctx, s); err != nil {
		r.finish(&d, start, OutcomeHandlerError, err)
		return fmt.Errorf("%s handler: %w", label, err)
	}
	r.finish(&d, start, OutcomeHandled, nil)
	return nil
}

func (r *Router) finish(d *Decision, start time.Time, outcome string, err error) {
	d.Outcome = outcome
	d.LatencyMs = time.Since(start).Milliseconds()
	if err != nil {
		d.Error = err.Error()
	}
	r.recordDecision(*d)
}

// recordDecision adds a decision to the audit log.
func (r *Router) recordDecision(d Decision) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.auditLog) >= r.config.MaxAuditLog {
		r.auditLog = r.auditLog[1:]
	}
	r.auditLog = append(r.auditLog, d)

	r.stats.TotalRequests++
	if d.Intent != "" {
		r.stats.IntentCounts[d.Intent]++
	}
	r.stats.OutcomeCounts[d.Outcome]++
	if d.Error != "" {
		r.stats.Errors++
	}
}

// GetAuditLog returns up to limit of the most recent decisions, oldest
// first. A non-positive limit returns all of them.
func (r *Router) GetAuditLog(limit int) []Decision {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 || limit > len(r.auditLog) {
		limit = len(r.auditLog)
	}
	start := len(r.auditLog) - limit
	result := make([]Decision, limit)
	copy(result, r.auditLog[start:])
	return result
}

// GetStats returns a snapshot of routing statistics.
func (r *Router) GetStats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := r.stats
	s.IntentCounts = make(map[string]int64, len(r.stats.IntentCounts))
	for k, v := range r.stats.IntentCounts {
		s.IntentCounts[k] = v
	}
	s.OutcomeCounts = make(map[string]int64, len(r.stats.OutcomeCounts))
	for k, v := range r.stats.OutcomeCounts {
		s.OutcomeCounts[k] = v
	}
	return s
}

// Explain returns the recorded decision for an invocation, or nil if it
// has aged out of the audit log.
func (r *Router) Explain(requestID string) *Decision {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := len(r.auditLog) - 1; i >= 0; i-- {
		if r.auditLog[i].RequestID == requestID {
			d := r.auditLog[i]
			return &d
		}
	}
	return nil
}
