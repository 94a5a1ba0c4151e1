package tools

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Registry holds the tools available to the decision model. Tools are
// registered explicitly at startup; names are unique and the sentinel
// name is reserved.
type Registry struct {
	mu      sync.RWMutex
	tools   map[string]Tool
	limiter *rate.Limiter // nil = no rate limiting
	logger  *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		tools:  make(map[string]Tool),
		logger: logger,
	}
}

// SetRateLimit caps tool executions at perMinute with the given burst.
// A non-positive perMinute disables rate limiting.
func (r *Registry) SetRateLimit(perMinute float64, burst int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if perMinute <= 0 {
		r.limiter = nil
		return
	}
	if burst <= 0 {
		burst = 1
	}
	r.limiter = rate.NewLimiter(rate.Limit(perMinute/60.0), burst)
}

// Register adds a tool. It fails for an empty, duplicate, or reserved name.
func (r *Registry) Register(t Tool) error {
	if t == nil {
		return fmt.Errorf("register: nil tool")
	}
	name := strings.TrimSpace(t.Name())
	if name == "" {
		return fmt.Errorf("register: tool name is empty")
	}
	if IsSentinel(name) {
		return fmt.Errorf("register: %q is reserved for the completion sentinel", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("register: tool %q already registered", name)
	}
	r.tools[name] = t
	return nil
}

// MustRegister is like [Registry.Register] but panics on error. Use it
// for fixed startup wiring only.
func (r *Registry) MustRegister(tools ...Tool) {
	for _, t := range tools {
		if err := r.Register(t); err != nil {
			panic(err)
		}
	}
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Names returns all registered tool names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Specs returns the descriptions of all registered tools, sorted by name
// so the decision model sees a stable tool list.
func (r *Registry) Specs() []Spec {
	names := r.Names()
	r.mu.RLock()
	defer r.mu.RUnlock()
	specs := make([]Spec, 0, len(names))
	for _, name := range names {
		specs = append(specs, SpecOf(r.tools[name]))
	}
	return specs
}

// Execute runs a tool by name. Unknown names return
// [*ErrToolUnavailable]; a refused call returns [ErrRateLimited].
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (map[string]any, error) {
	r.mu.RLock()
	tool, ok := r.tools[name]
	limiter := r.limiter
	r.mu.RUnlock()

	if !ok {
		return nil, &ErrToolUnavailable{ToolName: name}
	}
	if limiter != nil && !limiter.Allow() {
		return nil, fmt.Errorf("%s: %w", name, ErrRateLimited)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if args == nil {
		args = map[string]any{}
	}

	start := time.Now()
	result, err := tool.Execute(ctx, args)
	r.logger.Debug("tool executed",
		"tool", name,
		"tool_call_id", ToolCallIDFromContext(ctx),
		"duration_ms", time.Since(start).Milliseconds(),
		"is_error", err != nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return result, nil
}
