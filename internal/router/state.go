package router

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/nugget/jobtrack/internal/conversation"
	"github.com/nugget/jobtrack/internal/intent"
)

// ErrDecisionAlreadySet is returned when a State's decision is recorded
// a second time.
var ErrDecisionAlreadySet = errors.New("routing decision already set")

// State is the working state of one invocation: the conversation log
// and the routing decision. A State is owned by a single goroutine.
type State struct {
	id       string
	userID   string
	log      *conversation.Log
	decision intent.Intent
}

// NewState creates the state for a new invocation seeded with initial.
func NewState(userID string, initial ...conversation.Turn) (*State, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate invocation id: %w", err)
	}
	log, err := conversation.NewLog(initial...)
	if err != nil {
		return nil, err
	}
	return &State{
		id:     id.String(),
		userID: userID,
		log:    log,
	}, nil
}

// ID returns the invocation ID.
func (s *State) ID() string { return s.id }

// UserID returns the user the invocation acts on behalf of.
func (s *State) UserID() string { return s.userID }

// Log returns the conversation log. Handlers append to it; nothing
// removes from it.
func (s *State) Log() *conversation.Log { return s.log }

// Decision returns the recorded intent, or the zero Intent if routing
// has not decided.
func (s *State) Decision() intent.Intent { return s.decision }

// Decide records the routing decision. It may be called once.
func (s *State) Decide(i intent.Intent) error {
	if !s.decision.IsZero() {
		return fmt.Errorf("%w: have %s, got %s", ErrDecisionAlreadySet, s.decision, i)
	}
	if !i.Valid() {
		return fmt.Errorf("%w: %q", ErrConfigViolation, string(i))
	}
	s.decision = i
	return nil
}
