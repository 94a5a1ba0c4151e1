package conversation

import "errors"

// ErrNilTurn is returned when appending a nil turn.
var ErrNilTurn = errors.New("conversation: nil turn")

// Log is an ordered, append-only sequence of turns. A Log belongs to a
// single invocation and is not safe for concurrent use.
type Log struct {
	turns []Turn
}

// NewLog creates a log seeded with the given turns.
func NewLog(initial ...Turn) (*Log, error) {
	l := &Log{turns: make([]Turn, 0, len(initial)+4)}
	for _, t := range initial {
		if err := l.Append(t); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Append adds a turn to the end of the log. Turns already in the log
// are never modified or removed.
func (l *Log) Append(t Turn) error {
	if t == nil {
		return ErrNilTurn
	}
	l.turns = append(l.turns, clone(t))
	return nil
}

// Len returns the number of turns in the log.
func (l *Log) Len() int {
	if l == nil {
		return 0
	}
	return len(l.turns)
}

// Last returns the most recent turn, or false if the log is empty.
func (l *Log) Last() (Turn, bool) {
	if l.Len() == 0 {
		return nil, false
	}
	return clone(l.turns[len(l.turns)-1]), true
}

// At returns the turn at index i.
func (l *Log) At(i int) Turn {
	return clone(l.turns[i])
}

// Turns returns a copy of every turn in order.
func (l *Log) Turns() []Turn {
	if l.Len() == 0 {
		return nil
	}
	out := make([]Turn, len(l.turns))
	for i, t := range l.turns {
		out[i] = clone(t)
	}
	return out
}

// Since returns a copy of the turns appended at or after index i.
func (l *Log) Since(i int) []Turn {
	all := l.Turns()
	if i >= len(all) {
		return nil
	}
	if i < 0 {
		i = 0
	}
	return all[i:]
}
