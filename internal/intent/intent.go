// Package intent defines the closed set of intents a conversation turn
// can be classified into.
package intent

import (
	"fmt"
	"strings"
)

// Intent is one classification label. The zero value means unset.
type Intent string

const (
	ApplicationTracking Intent = "application_tracking" // logging or querying job applications
	InterviewPrep       Intent = "interview_prep"       // preparing for interviews
	Calendar            Intent = "calendar"             // scheduling, reminders, follow-ups
	ResumeAssistant     Intent = "resume_assistant"     // resumes, versions, tailoring
	General             Intent = "general"              // general job hunting advice
)

// All returns every valid intent in a stable order.
func All() []Intent {
	return []Intent{ApplicationTracking, InterviewPrep, Calendar, ResumeAssistant, General}
}

// Valid reports whether i is a member of the enumeration.
func (i Intent) Valid() bool {
	switch i {
	case ApplicationTracking, InterviewPrep, Calendar, ResumeAssistant, General:
		return true
	default:
		return false
	}
}

// IsZero reports whether the intent is unset.
func (i Intent) IsZero() bool { return i == "" }

func (i Intent) String() string {
	if i == "" {
		return "unset"
	}
	return string(i)
}

// Parse converts a label to an Intent. Leading and trailing whitespace,
// surrounding quotes, and letter case are ignored.
func Parse(s string) (Intent, error) {
	label := Intent(strings.ToLower(strings.Trim(strings.TrimSpace(s), `"'`)))
	if !label.Valid() {
		return "", fmt.Errorf("unknown intent %q", s)
	}
	return label, nil
}

// Labels returns the string form of every valid intent, for prompts and
// JSON schemas.
func Labels() []string {
	all := All()
	out := make([]string, len(all))
	for i, v := range all {
		out[i] = string(v)
	}
	return out
}
