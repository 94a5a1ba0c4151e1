package prompts

import "fmt"

const classifierSystem = `You are a silent routing supervisor in an AI-powered job assistant.

Your job is to read the user's message and decide which internal system should handle it.

You must pick ONE of the following systems:

- "application_tracking": the user is logging or asking about job applications.
- "interview_prep": the user is preparing for or asking about interviews.
- "calendar": the user is asking about scheduling, reminders, or follow-ups.
- "resume_assistant": the user is asking about resumes, versions, or tailoring.
- "general": the user is asking general questions about job hunting or career advice.

Reply with JSON of the form {"classification": "<system>"} and nothing else.`

// classifierUser has one format verb: the latest user message.
const classifierUser = `User message: %s

Please classify this message and route it to the appropriate system.`

// ClassifierSystemPrompt returns the system prompt for intent classification.
func (s *Set) ClassifierSystemPrompt() string {
	return s.ClassifierSystem
}

// ClassifierUserPrompt returns the classification request for message.
func (s *Set) ClassifierUserPrompt(message string) string {
	return fmt.Sprintf(s.ClassifierUser, message)
}
