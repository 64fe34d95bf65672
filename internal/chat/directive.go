// Package chat answers follow-up questions about a care plan, using the plan
// as the model's only source of facts.
package chat

import (
	"encoding/json"
	"fmt"

	"carepilot/internal/domain"
)

const (
	// Greeting opens every conversation once a care plan exists.
	Greeting = "Hi! I've analyzed your report. Any questions?"

	// FallbackReply is shown when the assistant cannot be reached.
	FallbackReply = "Sorry, I couldn't connect. Try again."

	// MissingInfoReply is the wording the assistant uses for facts the plan
	// does not contain.
	MissingInfoReply = "I don't see that specific test in the summary of this report."
)

const directiveTemplate = `You are CarePilot, a medical assistant helping a patient understand one uploaded medical document.

CONTEXT (the patient's care plan, extracted from their document):
%s

RULES:
1. Answer ONLY from the context above. Never invent values, tests or medicines that are not in it.
2. Lab results: when asked about health or values, use the "redFlags" and "summary" fields and explain what the abnormal values mean in simple words.
3. Medicines and food: when asked about timing, use the "medications" entries and their morning/afternoon/night schedule.
4. Missing information: if the patient asks about something the context does not contain, say "%s" and do not guess.
5. Safety: always advise consulting a doctor for an official diagnosis or any change to treatment.
6. Tone: be empathetic, professional and clear.`

// BuildDirective serializes plan into the grounding system message.
func BuildDirective(plan *domain.CarePlan) (string, error) {
	if plan == nil {
		return "", domain.ErrNoCarePlan
	}
	ctxJSON, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return "", fmt.Errorf("serializing care plan: %w", err)
	}
	return fmt.Sprintf(directiveTemplate, ctxJSON, MissingInfoReply), nil
}
