package clarify

import (
	"strings"

	"crm-assistant/internal/interpreter/intent"
	"crm-assistant/internal/models"
)

// Fallback is the composed reply for a turn that could not be acted on.
type Fallback struct {
	Message string
	Actions []models.Action
}

// BuildFallbackMessage composes escalating fallback copy. It is pure in
// its three inputs and never mutates the failure counter itself.
func BuildFallbackMessage(parsed *intent.Parsed, rawText string, failureCount int) Fallback {
	var b strings.Builder
	b.WriteString("I'm not sure I understood that. I can list records, summarize activity, forecast your pipeline, or schedule calls.")

	actions := []models.Action{
		{Type: models.ActionShowExamples, Label: "Show me examples"},
		{Type: models.ActionRetry, Label: "Try again"},
	}

	if failureCount >= 2 {
		entity := intent.EntityGeneral
		if parsed != nil {
			entity = parsed.Entity
		}
		b.WriteString(" Here are a few things you could try:")
		for _, example := range ContextualExamples(entity) {
			b.WriteString("\n- \"")
			b.WriteString(example)
			b.WriteString("\"")
		}
	}

	if failureCount >= 3 {
		b.WriteString("\n\nIf you're stuck, you can contact support and a person will help you out.")
		actions = append(actions, models.Action{Type: models.ActionEscalateSupport, Label: "Contact support"})
	}

	return Fallback{Message: b.String(), Actions: actions}
}
