package models

// Origin tells the interpreter where a turn came from. Voice turns get the
// transcription-garble heuristics and a typed-text fallback offer.
type Origin string

const (
	OriginText  Origin = "text"
	OriginVoice Origin = "voice"
)

// ResponseType distinguishes conversational replies from turns where a
// downstream action was executed or delegated.
type ResponseType string

const (
	// ResponseChat carries clarification, confirmation, or cancellation
	// messaging; no side effect has happened yet.
	ResponseChat ResponseType = "ai_chat"
	// ResponseBrain means a downstream action was executed or delegated
	// to the general AI planner.
	ResponseBrain ResponseType = "ai_brain"
)

// Action is a UI-action descriptor the caller may render alongside the
// response text.
type Action struct {
	Type  string `json:"type"`
	Label string `json:"label,omitempty"`
}

const (
	ActionEscalateSupport = "escalate_support"
	ActionShowExamples    = "show_examples"
	ActionRetry           = "retry"
)

// ChatResponse is the single value every turn resolves to.
type ChatResponse struct {
	Type     ResponseType `json:"type"`
	Response string       `json:"response"`
	Actions  []Action     `json:"actions,omitempty"`
}
