// Package clarify gates parsed intents before the orchestrator acts on
// them. It decides whether a turn needs a clarification round-trip and
// composes the escalating fallback copy shown after repeated failures.
package clarify

import (
	"fmt"
	"strings"

	"crm-assistant/internal/interpreter/intent"
	"crm-assistant/internal/models"
)

// Reason identifies why a turn could not be acted on.
type Reason string

const (
	ReasonEmptyInput         Reason = "empty_input"
	ReasonVagueRequest       Reason = "vague_request"
	ReasonMissingDetails     Reason = "missing_details"
	ReasonDestructiveCommand Reason = "destructive_command"
	ReasonLowConfidence      Reason = "low_confidence"
)

// Clarification is present iff the turn is ambiguous.
type Clarification struct {
	Reason            Reason `json:"reason"`
	Hint              string `json:"hint"`
	CanRetry          bool   `json:"canRetry"`
	OfferTextFallback bool   `json:"offerTextFallback"`
}

// Result is the resolver verdict for one turn.
type Result struct {
	IsAmbiguous   bool
	Clarification *Clarification
}

// Options carries per-turn metadata that changes resolution behavior.
type Options struct {
	Origin models.Origin
}

// confidenceThreshold is the floor below which a parse is treated as
// too uncertain to act on.
const confidenceThreshold = 0.3

// destructiveMinLength is the client-side blocking threshold for
// destructive commands. Longer destructive commands that name a CRM
// entity are forwarded; the backend enforces its own confirmation step
// for those.
const destructiveMinLength = 25

// Single-token filler inputs that carry no actionable content.
var fillerVocabulary = map[string]bool{
	"hmm": true, "hm": true, "idk": true, "dunno": true, "ok": true,
	"okay": true, "sure": true, "maybe": true, "whatever": true,
	"do it": true, "go": true, "help": true, "huh": true, "eh": true,
	"meh": true, "hey": true, "hi": true, "hello": true,
}

var entityKeywords = []string{
	"lead", "leads", "prospect", "prospects",
	"account", "accounts", "company", "companies",
	"contact", "contacts", "person", "people",
	"opportunity", "opportunities", "deal", "deals", "pipeline",
	"activity", "activities", "task", "tasks", "meeting", "meetings",
}

// Resolve decides whether a parsed turn needs clarification. Rules are
// evaluated in precedence order; the first hit wins.
func Resolve(parsed *intent.Parsed, rawText string, opts Options) Result {
	trimmed := strings.TrimSpace(rawText)

	if trimmed == "" {
		return ambiguous(Clarification{
			Reason:   ReasonEmptyInput,
			Hint:     "Tell me what you'd like to do, for example \"show me my leads\".",
			CanRetry: true,
		})
	}

	if opts.Origin == models.OriginVoice && IsLikelyVoiceGarble(trimmed) {
		return ambiguous(Clarification{
			Reason:            ReasonVagueRequest,
			Hint:              "I couldn't make that out. You can also type your request instead.",
			CanRetry:          true,
			OfferTextFallback: true,
		})
	}

	if fillerVocabulary[strings.ToLower(trimmed)] {
		return ambiguous(Clarification{
			Reason:   ReasonVagueRequest,
			Hint:     "Could you be more specific about what you'd like to see or do?",
			CanRetry: true,
		})
	}

	if parsed != nil && parsed.IsPotentiallyDestructive {
		// Short destructive commands without a named entity are blocked
		// here. Longer ones naming a CRM entity pass through and are
		// confirmed server-side.
		if len(trimmed) < destructiveMinLength || !mentionsEntity(parsed.Normalized) {
			return ambiguous(Clarification{
				Reason:   ReasonMissingDetails,
				Hint:     "That sounds like it would change or remove data. Please spell out exactly what should be affected.",
				CanRetry: true,
			})
		}
	}

	if parsed != nil && parsed.Kind != intent.KindAmbiguous && parsed.Kind != intent.KindGenericQuestion && parsed.Entity == intent.EntityGeneral {
		return ambiguous(Clarification{
			Reason:   ReasonMissingDetails,
			Hint:     fmt.Sprintf("What should I %s? For example leads, contacts, or deals.", verbFor(parsed.Kind)),
			CanRetry: true,
		})
	}

	if parsed == nil || parsed.Confidence < confidenceThreshold {
		return ambiguous(Clarification{
			Reason:   ReasonLowConfidence,
			Hint:     "I'm not sure I understood. Could you rephrase that?",
			CanRetry: true,
		})
	}

	return Result{IsAmbiguous: false}
}

func ambiguous(c Clarification) Result {
	return Result{IsAmbiguous: true, Clarification: &c}
}

func mentionsEntity(normalized string) bool {
	for _, tok := range strings.Fields(normalized) {
		word := strings.Trim(tok, ".,!?;:'\"")
		for _, kw := range entityKeywords {
			if word == kw {
				return true
			}
		}
	}
	return false
}

func verbFor(kind intent.Kind) string {
	switch kind {
	case intent.KindListRecords:
		return "show you"
	case intent.KindSummarize:
		return "summarize"
	case intent.KindForecast:
		return "forecast"
	case intent.KindCreate:
		return "create"
	case intent.KindScheduleCall:
		return "schedule"
	default:
		return "look up"
	}
}
