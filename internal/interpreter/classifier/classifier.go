// Package classifier is the fast-path ahead of the general intent parser.
// It holds a small curated list of compiled patterns for business-critical
// intents where regex matching is cheaper and more precise than tuning
// parser confidence thresholds.
package classifier

import (
	"regexp"

	"crm-assistant/internal/interpreter/intent"
)

// Match is a fast-path classification hit.
type Match struct {
	Intent     intent.Kind
	Confidence float64
}

type pattern struct {
	intent     intent.Kind
	confidence float64
	re         *regexp.Regexp
}

// Evaluated top-down; the first matching pattern wins. Adding a new
// fast-path intent means appending an entry here, the general parser
// is untouched.
var patterns = []pattern{
	{
		intent:     intent.KindScheduleCall,
		confidence: 0.95,
		// Scheduling verb and meeting noun, in either order.
		re: regexp.MustCompile(`(?i)(\b(schedule|book|set up|arrange|plan)\b.*\b(call|meeting|demo|intro|appointment)\b|\b(call|meeting|demo|intro|appointment)\b.*\b(schedule|book|set up|arrange|plan)\b)`),
	},
}

// Classify returns a fast-path match, or nil to fall through to the
// general parser.
func Classify(text string) *Match {
	for _, p := range patterns {
		if p.re.MatchString(text) {
			return &Match{Intent: p.intent, Confidence: p.confidence}
		}
	}
	return nil
}
