package intent

import (
	"strings"
)

// lowConfidenceCap bounds the score for inputs too short to trust,
// regardless of keyword hits.
const lowConfidenceCap = 0.25

// ambiguousThreshold marks a parse as ambiguous below this confidence.
const ambiguousThreshold = 0.3

// entityFamilies are evaluated in declaration order; the first family with
// a keyword hit wins.
var entityFamilies = []struct {
	entity   Entity
	keywords []string
}{
	{EntityLeads, []string{"lead", "leads", "prospect", "prospects"}},
	{EntityOpportunities, []string{"opportunity", "opportunities", "deal", "deals", "pipeline"}},
	{EntityAccounts, []string{"account", "accounts", "company", "companies"}},
	{EntityContacts, []string{"contact", "contacts", "customer", "customers", "person", "people"}},
	{EntityActivities, []string{"activity", "activities", "task", "tasks", "meeting", "meetings", "appointment", "appointments"}},
}

// kindFamilies are evaluated in declaration order as well. Scheduling is
// first so "schedule a call" wins over the activity noun it contains.
var kindFamilies = []struct {
	kind     Kind
	keywords []string
}{
	{KindScheduleCall, []string{"schedule", "book", "set up", "arrange"}},
	{KindSummarize, []string{"summarize", "summarise", "summary", "recap", "overview"}},
	{KindForecast, []string{"forecast", "projection", "predict", "trend"}},
	{KindCreate, []string{"create", "add", "new", "log a", "register"}},
	{KindListRecords, []string{"list", "show", "display", "view", "find", "search", "get", "give me"}},
}

var destructiveVerbs = []string{"delete", "remove", "purge", "erase", "drop", "wipe", "clear out"}

var actionVerbs = []string{
	"schedule", "book", "create", "add", "delete", "remove", "update",
	"show", "list", "find", "send", "summarize", "forecast", "call", "email",
}

var questionWords = []string{"what", "who", "how", "why", "when", "where", "which"}

var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "me": true, "my": true, "of": true,
	"to": true, "for": true, "in": true, "on": true, "at": true, "is": true,
	"are": true, "do": true, "it": true, "and": true, "with": true,
	"please": true, "can": true, "you": true,
}

var dateRangePhrases = []string{
	"today", "yesterday", "tomorrow",
	"this week", "last week", "next week",
	"this month", "last month", "next month",
	"this quarter", "last quarter",
	"this year", "last year",
}

var statusKeywords = []string{"open", "closed", "won", "lost", "new", "qualified"}

// Parse converts raw text into a normalized intent record. It is total:
// unparseable input yields KindAmbiguous with confidence <= 0.3.
func Parse(text string) Parsed {
	normalized := strings.ToLower(strings.TrimSpace(text))

	p := Parsed{
		RawText:    text,
		Normalized: normalized,
		Kind:       KindAmbiguous,
		Entity:     EntityGeneral,
		Filters:    map[string]string{},
	}

	if normalized == "" {
		p.IsAmbiguous = true
		return p
	}

	tokens := strings.Fields(normalized)

	// Entity: first family with a hit wins, ties broken by declaration order.
	for _, family := range entityFamilies {
		if phrase, ok := matchKeywords(normalized, tokens, family.keywords); ok {
			p.Entity = family.entity
			p.DetectedPhrases = append(p.DetectedPhrases, phrase)
			break
		}
	}

	// Action kind, same first-match rule.
	for _, family := range kindFamilies {
		if phrase, ok := matchKeywords(normalized, tokens, family.keywords); ok {
			p.Kind = family.kind
			p.DetectedPhrases = append(p.DetectedPhrases, phrase)
			break
		}
	}

	if p.Kind == KindAmbiguous && isQuestion(normalized, tokens) {
		p.Kind = KindGenericQuestion
	}

	for _, verb := range destructiveVerbs {
		if containsPhrase(normalized, tokens, verb) {
			p.IsPotentiallyDestructive = true
			p.DetectedPhrases = append(p.DetectedPhrases, verb)
			break
		}
	}

	p.IsMultiStep = isMultiStep(normalized, tokens)
	p.Filters = extractFilters(normalized)
	p.Confidence = scoreConfidence(&p, tokens)
	p.IsAmbiguous = p.Kind == KindAmbiguous || p.Confidence < ambiguousThreshold

	return p
}

// matchKeywords returns the first keyword present in the text. Single
// words must match a whole token; multi-word keywords match as substrings.
func matchKeywords(normalized string, tokens []string, keywords []string) (string, bool) {
	for _, kw := range keywords {
		if containsPhrase(normalized, tokens, kw) {
			return kw, true
		}
	}
	return "", false
}

func containsPhrase(normalized string, tokens []string, phrase string) bool {
	if strings.Contains(phrase, " ") {
		return strings.Contains(normalized, phrase)
	}
	for _, tok := range tokens {
		if strings.Trim(tok, ".,!?;:'\"") == phrase {
			return true
		}
	}
	return false
}

func isQuestion(normalized string, tokens []string) bool {
	if strings.HasSuffix(normalized, "?") {
		return true
	}
	if len(tokens) == 0 {
		return false
	}
	first := strings.Trim(tokens[0], ".,!?;:'\"")
	for _, qw := range questionWords {
		if first == qw {
			return true
		}
	}
	return false
}

// isMultiStep flags inputs chaining several action verbs with conjunctions.
func isMultiStep(normalized string, tokens []string) bool {
	if !strings.Contains(normalized, " and ") && !strings.Contains(normalized, " then ") {
		return false
	}
	count := 0
	for _, verb := range actionVerbs {
		if containsPhrase(normalized, tokens, verb) {
			count++
		}
	}
	return count >= 2
}

func extractFilters(normalized string) map[string]string {
	filters := map[string]string{}

	for _, phrase := range dateRangePhrases {
		if strings.Contains(normalized, phrase) {
			filters["dateRange"] = phrase
			break
		}
	}

	if strings.Contains(normalized, "my ") || strings.Contains(normalized, "assigned to me") {
		filters["owner"] = "me"
	}

	tokens := strings.Fields(normalized)
	for _, status := range statusKeywords {
		if containsPhrase(normalized, tokens, status) {
			filters["status"] = status
			break
		}
	}

	return filters
}

// scoreConfidence combines input length, keyword hits, and the presence of
// an explicit entity+action pair.
func scoreConfidence(p *Parsed, tokens []string) float64 {
	score := 0.1

	if p.Entity != EntityGeneral {
		score += 0.25
	}
	if p.Kind != KindAmbiguous {
		score += 0.25
	}
	if p.Entity != EntityGeneral && p.Kind != KindAmbiguous && p.Kind != KindGenericQuestion {
		// Explicit entity+action pair.
		score += 0.2
	}

	hits := len(p.DetectedPhrases)
	if hits > 4 {
		hits = 4
	}
	score += 0.05 * float64(hits)

	// Short inputs are capped regardless of keyword match.
	if countContentTokens(tokens) < 3 {
		if score > lowConfidenceCap {
			score = lowConfidenceCap
		}
	}

	if score > 1 {
		score = 1
	}
	return score
}

func countContentTokens(tokens []string) int {
	n := 0
	for _, tok := range tokens {
		if !stopwords[strings.Trim(tok, ".,!?;:'\"")] {
			n++
		}
	}
	return n
}
