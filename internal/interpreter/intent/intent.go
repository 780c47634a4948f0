// Package intent turns free-text CRM commands into normalized, typed
// intent records. Parsing is pure: no I/O, no clock, no randomness.
package intent

// Kind is the classified purpose of an utterance.
type Kind string

const (
	KindListRecords     Kind = "list_records"
	KindSummarize       Kind = "summarize"
	KindForecast        Kind = "forecast"
	KindCreate          Kind = "create"
	KindScheduleCall    Kind = "schedule_call"
	KindGenericQuestion Kind = "generic_question"
	KindAmbiguous       Kind = "ambiguous"
)

// Entity is the CRM object category a command targets.
type Entity string

const (
	EntityLeads         Entity = "leads"
	EntityAccounts      Entity = "accounts"
	EntityContacts      Entity = "contacts"
	EntityOpportunities Entity = "opportunities"
	EntityActivities    Entity = "activities"
	EntityGeneral       Entity = "general"
)

// Parsed is the normalized intent record for one input turn. It is created
// once per turn and never mutated; a new turn produces a new record.
type Parsed struct {
	RawText                  string            `json:"rawText"`
	Normalized               string            `json:"normalized"`
	Kind                     Kind              `json:"intent"`
	Entity                   Entity            `json:"entity"`
	Filters                  map[string]string `json:"filters,omitempty"`
	Confidence               float64           `json:"confidence"`
	IsAmbiguous              bool              `json:"isAmbiguous"`
	IsMultiStep              bool              `json:"isMultiStep"`
	IsPotentiallyDestructive bool              `json:"isPotentiallyDestructive"`
	DetectedPhrases          []string          `json:"detectedPhrases,omitempty"`
}
