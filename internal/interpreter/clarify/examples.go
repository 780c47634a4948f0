package clarify

import "crm-assistant/internal/interpreter/intent"

var generalExamples = []string{
	"Show me my leads from this week",
	"Summarize my open deals",
	"Schedule a call with a lead",
}

var examplesByEntity = map[intent.Entity][]string{
	intent.EntityLeads: {
		"Show me new leads from this week",
		"Find the lead from Acme Corp",
		"Schedule a call with a lead",
	},
	intent.EntityAccounts: {
		"List my accounts",
		"Show accounts with no recent activity",
		"Summarize the Acme account",
	},
	intent.EntityContacts: {
		"Find contacts at Acme Corp",
		"Create a new contact",
		"Show contacts I haven't talked to this month",
	},
	intent.EntityOpportunities: {
		"Show my open deals",
		"Forecast my pipeline for this quarter",
		"Summarize deals closing this month",
	},
	intent.EntityActivities: {
		"List my tasks for today",
		"Show meetings scheduled this week",
		"Log a call with a contact",
	},
}

// ContextualExamples returns example phrases tailored to the last-known
// entity, falling back to general examples.
func ContextualExamples(entity intent.Entity) []string {
	if examples, ok := examplesByEntity[entity]; ok {
		return examples
	}
	return generalExamples
}
