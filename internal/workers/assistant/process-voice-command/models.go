// internal/workers/assistant/process-voice-command/models.go
package processvoicecommand

import "crm-assistant/internal/models"

type Input struct {
	TenantID       string `json:"tenantId"`
	ConversationID string `json:"conversationId"`
	Transcript     string `json:"transcript"`
}

type Output struct {
	ResponseType string          `json:"responseType"`
	Response     string          `json:"response"`
	Actions      []models.Action `json:"actions,omitempty"`
}
