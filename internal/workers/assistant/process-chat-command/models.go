// internal/workers/assistant/process-chat-command/models.go
package processchatcommand

import "crm-assistant/internal/models"

type Input struct {
	TenantID       string `json:"tenantId"`
	ConversationID string `json:"conversationId"`
	UserText       string `json:"userText"`
	Origin         string `json:"origin,omitempty"`
}

type Output struct {
	ResponseType string          `json:"responseType"`
	Response     string          `json:"response"`
	Actions      []models.Action `json:"actions,omitempty"`
}
