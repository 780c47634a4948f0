// internal/workers/assistant/process-chat-command/validation.go
package processchatcommand

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

var inputSchema = map[string]interface{}{
	"type":     "object",
	"required": []string{"tenantId", "conversationId"},
	"properties": map[string]interface{}{
		"tenantId":       map[string]interface{}{"type": "string", "minLength": 1},
		"conversationId": map[string]interface{}{"type": "string", "minLength": 1},
		"userText":       map[string]interface{}{"type": "string"},
		"origin":         map[string]interface{}{"type": "string", "enum": []string{"text", "voice", ""}},
	},
}

func validateInput(input *Input) error {
	schemaLoader := gojsonschema.NewGoLoader(inputSchema)
	documentLoader := gojsonschema.NewGoLoader(input)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("input validation failed: %v", errs)
	}

	return nil
}
