// internal/workers/assistant/process-voice-command/handler_test.go
package processvoicecommand

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"crm-assistant/internal/interpreter/orchestrator"
	"crm-assistant/internal/models"
)

// TestLogger implements the Logger interface for testing
type TestLogger struct {
	t *testing.T
}

func NewTestLogger(t *testing.T) *TestLogger { return &TestLogger{t: t} }

func (l *TestLogger) Info(msg string, fields map[string]interface{}) {
	l.t.Logf("INFO: %s %v", msg, fields)
}

func (l *TestLogger) Warn(msg string, fields map[string]interface{}) {
	l.t.Logf("WARN: %s %v", msg, fields)
}

func (l *TestLogger) Error(msg string, fields map[string]interface{}) {
	l.t.Logf("ERROR: %s %v", msg, fields)
}

func (l *TestLogger) With(fields map[string]interface{}) Logger { return l }

type fakeInterpreter struct {
	lastInput orchestrator.Input
	response  *models.ChatResponse
}

func (f *fakeInterpreter) ProcessChatCommand(_ context.Context, in orchestrator.Input) *models.ChatResponse {
	f.lastInput = in
	return f.response
}

func TestHandler_Execute_ForcesVoiceOrigin(t *testing.T) {
	interpreter := &fakeInterpreter{
		response: &models.ChatResponse{
			Type:     models.ResponseChat,
			Response: "I couldn't make that out. You can also type your request instead.",
		},
	}
	handler := NewHandler(LoadConfig(), interpreter, NewTestLogger(t))

	output := handler.execute(context.Background(), &Input{
		TenantID:       "t1",
		ConversationID: "c1",
		Transcript:     "aaaa",
	})

	assert.Equal(t, models.OriginVoice, interpreter.lastInput.Origin)
	assert.Equal(t, "aaaa", interpreter.lastInput.UserText)
	assert.Equal(t, "ai_chat", output.ResponseType)
}

func TestValidateInput(t *testing.T) {
	assert.NoError(t, validateInput(&Input{TenantID: "t1", ConversationID: "c1", Transcript: "show me leads"}))
	assert.NoError(t, validateInput(&Input{TenantID: "t1", ConversationID: "c1"}))
	assert.Error(t, validateInput(&Input{ConversationID: "c1"}))
	assert.Error(t, validateInput(&Input{TenantID: "t1"}))
}
