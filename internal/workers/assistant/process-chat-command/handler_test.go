// internal/workers/assistant/process-chat-command/handler_test.go
package processchatcommand

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"crm-assistant/internal/interpreter/orchestrator"
	"crm-assistant/internal/models"
)

// TestLogger implements the Logger interface for testing
type TestLogger struct {
	t      *testing.T
	fields map[string]interface{}
}

func NewTestLogger(t *testing.T) *TestLogger {
	return &TestLogger{t: t, fields: make(map[string]interface{})}
}

func (l *TestLogger) Info(msg string, fields map[string]interface{}) {
	l.t.Logf("INFO: %s %v", msg, fields)
}

func (l *TestLogger) Warn(msg string, fields map[string]interface{}) {
	l.t.Logf("WARN: %s %v", msg, fields)
}

func (l *TestLogger) Error(msg string, fields map[string]interface{}) {
	l.t.Logf("ERROR: %s %v", msg, fields)
}

func (l *TestLogger) With(fields map[string]interface{}) Logger {
	return l
}

type fakeInterpreter struct {
	lastInput orchestrator.Input
	response  *models.ChatResponse
}

func (f *fakeInterpreter) ProcessChatCommand(_ context.Context, in orchestrator.Input) *models.ChatResponse {
	f.lastInput = in
	return f.response
}

func TestHandler_Execute(t *testing.T) {
	interpreter := &fakeInterpreter{
		response: &models.ChatResponse{
			Type:     models.ResponseBrain,
			Response: "You have 4 new leads this week.",
		},
	}
	handler := NewHandler(LoadConfig(), interpreter, NewTestLogger(t))

	output := handler.execute(context.Background(), &Input{
		TenantID:       "t1",
		ConversationID: "c1",
		UserText:       "show me my leads",
	})

	assert.Equal(t, "ai_brain", output.ResponseType)
	assert.Equal(t, "You have 4 new leads this week.", output.Response)
	assert.Empty(t, output.Actions)

	assert.Equal(t, "t1", interpreter.lastInput.TenantID)
	assert.Equal(t, "c1", interpreter.lastInput.ConversationID)
	assert.Equal(t, models.OriginText, interpreter.lastInput.Origin)
}

func TestHandler_Execute_CarriesActions(t *testing.T) {
	interpreter := &fakeInterpreter{
		response: &models.ChatResponse{
			Type:     models.ResponseChat,
			Response: "You can contact support.",
			Actions: []models.Action{
				{Type: models.ActionEscalateSupport, Label: "Contact support"},
			},
		},
	}
	handler := NewHandler(LoadConfig(), interpreter, NewTestLogger(t))

	output := handler.execute(context.Background(), &Input{
		TenantID:       "t1",
		ConversationID: "c1",
		UserText:       "hmm",
	})

	assert.Equal(t, "ai_chat", output.ResponseType)
	assert.Len(t, output.Actions, 1)
	assert.Equal(t, models.ActionEscalateSupport, output.Actions[0].Type)
}

func TestHandler_OriginMapping(t *testing.T) {
	handler := NewHandler(LoadConfig(), &fakeInterpreter{response: &models.ChatResponse{}}, NewTestLogger(t))

	tests := []struct {
		raw      string
		expected models.Origin
	}{
		{"voice", models.OriginVoice},
		{"text", models.OriginText},
		{"", models.OriginText},
		{"carrier-pigeon", models.OriginText},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, handler.origin(&Input{Origin: tt.raw}))
	}
}

func TestValidateInput(t *testing.T) {
	tests := []struct {
		name    string
		input   *Input
		wantErr bool
	}{
		{
			name:  "valid input",
			input: &Input{TenantID: "t1", ConversationID: "c1", UserText: "show me leads"},
		},
		{
			name:  "empty user text is allowed",
			input: &Input{TenantID: "t1", ConversationID: "c1"},
		},
		{
			name:    "missing tenant",
			input:   &Input{ConversationID: "c1", UserText: "show me leads"},
			wantErr: true,
		},
		{
			name:    "missing conversation",
			input:   &Input{TenantID: "t1", UserText: "show me leads"},
			wantErr: true,
		},
		{
			name:    "unknown origin",
			input:   &Input{TenantID: "t1", ConversationID: "c1", Origin: "smoke-signal"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateInput(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
