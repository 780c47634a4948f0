// internal/workers/assistant/process-chat-command/handler.go
package processchatcommand

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"crm-assistant/internal/common/errors"
	"crm-assistant/internal/interpreter/orchestrator"
	"crm-assistant/internal/models"
)

const TaskType = "process-chat-command"

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// Interpreter is the conversational turn processor. It never fails a
// turn; collaborator problems surface inside the response.
type Interpreter interface {
	ProcessChatCommand(ctx context.Context, in orchestrator.Input) *models.ChatResponse
}

type Handler struct {
	config      *Config
	interpreter Interpreter
	logger      Logger
	errHandler  *errors.ErrorHandler
}

func NewHandler(config *Config, interpreter Interpreter, log Logger) *Handler {
	scoped := log.With(map[string]interface{}{
		"taskType": TaskType,
	})
	return &Handler{
		config:      config,
		interpreter: interpreter,
		logger:      scoped,
		errHandler:  errors.NewErrorHandler(scoped),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":             job.Key,
		"processInstanceKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		return h.failJob(client, job, errors.NewCommandInvalidError(fmt.Sprintf("parse input: %v", err)))
	}

	if err := validateInput(&input); err != nil {
		return h.failJob(client, job, errors.NewCommandInvalidError(err.Error()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	return h.completeJob(client, job, h.execute(ctx, &input))
}

func (h *Handler) execute(ctx context.Context, input *Input) *Output {
	response := h.interpreter.ProcessChatCommand(ctx, orchestrator.Input{
		TenantID:       input.TenantID,
		ConversationID: input.ConversationID,
		UserText:       input.UserText,
		Origin:         h.origin(input),
	})

	return &Output{
		ResponseType: string(response.Type),
		Response:     response.Response,
		Actions:      response.Actions,
	}
}

// origin resolves the turn origin; unrecognized values fall back to
// text so garble detection never misfires on typed input.
func (h *Handler) origin(input *Input) models.Origin {
	if input.Origin == string(models.OriginVoice) {
		return models.OriginVoice
	}
	return models.OriginText
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) error {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)

	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return err
	}

	if _, err = cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return err
	}

	h.logger.Info("job completed", map[string]interface{}{
		"jobKey":       job.Key,
		"responseType": output.ResponseType,
	})
	return nil
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, stdErr *errors.StandardError) error {
	h.errHandler.HandleJobError(context.Background(), client, job, stdErr)
	return stdErr
}
