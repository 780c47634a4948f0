// Package orchestrator drives one conversational turn end to end:
// fast-path classification, general parsing, ambiguity gating, the
// pending-action confirmation state machine, and collaborator calls.
// Nothing below this boundary surfaces an error to the caller; every
// path resolves to a well-formed chat response.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"crm-assistant/internal/collaborators/brain"
	"crm-assistant/internal/collaborators/extract"
	"crm-assistant/internal/common/logger"
	"crm-assistant/internal/common/metrics"
	"crm-assistant/internal/common/notify"
	"crm-assistant/internal/interpreter/clarify"
	"crm-assistant/internal/interpreter/classifier"
	"crm-assistant/internal/interpreter/intent"
	"crm-assistant/internal/models"
	"crm-assistant/internal/session"
)

// escalateAfter is the consecutive-failure count at which the fallback
// offers human support.
const escalateAfter = 3

// Extractor pulls a lead name and datetime out of scheduling text.
type Extractor interface {
	ExtractDateTimeAndLead(ctx context.Context, text string) (*extract.Extraction, error)
}

// Calendar checks slot availability and books events.
type Calendar interface {
	CheckConflict(ctx context.Context, tenantID string, start time.Time) (bool, error)
	CreateEvent(ctx context.Context, tenantID string, lead *models.Lead, start time.Time) (string, error)
}

// Planner produces generative answers for non-scheduling commands.
type Planner interface {
	Generate(ctx context.Context, req brain.Request) (string, error)
}

// Notifier hands repeatedly failing conversations to human support.
type Notifier interface {
	EscalateSupport(ctx context.Context, esc notify.Escalation) error
}

// TurnRecorder mirrors turn outcomes into the OTel pipeline.
type TurnRecorder interface {
	RecordTurnProcessed(ctx context.Context, outcome string)
	RecordTurnDuration(ctx context.Context, duration time.Duration, outcome string)
}

// Input is one conversational turn.
type Input struct {
	TenantID       string
	ConversationID string
	UserText       string
	Origin         models.Origin
}

// Dependencies wires the orchestrator's collaborators. Notifier and
// Recorder may be nil; escalation delivery and OTel mirroring are then
// skipped.
type Dependencies struct {
	Leads     models.LeadRepository
	Extractor Extractor
	Calendar  Calendar
	Planner   Planner
	Notifier  Notifier
	Recorder  TurnRecorder
	Store     session.ConversationStore
	Logger    logger.Logger
}

type Orchestrator struct {
	deps Dependencies
}

func New(deps Dependencies) *Orchestrator {
	return &Orchestrator{deps: deps}
}

// ProcessChatCommand handles one turn. It never returns an error;
// collaborator failures are logged and converted to plain-language
// replies.
func (o *Orchestrator) ProcessChatCommand(ctx context.Context, in Input) *models.ChatResponse {
	start := time.Now()
	resp, outcome := o.process(ctx, in)
	elapsed := time.Since(start)
	metrics.TurnsProcessed.WithLabelValues(outcome).Inc()
	metrics.TurnDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
	if o.deps.Recorder != nil {
		o.deps.Recorder.RecordTurnProcessed(ctx, outcome)
		o.deps.Recorder.RecordTurnDuration(ctx, elapsed, outcome)
	}
	return resp
}

func (o *Orchestrator) process(ctx context.Context, in Input) (*models.ChatResponse, string) {
	log := o.deps.Logger.With(map[string]interface{}{
		"turnId":         uuid.NewString(),
		"tenantId":       in.TenantID,
		"conversationId": in.ConversationID,
		"origin":         string(in.Origin),
	})

	// A fresh scheduling request always starts a new scheduling flow,
	// superseding whatever is pending.
	if match := classifier.Classify(in.UserText); match != nil {
		log.Info("fast-path intent matched", map[string]interface{}{
			"intent":     string(match.Intent),
			"confidence": match.Confidence,
		})
		return o.handleScheduling(ctx, in, log)
	}

	pending, err := o.deps.Store.Pending(ctx, in.TenantID, in.ConversationID)
	if err != nil {
		return o.collaboratorFailure(ctx, in, log, "session", err,
			"I'm having trouble keeping track of our conversation right now. Please try again in a moment.")
	}
	if pending != nil {
		return o.handleConfirmationTurn(ctx, in, pending, log)
	}

	parsed := intent.Parse(in.UserText)
	resolution := clarify.Resolve(&parsed, in.UserText, clarify.Options{Origin: in.Origin})
	if resolution.IsAmbiguous {
		return o.handleAmbiguous(ctx, in, &parsed, resolution.Clarification, log)
	}

	return o.handleActionable(ctx, in, &parsed, log)
}

// handleActionable delegates an understood, non-scheduling command to
// the generative answer service.
func (o *Orchestrator) handleActionable(ctx context.Context, in Input, parsed *intent.Parsed, log logger.Logger) (*models.ChatResponse, string) {
	answer, err := o.deps.Planner.Generate(ctx, brain.Request{
		TenantID: in.TenantID,
		UserText: in.UserText,
		Intent:   parsed.Kind,
		Entity:   parsed.Entity,
		Filters:  parsed.Filters,
	})
	if err != nil {
		return o.collaboratorFailure(ctx, in, log, "brain", err,
			"I understood your request but couldn't complete it just now. Please try again.")
	}

	if err := o.deps.Store.ResetFailures(ctx, in.TenantID, in.ConversationID); err != nil {
		log.Warn("failed to reset failure counter", map[string]interface{}{"error": err.Error()})
	}
	return &models.ChatResponse{Type: models.ResponseBrain, Response: answer}, "answered"
}

// handleAmbiguous composes the clarification or escalating fallback
// reply and bumps the consecutive-failure counter.
func (o *Orchestrator) handleAmbiguous(ctx context.Context, in Input, parsed *intent.Parsed, c *clarify.Clarification, log logger.Logger) (*models.ChatResponse, string) {
	metrics.Clarifications.WithLabelValues(string(c.Reason)).Inc()

	count, err := o.deps.Store.BumpFailures(ctx, in.TenantID, in.ConversationID)
	if err != nil {
		log.Warn("failed to bump failure counter", map[string]interface{}{"error": err.Error()})
		count = 1
	}

	log.Info("turn needs clarification", map[string]interface{}{
		"reason":       string(c.Reason),
		"failureCount": count,
	})

	if count >= 2 {
		fb := clarify.BuildFallbackMessage(parsed, in.UserText, count)
		if count >= escalateAfter {
			o.escalate(ctx, in, count, log)
		}
		return &models.ChatResponse{Type: models.ResponseChat, Response: fb.Message, Actions: fb.Actions}, "clarification"
	}

	message := c.Hint
	if c.OfferTextFallback {
		message += " If it's easier, feel free to type your request."
	}
	return &models.ChatResponse{Type: models.ResponseChat, Response: message}, "clarification"
}

func (o *Orchestrator) escalate(ctx context.Context, in Input, count int, log logger.Logger) {
	metrics.Escalations.Inc()
	if o.deps.Notifier == nil {
		return
	}
	err := o.deps.Notifier.EscalateSupport(ctx, notify.Escalation{
		TenantID:       in.TenantID,
		ConversationID: in.ConversationID,
		LastUserText:   in.UserText,
		FailureCount:   count,
	})
	if err != nil {
		log.Error("support escalation delivery failed", map[string]interface{}{"error": err.Error()})
	}
}

// collaboratorFailure logs an external-call failure and converts it to
// a plain-language reply. Failed turns count toward escalation.
func (o *Orchestrator) collaboratorFailure(ctx context.Context, in Input, log logger.Logger, service string, err error, message string) (*models.ChatResponse, string) {
	metrics.CollaboratorErrors.WithLabelValues(service).Inc()
	log.Error("collaborator call failed", map[string]interface{}{
		"service": service,
		"error":   err.Error(),
	})

	count, bumpErr := o.deps.Store.BumpFailures(ctx, in.TenantID, in.ConversationID)
	if bumpErr != nil {
		log.Warn("failed to bump failure counter", map[string]interface{}{"error": bumpErr.Error()})
	} else if count >= escalateAfter {
		message = fmt.Sprintf("%s If this keeps happening, you can contact support and a person will help you out.", message)
		o.escalate(ctx, in, count, log)
		return &models.ChatResponse{
			Type:     models.ResponseChat,
			Response: message,
			Actions:  []models.Action{{Type: models.ActionEscalateSupport, Label: "Contact support"}},
		}, "failed"
	}

	return &models.ChatResponse{
		Type:     models.ResponseChat,
		Response: message,
		Actions:  []models.Action{{Type: models.ActionRetry, Label: "Try again"}},
	}, "failed"
}
