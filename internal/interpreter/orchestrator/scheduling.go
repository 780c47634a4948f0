package orchestrator

import (
	"context"
	"fmt"
	"time"

	"crm-assistant/internal/common/logger"
	"crm-assistant/internal/common/metrics"
	"crm-assistant/internal/interpreter/clarify"
	"crm-assistant/internal/interpreter/intent"
	"crm-assistant/internal/models"
	"crm-assistant/internal/session"
)

const proposedTimeLayout = "Monday, January 2 at 3:04 PM"

// handleScheduling runs the scheduling flow: extract, resolve the
// lead, check the slot, stage a pending action, ask for confirmation.
// Each step gates the next; the calls are strictly sequential.
func (o *Orchestrator) handleScheduling(ctx context.Context, in Input, log logger.Logger) (*models.ChatResponse, string) {
	extraction, err := o.deps.Extractor.ExtractDateTimeAndLead(ctx, in.UserText)
	if err != nil {
		return o.collaboratorFailure(ctx, in, log, "extractor", err,
			"I couldn't work out the details of that request just now. Please try again.")
	}
	if extraction == nil {
		return o.schedulingClarification(ctx, in, clarify.ReasonMissingDetails, log,
			"Who would you like to schedule the call with, and when? For example \"schedule a call with Jennifer Monday at 3pm\".")
	}

	lead, err := o.deps.Leads.FindByName(ctx, in.TenantID, extraction.LeadName)
	if err != nil {
		return o.collaboratorFailure(ctx, in, log, "leads", err,
			"I couldn't look that lead up just now. Please try again.")
	}
	if lead == nil {
		log.Info("lead name did not resolve", map[string]interface{}{"leadName": extraction.LeadName})
		return o.schedulingClarification(ctx, in, clarify.ReasonMissingDetails, log,
			fmt.Sprintf("I couldn't find a lead named %q. Could you give me the full name?", extraction.LeadName))
	}

	hasConflict, err := o.deps.Calendar.CheckConflict(ctx, in.TenantID, extraction.Datetime)
	if err != nil {
		// An existing pending action survives a failed check so the
		// user can retry without re-stating the request.
		return o.collaboratorFailure(ctx, in, log, "calendar", err,
			"I couldn't check the calendar just now. Please try again.")
	}
	if hasConflict {
		if err := o.deps.Store.ResetFailures(ctx, in.TenantID, in.ConversationID); err != nil {
			log.Warn("failed to reset failure counter", map[string]interface{}{"error": err.Error()})
		}
		return &models.ChatResponse{
			Type: models.ResponseChat,
			Response: fmt.Sprintf("There's a conflict with %s on %s. Would you like to pick another time?",
				lead.FullName(), extraction.Datetime.Format(proposedTimeLayout)),
		}, "conflict"
	}

	previous, err := o.deps.Store.Pending(ctx, in.TenantID, in.ConversationID)
	if err != nil {
		log.Warn("failed to read pending slot", map[string]interface{}{"error": err.Error()})
	}

	action := session.PendingAction{
		Kind:         string(intent.KindScheduleCall),
		LeadID:       lead.ID,
		LeadName:     lead.FullName(),
		ProposedTime: extraction.Datetime,
		CreatedAt:    time.Now().UTC(),
	}
	if err := o.deps.Store.StagePending(ctx, in.TenantID, in.ConversationID, action); err != nil {
		return o.collaboratorFailure(ctx, in, log, "session", err,
			"I couldn't hold on to that request just now. Please try again.")
	}

	if previous != nil {
		metrics.PendingActions.WithLabelValues("superseded").Inc()
	}
	metrics.PendingActions.WithLabelValues("staged").Inc()

	if err := o.deps.Store.ResetFailures(ctx, in.TenantID, in.ConversationID); err != nil {
		log.Warn("failed to reset failure counter", map[string]interface{}{"error": err.Error()})
	}

	log.Info("pending action staged", map[string]interface{}{
		"leadId":       lead.ID,
		"proposedTime": extraction.Datetime.Format(time.RFC3339),
	})

	return &models.ChatResponse{
		Type:     models.ResponseChat,
		Response: confirmationQuestion(&action),
	}, "confirmation_requested"
}

// schedulingClarification replies when the scheduling flow cannot
// proceed for input reasons rather than collaborator failures.
func (o *Orchestrator) schedulingClarification(ctx context.Context, in Input, reason clarify.Reason, log logger.Logger, message string) (*models.ChatResponse, string) {
	metrics.Clarifications.WithLabelValues(string(reason)).Inc()

	count, err := o.deps.Store.BumpFailures(ctx, in.TenantID, in.ConversationID)
	if err != nil {
		log.Warn("failed to bump failure counter", map[string]interface{}{"error": err.Error()})
		count = 1
	}
	if count >= escalateAfter {
		fb := clarify.BuildFallbackMessage(nil, in.UserText, count)
		o.escalate(ctx, in, count, log)
		return &models.ChatResponse{Type: models.ResponseChat, Response: fb.Message, Actions: fb.Actions}, "clarification"
	}

	return &models.ChatResponse{Type: models.ResponseChat, Response: message}, "clarification"
}

func confirmationQuestion(action *session.PendingAction) string {
	return fmt.Sprintf("I found %s. Should I proceed with scheduling a call on %s?",
		action.LeadName, action.ProposedTime.Format(proposedTimeLayout))
}
