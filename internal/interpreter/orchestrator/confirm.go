package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"crm-assistant/internal/common/logger"
	"crm-assistant/internal/common/metrics"
	"crm-assistant/internal/models"
	"crm-assistant/internal/session"
)

type confirmation int

const (
	confirmUnknown confirmation = iota
	confirmYes
	confirmNo
)

var affirmatives = map[string]bool{
	"yes": true, "y": true, "yeah": true, "yep": true, "yup": true,
	"sure": true, "confirm": true, "confirmed": true, "ok": true,
	"okay": true, "go ahead": true, "proceed": true, "do it": true,
	"sounds good": true, "please do": true,
}

var negatives = map[string]bool{
	"no": true, "n": true, "nope": true, "nah": true, "cancel": true,
	"stop": true, "don't": true, "dont": true, "nevermind": true,
	"never mind": true, "forget it": true, "not now": true,
}

// interpretConfirmation matches a turn against the yes/no vocabulary.
// It is a token match, not an intent re-parse.
func interpretConfirmation(text string) confirmation {
	normalized := strings.ToLower(strings.TrimSpace(text))
	normalized = strings.Trim(normalized, ".,!?")
	switch {
	case affirmatives[normalized]:
		return confirmYes
	case negatives[normalized]:
		return confirmNo
	default:
		return confirmUnknown
	}
}

// handleConfirmationTurn interprets a turn while a pending action is
// staged: yes executes it, no cancels it, anything else re-asks.
func (o *Orchestrator) handleConfirmationTurn(ctx context.Context, in Input, pending *session.PendingAction, log logger.Logger) (*models.ChatResponse, string) {
	switch interpretConfirmation(in.UserText) {
	case confirmYes:
		return o.executePending(ctx, in, log)
	case confirmNo:
		if err := o.deps.Store.ClearPending(ctx, in.TenantID, in.ConversationID); err != nil {
			log.Warn("failed to clear pending slot", map[string]interface{}{"error": err.Error()})
		}
		if err := o.deps.Store.ResetFailures(ctx, in.TenantID, in.ConversationID); err != nil {
			log.Warn("failed to reset failure counter", map[string]interface{}{"error": err.Error()})
		}
		metrics.PendingActions.WithLabelValues("cancelled").Inc()
		log.Info("pending action cancelled", map[string]interface{}{"leadId": pending.LeadID})
		return &models.ChatResponse{
			Type:     models.ResponseChat,
			Response: fmt.Sprintf("Okay, I won't schedule the call with %s. Anything else?", pending.LeadName),
		}, "cancelled"
	default:
		// Do not drop the staged action on noise; ask again.
		return &models.ChatResponse{
			Type:     models.ResponseChat,
			Response: confirmationQuestion(pending),
		}, "confirmation_requested"
	}
}

// executePending consumes the pending slot atomically and books the
// event. Consuming first means a duplicate affirmative can never book
// twice; a failed create leaves the slot cleared rather than stuck.
func (o *Orchestrator) executePending(ctx context.Context, in Input, log logger.Logger) (*models.ChatResponse, string) {
	taken, err := o.deps.Store.TakePending(ctx, in.TenantID, in.ConversationID)
	if err != nil {
		return o.collaboratorFailure(ctx, in, log, "session", err,
			"I couldn't retrieve the request you were confirming. Please try again.")
	}
	if taken == nil {
		return &models.ChatResponse{
			Type:     models.ResponseChat,
			Response: "That request has already been handled. Is there anything else I can do?",
		}, "already_handled"
	}

	lead, err := o.deps.Leads.GetByID(ctx, in.TenantID, taken.LeadID)
	if err != nil {
		return o.collaboratorFailure(ctx, in, log, "leads", err,
			"I couldn't load the lead for that call. Please try scheduling again.")
	}
	if lead == nil {
		log.Warn("staged lead no longer exists", map[string]interface{}{"leadId": taken.LeadID})
		return &models.ChatResponse{
			Type:     models.ResponseChat,
			Response: fmt.Sprintf("I can't find %s anymore. Could you try scheduling the call again?", taken.LeadName),
		}, "failed"
	}

	eventID, err := o.deps.Calendar.CreateEvent(ctx, in.TenantID, lead, taken.ProposedTime)
	if err != nil {
		return o.collaboratorFailure(ctx, in, log, "calendar", err,
			"Something went wrong while booking the call. The request was not saved, please try scheduling again.")
	}

	metrics.PendingActions.WithLabelValues("confirmed").Inc()
	if err := o.deps.Store.ResetFailures(ctx, in.TenantID, in.ConversationID); err != nil {
		log.Warn("failed to reset failure counter", map[string]interface{}{"error": err.Error()})
	}

	log.Info("calendar event created", map[string]interface{}{
		"eventId": eventID,
		"leadId":  lead.ID,
	})

	return &models.ChatResponse{
		Type: models.ResponseBrain,
		Response: fmt.Sprintf("Done. I've scheduled the call with %s for %s.",
			lead.FullName(), taken.ProposedTime.Format(proposedTimeLayout)),
	}, "confirmed"
}
