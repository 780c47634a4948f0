// Package session holds per-conversation interpreter state: the single
// pending-action slot awaiting confirmation and the consecutive-failure
// counter that drives fallback escalation.
package session

import (
	"context"
	"time"
)

// PendingAction is the one staged, unconfirmed side effect a
// conversation may hold. Staging a new action replaces any existing one.
type PendingAction struct {
	Kind         string    `json:"kind"`
	LeadID       string    `json:"leadId"`
	LeadName     string    `json:"leadName"`
	ProposedTime time.Time `json:"proposedTime"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ConversationStore persists interpreter state across turns. Pending
// reads never consume; TakePending atomically consumes so that two
// concurrent confirmations cannot both execute the staged action.
type ConversationStore interface {
	Pending(ctx context.Context, tenantID, conversationID string) (*PendingAction, error)
	StagePending(ctx context.Context, tenantID, conversationID string, action PendingAction) error
	TakePending(ctx context.Context, tenantID, conversationID string) (*PendingAction, error)
	ClearPending(ctx context.Context, tenantID, conversationID string) error

	Failures(ctx context.Context, tenantID, conversationID string) (int, error)
	BumpFailures(ctx context.Context, tenantID, conversationID string) (int, error)
	ResetFailures(ctx context.Context, tenantID, conversationID string) error
}
