package models

import (
	"context"
	"strings"
	"time"
)

// Lead represents a CRM lead as seen by the assistant.
type Lead struct {
	ID        string    `json:"id" db:"id"`
	TenantID  string    `json:"tenantId" db:"tenant_id"`
	FirstName string    `json:"firstName" db:"first_name"`
	LastName  string    `json:"lastName" db:"last_name"`
	Company   string    `json:"company,omitempty" db:"company"`
	Email     string    `json:"email,omitempty" db:"email"`
	Phone     string    `json:"phone,omitempty" db:"phone"`
	Status    string    `json:"status,omitempty" db:"status"`
	OwnerID   string    `json:"ownerId,omitempty" db:"owner_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// FullName returns the display name used in confirmation prompts.
func (l *Lead) FullName() string {
	return strings.TrimSpace(l.FirstName + " " + l.LastName)
}

// LeadRepository defines lead data access used by the interpreter.
// FindByName resolves a free-text name to the best-matching lead for the
// tenant, returning nil when nothing matches.
type LeadRepository interface {
	FindByName(ctx context.Context, tenantID, name string) (*Lead, error)
	GetByID(ctx context.Context, tenantID, id string) (*Lead, error)
}
