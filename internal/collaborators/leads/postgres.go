// Package leads resolves lead names mentioned in commands to CRM lead
// records. The Postgres repository is authoritative; the optional
// Elasticsearch searcher widens matching for misheard voice names.
package leads

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"crm-assistant/internal/common/errors"
	"crm-assistant/internal/models"
)

const leadColumns = `id, tenant_id, first_name, last_name, company, email, phone, status, owner_id, created_at, updated_at`

// PostgresRepository looks leads up in the CRM database. All queries
// are tenant-scoped.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// FindByName resolves a spoken or typed name to a lead. Exact
// first-name/full-name matches are tried before a prefix ILIKE fuzzy
// pass. Returns nil without error when nothing matches.
func (r *PostgresRepository) FindByName(ctx context.Context, tenantID, name string) (*models.Lead, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT %s FROM leads
		WHERE tenant_id = $1
		  AND (LOWER(first_name) = LOWER($2)
		       OR LOWER(first_name || ' ' || last_name) = LOWER($2))
		ORDER BY updated_at DESC
		LIMIT 1`, leadColumns)

	lead, err := r.queryOne(ctx, query, tenantID, name)
	if err != nil {
		return nil, err
	}
	if lead != nil {
		return lead, nil
	}

	fuzzy := fmt.Sprintf(`
		SELECT %s FROM leads
		WHERE tenant_id = $1
		  AND (first_name ILIKE $2 || '%%' OR last_name ILIKE $2 || '%%')
		ORDER BY updated_at DESC
		LIMIT 1`, leadColumns)

	return r.queryOne(ctx, fuzzy, tenantID, name)
}

func (r *PostgresRepository) GetByID(ctx context.Context, tenantID, id string) (*models.Lead, error) {
	query := fmt.Sprintf(`SELECT %s FROM leads WHERE tenant_id = $1 AND id = $2`, leadColumns)
	return r.queryOne(ctx, query, tenantID, id)
}

func (r *PostgresRepository) queryOne(ctx context.Context, query string, args ...interface{}) (*models.Lead, error) {
	var lead models.Lead
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&lead.ID,
		&lead.TenantID,
		&lead.FirstName,
		&lead.LastName,
		&lead.Company,
		&lead.Email,
		&lead.Phone,
		&lead.Status,
		&lead.OwnerID,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewLeadLookupFailedError(err)
	}
	return &lead, nil
}
