// Package audit records domain events in the audit_log table.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	apperrors "dealership-workers/internal/common/errors"

	"github.com/google/uuid"
)

const (
	EventLeadCreated          = "lead_created"
	EventLeadStatusChanged    = "lead_status_changed"
	EventLeadAssigned         = "lead_assigned"
	EventLeadReassigned       = "lead_reassigned"
	EventAvailabilityChanged  = "advisor_availability_changed"
	EventAvailabilityRestored = "advisor_availability_restored"
)

type Entry struct {
	ID           string                 `json:"id"`
	TenantID     string                 `json:"tenantId"`
	EventType    string                 `json:"eventType"`
	ResourceType string                 `json:"resourceType"`
	ResourceID   string                 `json:"resourceId"`
	Details      map[string]interface{} `json:"details,omitempty"`
	CreatedAt    time.Time              `json:"createdAt"`
}

// Sink persists audit entries. Callers treat failures as non-critical.
type Sink interface {
	Record(ctx context.Context, entry Entry) error
}

type PostgresSink struct {
	db *sql.DB
}

func NewPostgresSink(db *sql.DB) *PostgresSink {
	return &PostgresSink{db: db}
}

func (s *PostgresSink) Record(ctx context.Context, entry Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	details, err := json.Marshal(entry.Details)
	if err != nil {
		details = []byte("{}")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audit_log (id, tenant_id, event_type, resource_type, resource_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID,
		entry.TenantID,
		entry.EventType,
		entry.ResourceType,
		entry.ResourceID,
		details,
		entry.CreatedAt,
	)
	if err != nil {
		return apperrors.NewQueryExecutionFailedError("insert audit entry", err)
	}
	return nil
}
