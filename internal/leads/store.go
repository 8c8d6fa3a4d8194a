package leads

import (
	"context"
	"database/sql"
	"errors"

	apperrors "dealership-workers/internal/common/errors"
	"dealership-workers/internal/models"

	"github.com/lib/pq"
)

// Store is the tenant-scoped lead repository.
type Store interface {
	FindByPhone(ctx context.Context, tenantID, phone string) (*models.Lead, error)
	Get(ctx context.Context, tenantID, id string) (*models.Lead, error)
	Create(ctx context.Context, lead *models.Lead) error
	Update(ctx context.Context, lead *models.Lead) error
	ListActiveByAdvisor(ctx context.Context, tenantID, advisorID string) ([]models.Lead, error)
}

const leadColumns = `id, tenant_id, phone, name, source, initial_message, quality, status, advisor_id, created_at, updated_at`

const uniqueViolation = "23505"

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) FindByPhone(ctx context.Context, tenantID, phone string) (*models.Lead, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE tenant_id = $1 AND phone = $2`, tenantID, phone)
	return scanLead(row, "find lead by phone", phone)
}

func (s *PostgresStore) Get(ctx context.Context, tenantID, id string) (*models.Lead, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	return scanLead(row, "get lead", id)
}

func (s *PostgresStore) Create(ctx context.Context, lead *models.Lead) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO leads (`+leadColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		lead.ID,
		lead.TenantID,
		lead.Phone,
		lead.Name,
		lead.Source,
		lead.InitialMessage,
		lead.Quality,
		lead.Status,
		nullString(lead.AdvisorID),
		lead.CreatedAt,
		lead.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return apperrors.NewDuplicateLeadError(lead.Phone)
		}
		return queryError("insert lead", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, lead *models.Lead) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE leads
		SET name = $3, quality = $4, status = $5, advisor_id = $6, updated_at = $7
		WHERE tenant_id = $1 AND id = $2`,
		lead.TenantID,
		lead.ID,
		lead.Name,
		lead.Quality,
		lead.Status,
		nullString(lead.AdvisorID),
		lead.UpdatedAt,
	)
	if err != nil {
		return queryError("update lead", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperrors.NewNotFoundError("lead", lead.ID)
	}
	return nil
}

// UpdateAssignment writes the lead's advisor and status only while the stored
// advisor still equals expectedAdvisorID ("" meaning unassigned). It reports
// false when a concurrent writer got there first.
func (s *PostgresStore) UpdateAssignment(ctx context.Context, lead *models.Lead, expectedAdvisorID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE leads
		SET status = $3, advisor_id = $4, updated_at = $5
		WHERE tenant_id = $1 AND id = $2 AND advisor_id IS NOT DISTINCT FROM $6`,
		lead.TenantID,
		lead.ID,
		lead.Status,
		nullString(lead.AdvisorID),
		lead.UpdatedAt,
		nullString(expectedAdvisorID),
	)
	if err != nil {
		return false, queryError("update lead assignment", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, queryError("update lead assignment", err)
	}
	return n == 1, nil
}

// ListActiveByAdvisor returns the advisor's open leads, newest first.
func (s *PostgresStore) ListActiveByAdvisor(ctx context.Context, tenantID, advisorID string) ([]models.Lead, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE tenant_id = $1 AND advisor_id = $2 AND status NOT IN ($3, $4)
		ORDER BY created_at DESC`,
		tenantID, advisorID, models.LeadStatusSold, models.LeadStatusLost)
	if err != nil {
		return nil, queryError("list advisor leads", err)
	}
	defer rows.Close()

	var leads []models.Lead
	for rows.Next() {
		lead, err := scanLead(rows, "list advisor leads", advisorID)
		if err != nil {
			return nil, err
		}
		leads = append(leads, *lead)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError("list advisor leads", err)
	}
	return leads, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanLead(row scanner, op, key string) (*models.Lead, error) {
	var (
		lead      models.Lead
		advisorID sql.NullString
	)
	err := row.Scan(
		&lead.ID,
		&lead.TenantID,
		&lead.Phone,
		&lead.Name,
		&lead.Source,
		&lead.InitialMessage,
		&lead.Quality,
		&lead.Status,
		&advisorID,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("lead", key)
	}
	if err != nil {
		return nil, queryError(op, err)
	}
	lead.AdvisorID = advisorID.String
	return &lead, nil
}

func queryError(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewQueryTimeoutError(op)
	}
	return apperrors.NewQueryExecutionFailedError(op, err)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
