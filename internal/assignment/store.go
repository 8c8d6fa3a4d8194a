package assignment

import (
	"context"
	"database/sql"
	"errors"
	"time"

	apperrors "dealership-workers/internal/common/errors"
	"dealership-workers/internal/models"
)

// AdvisorStore is the tenant-scoped advisor repository backing the Registry.
// Workload changes are relative and guarded in the store, so replicas sharing
// the table never overwrite each other's counts.
type AdvisorStore interface {
	ListByTenant(ctx context.Context, tenantID string) ([]models.Advisor, error)
	Get(ctx context.Context, tenantID, advisorID string) (*models.Advisor, error)
	// IncrementWorkload adds one unit when the advisor is active, available
	// and below maxWorkload (0 means unlimited). ok is false when the row did
	// not qualify.
	IncrementWorkload(ctx context.Context, tenantID, advisorID string, maxWorkload int) (workload int, ok bool, err error)
	// DecrementWorkload removes one unit, never going below zero.
	DecrementWorkload(ctx context.Context, tenantID, advisorID string) (int, error)
	UpdateAvailability(ctx context.Context, tenantID, advisorID string, available bool, reason string, restoreAt *time.Time) error
}

const advisorSelect = `
		SELECT id, tenant_id, name, phone, email, specialty, workload,
		       is_available, unavailable_reason, restore_at, rating
		FROM advisors`

type PostgresAdvisorStore struct {
	db *sql.DB
}

func NewPostgresAdvisorStore(db *sql.DB) *PostgresAdvisorStore {
	return &PostgresAdvisorStore{db: db}
}

func (s *PostgresAdvisorStore) ListByTenant(ctx context.Context, tenantID string) ([]models.Advisor, error) {
	rows, err := s.db.QueryContext(ctx, advisorSelect+`
		WHERE tenant_id = $1 AND active = true
		ORDER BY id`, tenantID)
	if err != nil {
		return nil, queryError("list advisors", err)
	}
	defer rows.Close()

	var advisors []models.Advisor
	for rows.Next() {
		a, err := scanAdvisor(rows)
		if err != nil {
			return nil, queryError("scan advisor", err)
		}
		advisors = append(advisors, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError("list advisors", err)
	}
	return advisors, nil
}

func (s *PostgresAdvisorStore) Get(ctx context.Context, tenantID, advisorID string) (*models.Advisor, error) {
	row := s.db.QueryRowContext(ctx, advisorSelect+`
		WHERE tenant_id = $1 AND id = $2 AND active = true`, tenantID, advisorID)
	a, err := scanAdvisor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("advisor", advisorID)
	}
	if err != nil {
		return nil, queryError("get advisor", err)
	}
	return a, nil
}

func (s *PostgresAdvisorStore) IncrementWorkload(ctx context.Context, tenantID, advisorID string, maxWorkload int) (int, bool, error) {
	var workload int
	err := s.db.QueryRowContext(ctx, `
		UPDATE advisors
		SET workload = workload + 1, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2 AND active = true AND is_available = true
		  AND ($3 = 0 OR workload < $3)
		RETURNING workload`,
		tenantID, advisorID, maxWorkload).Scan(&workload)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, queryError("increment advisor workload", err)
	}
	return workload, true, nil
}

func (s *PostgresAdvisorStore) DecrementWorkload(ctx context.Context, tenantID, advisorID string) (int, error) {
	var workload int
	err := s.db.QueryRowContext(ctx, `
		UPDATE advisors
		SET workload = GREATEST(workload - 1, 0), updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2
		RETURNING workload`,
		tenantID, advisorID).Scan(&workload)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, apperrors.NewNotFoundError("advisor", advisorID)
	}
	if err != nil {
		return 0, queryError("decrement advisor workload", err)
	}
	return workload, nil
}

func (s *PostgresAdvisorStore) UpdateAvailability(ctx context.Context, tenantID, advisorID string, available bool, reason string, restoreAt *time.Time) error {
	var restore sql.NullTime
	if restoreAt != nil {
		restore = sql.NullTime{Time: *restoreAt, Valid: true}
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE advisors
		SET is_available = $3, unavailable_reason = $4, restore_at = $5, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2`,
		tenantID, advisorID, available, sql.NullString{String: reason, Valid: reason != ""}, restore)
	if err != nil {
		return queryError("update advisor availability", err)
	}
	return requireRow(res, advisorID)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAdvisor(row rowScanner) (*models.Advisor, error) {
	var (
		a         models.Advisor
		phone     sql.NullString
		email     sql.NullString
		reason    sql.NullString
		restoreAt sql.NullTime
	)
	if err := row.Scan(
		&a.ID, &a.TenantID, &a.Name, &phone, &email, &a.Specialty, &a.Workload,
		&a.IsAvailable, &reason, &restoreAt, &a.Rating,
	); err != nil {
		return nil, err
	}
	a.Phone, a.Email, a.UnavailableReason = phone.String, email.String, reason.String
	if restoreAt.Valid {
		t := restoreAt.Time
		a.RestoreAt = &t
	}
	a.Rating = clampRating(a.Rating)
	if a.Workload < 0 {
		a.Workload = 0
	}
	return &a, nil
}

func requireRow(res sql.Result, advisorID string) error {
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperrors.NewNotFoundError("advisor", advisorID)
	}
	return nil
}

func queryError(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewQueryTimeoutError(op)
	}
	return apperrors.NewQueryExecutionFailedError(op, err)
}
