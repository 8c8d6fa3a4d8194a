package leads

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	apperrors "dealership-workers/internal/common/errors"
	"dealership-workers/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var leadRowColumns = []string{
	"id", "tenant_id", "phone", "name", "source", "initial_message",
	"quality", "status", "advisor_id", "created_at", "updated_at",
}

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresStore(db), mock
}

func TestPostgresStore_FindByPhone(t *testing.T) {
	store, mock := newMockStore(t)
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM leads WHERE tenant_id = \$1 AND phone = \$2`).
		WithArgs("tenant-1", "+56912345678").
		WillReturnRows(sqlmock.NewRows(leadRowColumns).
			AddRow("lead-1", "tenant-1", "+56912345678", "Ana", "whatsapp", "hola", "medium", "nuevo", nil, ts, ts))

	lead, err := store.FindByPhone(context.Background(), "tenant-1", "+56912345678")
	require.NoError(t, err)
	assert.Equal(t, "lead-1", lead.ID)
	assert.Equal(t, "", lead.AdvisorID)
	assert.Equal(t, ts, lead.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`FROM leads WHERE tenant_id = \$1 AND id = \$2`).
		WithArgs("tenant-1", "missing").
		WillReturnError(sql.ErrNoRows)

	_, err := store.Get(context.Background(), "tenant-1", "missing")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotFound))
}

func TestPostgresStore_Create(t *testing.T) {
	ts := time.Now().UTC()
	lead := &models.Lead{
		ID: "lead-1", TenantID: "tenant-1", Phone: "+56912345678", Name: "Ana",
		Source: "whatsapp", InitialMessage: "hola", Quality: "low", Status: "nuevo",
		CreatedAt: ts, UpdatedAt: ts,
	}

	t.Run("success", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectExec(`INSERT INTO leads`).
			WithArgs("lead-1", "tenant-1", "+56912345678", "Ana", "whatsapp", "hola", "low", "nuevo", nil, ts, ts).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, store.Create(context.Background(), lead))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unique violation is a duplicate", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectExec(`INSERT INTO leads`).WillReturnError(&pq.Error{Code: "23505"})

		err := store.Create(context.Background(), lead)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeDuplicate))
	})

	t.Run("other failures are retryable", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectExec(`INSERT INTO leads`).WillReturnError(errors.New("connection refused"))

		err := store.Create(context.Background(), lead)
		stdErr, ok := apperrors.AsStandardError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrCodeQueryExecutionFailed, stdErr.Code)
		assert.True(t, stdErr.Retryable)
	})
}

func TestPostgresStore_Update(t *testing.T) {
	lead := &models.Lead{ID: "lead-1", TenantID: "tenant-1", Name: "Ana", Quality: "high", Status: "contactado", AdvisorID: "adv-1"}

	t.Run("success", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectExec(`UPDATE leads SET`).
			WithArgs("tenant-1", "lead-1", "Ana", "high", "contactado", "adv-1", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, store.Update(context.Background(), lead))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no rows", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectExec(`UPDATE leads SET`).WillReturnResult(sqlmock.NewResult(0, 0))

		err := store.Update(context.Background(), lead)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotFound))
	})
}

func TestPostgresStore_UpdateAssignment(t *testing.T) {
	lead := &models.Lead{ID: "lead-1", TenantID: "tenant-1", Status: "contactado", AdvisorID: "adv-2"}

	tests := []struct {
		name     string
		expected string
		wantArg  interface{}
		affected int64
		want     bool
	}{
		{name: "first assignment", expected: "", wantArg: nil, affected: 1, want: true},
		{name: "reassignment", expected: "adv-1", wantArg: "adv-1", affected: 1, want: true},
		{name: "lost the race", expected: "adv-1", wantArg: "adv-1", affected: 0, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := newMockStore(t)
			mock.ExpectExec(`UPDATE leads SET status = \$3, advisor_id = \$4, updated_at = \$5 WHERE tenant_id = \$1 AND id = \$2 AND advisor_id IS NOT DISTINCT FROM \$6`).
				WithArgs("tenant-1", "lead-1", "contactado", "adv-2", sqlmock.AnyArg(), tt.wantArg).
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			ok, err := store.UpdateAssignment(context.Background(), lead, tt.expected)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgresStore_ListActiveByAdvisor(t *testing.T) {
	store, mock := newMockStore(t)
	ts := time.Now().UTC()

	mock.ExpectQuery(`WHERE tenant_id = \$1 AND advisor_id = \$2 AND status NOT IN`).
		WithArgs("tenant-1", "adv-1", models.LeadStatusSold, models.LeadStatusLost).
		WillReturnRows(sqlmock.NewRows(leadRowColumns).
			AddRow("lead-2", "tenant-1", "+56911111111", "B", "web", "x", "low", "contactado", "adv-1", ts, ts).
			AddRow("lead-1", "tenant-1", "+56922222222", "A", "web", "y", "high", "nuevo", "adv-1", ts, ts))

	leads, err := store.ListActiveByAdvisor(context.Background(), "tenant-1", "adv-1")
	require.NoError(t, err)
	require.Len(t, leads, 2)
	assert.Equal(t, "lead-2", leads[0].ID)
	assert.Equal(t, "adv-1", leads[1].AdvisorID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
