package audit

import (
	"context"
	"errors"
	"testing"

	apperrors "dealership-workers/internal/common/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresSink_Record(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	sink := NewPostgresSink(db)

	mock.ExpectExec(`INSERT INTO audit_log`).
		WithArgs(sqlmock.AnyArg(), "tenant-1", EventLeadReassigned, "lead", "lead-1", []byte(`{"reason":"vacaciones"}`), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = sink.Record(context.Background(), Entry{
		TenantID:     "tenant-1",
		EventType:    EventLeadReassigned,
		ResourceType: "lead",
		ResourceID:   "lead-1",
		Details:      map[string]interface{}{"reason": "vacaciones"},
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSink_RecordFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO audit_log`).WillReturnError(errors.New("connection reset"))

	err = NewPostgresSink(db).Record(context.Background(), Entry{TenantID: "t", EventType: EventLeadCreated})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeQueryExecutionFailed))
}
