package createlead

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	apperrors "dealership-workers/internal/common/errors"
	"dealership-workers/internal/common/logger"
	"dealership-workers/internal/leads"
	"dealership-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCreator struct {
	calls []leads.CreateLeadInput
	err   error
}

func (f *fakeCreator) CreateLead(_ context.Context, tenantID string, in leads.CreateLeadInput) (*models.Lead, error) {
	f.calls = append(f.calls, in)
	if f.err != nil {
		return nil, f.err
	}
	return &models.Lead{
		ID:             "lead-1",
		TenantID:       tenantID,
		Phone:          "+56912345678",
		Name:           in.Name,
		Source:         in.Source,
		InitialMessage: in.Message,
		Quality:        models.QualityHigh,
		Status:         models.LeadStatusNew,
	}, nil
}

func newTestHandler(t *testing.T, creator *fakeCreator) *Handler {
	return NewHandler(&Config{Timeout: 5 * time.Second}, creator, logger.NewTestLogger(t), nil)
}

func TestHandler_Evaluate(t *testing.T) {
	tests := []struct {
		name      string
		vars      string
		err       error
		success   bool
		errorCode string
		calls     int
	}{
		{
			name:    "creates lead",
			vars:    `{"tenantId":"t1","phone":"9 1234 5678","name":"Pedro","source":"whatsapp","message":"quiero comprar un auto"}`,
			success: true,
			calls:   1,
		},
		{
			name:      "missing message",
			vars:      `{"tenantId":"t1","phone":"912345678"}`,
			errorCode: "VALIDATION_ERROR",
		},
		{
			name:      "unknown source",
			vars:      `{"tenantId":"t1","phone":"912345678","message":"hola","source":"fax"}`,
			errorCode: "VALIDATION_ERROR",
		},
		{
			name:      "duplicate phone is a business outcome",
			vars:      `{"tenantId":"t1","phone":"912345678","message":"hola"}`,
			err:       apperrors.NewDuplicateLeadError("+56912345678"),
			errorCode: "DUPLICATE_ERROR",
			calls:     1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			creator := &fakeCreator{err: tt.err}
			h := newTestHandler(t, creator)

			env, err := h.runner.Evaluate(context.Background(), []byte(tt.vars))
			require.NoError(t, err)
			assert.Equal(t, tt.success, env.Success)
			assert.Equal(t, tt.errorCode, env.ErrorCode)
			assert.Len(t, creator.calls, tt.calls)
		})
	}
}

func TestHandler_ResultShape(t *testing.T) {
	h := newTestHandler(t, &fakeCreator{})

	env, err := h.runner.Evaluate(context.Background(), []byte(`{"tenantId":"t1","phone":"912345678","message":"hola","name":"Ana"}`))
	require.NoError(t, err)

	raw, err := json.Marshal(env.Data)
	require.NoError(t, err)
	var lead models.Lead
	require.NoError(t, json.Unmarshal(raw, &lead))
	assert.Equal(t, "lead-1", lead.ID)
	assert.Equal(t, "Ana", lead.Name)
	assert.Equal(t, models.LeadStatusNew, lead.Status)
}

func TestHandler_StoreOutageIsRetryable(t *testing.T) {
	h := newTestHandler(t, &fakeCreator{err: apperrors.NewDatabaseConnectionFailedError(assert.AnError)})

	_, err := h.runner.Evaluate(context.Background(), []byte(`{"tenantId":"t1","phone":"912345678","message":"hola"}`))
	require.Error(t, err)
	assert.True(t, apperrors.Normalize(err).Retryable)
}
