// Package leads owns the lead lifecycle: creation with phone dedup, quality
// scoring and the status state machine.
package leads

import (
	"context"
	"strings"
	"time"

	"dealership-workers/internal/analysis"
	"dealership-workers/internal/audit"
	apperrors "dealership-workers/internal/common/errors"
	"dealership-workers/internal/common/logger"
	"dealership-workers/internal/models"

	"github.com/google/uuid"
)

type CreateLeadInput struct {
	Phone   string `json:"phone"`
	Name    string `json:"name"`
	Source  string `json:"source"`
	Message string `json:"message"`
	Quality string `json:"quality,omitempty"`
}

type Service struct {
	store      Store
	audit      audit.Sink
	classifier *analysis.LeadClassifier
	logger     logger.Logger
	now        func() time.Time
}

func NewService(store Store, auditSink audit.Sink, classifier *analysis.LeadClassifier, log logger.Logger) *Service {
	return &Service{
		store:      store,
		audit:      auditSink,
		classifier: classifier,
		logger:     log.WithFields(map[string]interface{}{"component": "leads"}),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) CreateLead(ctx context.Context, tenantID string, in CreateLeadInput) (*models.Lead, error) {
	if tenantID == "" {
		return nil, apperrors.NewValidationError("tenantId is required")
	}
	if strings.TrimSpace(in.Phone) == "" {
		return nil, apperrors.NewValidationError("phone is required")
	}
	if strings.TrimSpace(in.Message) == "" {
		return nil, apperrors.NewValidationError("message is required")
	}

	phone, err := NormalizePhone(in.Phone)
	if err != nil {
		return nil, err
	}

	source := in.Source
	if source == "" {
		source = models.SourceWhatsApp
	}
	if source != models.SourceWhatsApp && source != models.SourceCall && source != models.SourceWeb {
		return nil, apperrors.NewValidationError("unknown lead source " + source)
	}
	if in.Quality != "" && !models.IsValidQuality(in.Quality) {
		return nil, apperrors.NewValidationError("unknown lead quality " + in.Quality)
	}

	existing, err := s.store.FindByPhone(ctx, tenantID, phone)
	switch {
	case err == nil && existing != nil:
		return nil, apperrors.NewDuplicateLeadError(phone).WithMetadata("leadId", existing.ID)
	case err != nil && !apperrors.HasCode(err, apperrors.ErrCodeNotFound):
		return nil, err
	}

	ts := s.now()
	lead := &models.Lead{
		ID:             uuid.New().String(),
		TenantID:       tenantID,
		Phone:          phone,
		Name:           strings.TrimSpace(in.Name),
		Source:         source,
		InitialMessage: in.Message,
		Quality:        in.Quality,
		Status:         models.LeadStatusNew,
		CreatedAt:      ts,
		UpdatedAt:      ts,
	}

	if lead.Quality == "" {
		verdict, err := s.classifier.Classify(in.Message, lead)
		if err != nil {
			return nil, err
		}
		lead.Quality = verdict.Quality
	}

	if err := s.store.Create(ctx, lead); err != nil {
		return nil, err
	}

	s.record(ctx, audit.Entry{
		TenantID:     tenantID,
		EventType:    audit.EventLeadCreated,
		ResourceType: "lead",
		ResourceID:   lead.ID,
		Details:      map[string]interface{}{"source": lead.Source, "quality": lead.Quality},
	})

	s.logger.Info("lead created", map[string]interface{}{
		"tenantId": tenantID,
		"leadId":   lead.ID,
		"quality":  lead.Quality,
		"source":   lead.Source,
	})
	return lead, nil
}

func (s *Service) Get(ctx context.Context, tenantID, id string) (*models.Lead, error) {
	if tenantID == "" || id == "" {
		return nil, apperrors.NewValidationError("tenantId and leadId are required")
	}
	return s.store.Get(ctx, tenantID, id)
}

func (s *Service) FindByPhone(ctx context.Context, tenantID, phone string) (*models.Lead, error) {
	if tenantID == "" {
		return nil, apperrors.NewValidationError("tenantId is required")
	}
	normalized, err := NormalizePhone(phone)
	if err != nil {
		return nil, err
	}
	return s.store.FindByPhone(ctx, tenantID, normalized)
}

// UpdateStatus moves a lead along the state machine. Setting the current
// status again is a no-op.
func (s *Service) UpdateStatus(ctx context.Context, tenantID, id, status, reason string) (*models.Lead, error) {
	lead, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if lead.Status == status {
		return lead, nil
	}
	if err := ValidateTransition(lead.Status, status); err != nil {
		return nil, err
	}

	previous := lead.Status
	lead.Status = status
	lead.UpdatedAt = s.now()
	if err := s.store.Update(ctx, lead); err != nil {
		return nil, err
	}

	s.record(ctx, audit.Entry{
		TenantID:     tenantID,
		EventType:    audit.EventLeadStatusChanged,
		ResourceType: "lead",
		ResourceID:   lead.ID,
		Details:      map[string]interface{}{"from": previous, "to": status, "reason": reason},
	})
	return lead, nil
}

func (s *Service) record(ctx context.Context, entry audit.Entry) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Warn("audit log insert failed", map[string]interface{}{
			"error":      err,
			"eventType":  entry.EventType,
			"resourceId": entry.ResourceID,
		})
	}
}
