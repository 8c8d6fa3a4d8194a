package assignment

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"dealership-workers/internal/audit"
	apperrors "dealership-workers/internal/common/errors"
	"dealership-workers/internal/common/logger"
	"dealership-workers/internal/common/metrics"
	"dealership-workers/internal/common/notify"
	"dealership-workers/internal/leads"
	"dealership-workers/internal/models"
)

const rebalanceReason = "rebalance"

// LeadStore is the part of the lead repository assignment needs.
// UpdateAssignment only writes while the stored advisor still equals
// expectedAdvisorID and reports false otherwise.
type LeadStore interface {
	Get(ctx context.Context, tenantID, id string) (*models.Lead, error)
	UpdateAssignment(ctx context.Context, lead *models.Lead, expectedAdvisorID string) (bool, error)
	ListActiveByAdvisor(ctx context.Context, tenantID, advisorID string) ([]models.Lead, error)
}

type Service struct {
	registry *Registry
	leads    LeadStore
	audit    audit.Sink
	notifier notify.Notifier
	defaults models.AssignmentCriteria
	logger   logger.Logger
	now      func() time.Time
}

func NewService(registry *Registry, leadStore LeadStore, auditSink audit.Sink, notifier notify.Notifier, defaults models.AssignmentCriteria, log logger.Logger) *Service {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Service{
		registry: registry,
		leads:    leadStore,
		audit:    auditSink,
		notifier: notifier,
		defaults: defaults,
		logger:   log.WithFields(map[string]interface{}{"component": "assignment"}),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ListAvailable returns the tenant's advisors matching filter, ordered by
// workload ascending, rating descending, id ascending.
func (s *Service) ListAvailable(ctx context.Context, tenantID string, filter models.AdvisorFilter) ([]models.Advisor, error) {
	if filter.Specialty != "" && !models.IsValidSpecialty(filter.Specialty) {
		return nil, apperrors.NewValidationError("unknown specialty " + filter.Specialty)
	}
	if filter.MaxWorkload < 0 || filter.MinRating < models.MinRating || filter.MinRating > models.MaxRating {
		return nil, apperrors.NewValidationError("maxWorkload must be >= 0 and minRating within [0, 5]")
	}
	advisors, err := s.registry.Snapshot(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return FilterAdvisors(advisors, filter), nil
}

// Assign gives an unassigned lead an advisor. A lead that already has one is
// returned as-is so a retried job does not double-count workload.
func (s *Service) Assign(ctx context.Context, tenantID, leadID string, criteria models.AssignmentCriteria) (*models.AssignmentDecision, error) {
	criteria, err := s.resolveCriteria(criteria)
	if err != nil {
		return nil, err
	}
	lead, err := s.leads.Get(ctx, tenantID, leadID)
	if err != nil {
		return nil, err
	}
	if lead.IsTerminal() {
		return nil, apperrors.NewInvalidTransitionError(lead.Status, "assigned")
	}

	if lead.AdvisorID != "" {
		return s.existingAssignment(ctx, lead, criteria)
	}

	advisor, err := s.registry.Reserve(ctx, tenantID, criteria)
	if err != nil {
		metrics.AdvisorAssignments.WithLabelValues(criteria.Strategy, resultLabel(err)).Inc()
		return nil, err
	}

	lead.AdvisorID = advisor.ID
	lead.UpdatedAt = s.now()
	won, err := s.leads.UpdateAssignment(ctx, lead, "")
	if err != nil {
		s.compensate(ctx, tenantID, advisor.ID)
		return nil, err
	}
	if !won {
		// a concurrent job assigned the lead first
		s.compensate(ctx, tenantID, advisor.ID)
		return s.currentAssignment(ctx, tenantID, leadID, criteria)
	}
	metrics.AdvisorAssignments.WithLabelValues(criteria.Strategy, "assigned").Inc()

	s.record(ctx, audit.Entry{
		TenantID:     tenantID,
		EventType:    audit.EventLeadAssigned,
		ResourceType: "lead",
		ResourceID:   lead.ID,
		Details:      map[string]interface{}{"advisorId": advisor.ID, "strategy": criteria.Strategy},
	})
	s.notifyAdvisor(ctx, tenantID, advisor, lead, "Nuevo lead asignado")

	s.logger.Info("lead assigned", map[string]interface{}{
		"tenantId":  tenantID,
		"leadId":    lead.ID,
		"advisorId": advisor.ID,
		"strategy":  criteria.Strategy,
		"workload":  advisor.Workload,
	})
	return &models.AssignmentDecision{LeadID: lead.ID, Advisor: advisor, Strategy: criteria.Strategy, AssignedAt: lead.UpdatedAt}, nil
}

// Reassign moves a lead from currentAdvisorID to a newly selected advisor and
// puts it back in contactado. An empty currentAdvisorID means the lead's
// current advisor.
func (s *Service) Reassign(ctx context.Context, tenantID, leadID, currentAdvisorID, reason string, criteria models.AssignmentCriteria) (*models.ReassignmentResult, error) {
	criteria, err := s.resolveCriteria(criteria)
	if err != nil {
		return nil, err
	}
	lead, err := s.leads.Get(ctx, tenantID, leadID)
	if err != nil {
		return nil, err
	}
	return s.reassign(ctx, lead, currentAdvisorID, reason, criteria)
}

func (s *Service) reassign(ctx context.Context, lead *models.Lead, currentAdvisorID, reason string, criteria models.AssignmentCriteria) (*models.ReassignmentResult, error) {
	tenantID := lead.TenantID
	if currentAdvisorID == "" {
		currentAdvisorID = lead.AdvisorID
	}
	if currentAdvisorID == "" || lead.AdvisorID != currentAdvisorID {
		return nil, apperrors.NewValidationError(fmt.Sprintf("lead %s is not assigned to advisor %q", lead.ID, currentAdvisorID))
	}
	status, err := leads.ReassignedStatus(lead)
	if err != nil {
		return nil, err
	}

	advisor, err := s.registry.Reserve(ctx, tenantID, criteria, currentAdvisorID)
	if err != nil {
		metrics.AdvisorAssignments.WithLabelValues(criteria.Strategy, resultLabel(err)).Inc()
		return nil, err
	}

	lead.AdvisorID = advisor.ID
	lead.Status = status
	lead.UpdatedAt = s.now()
	won, err := s.leads.UpdateAssignment(ctx, lead, currentAdvisorID)
	if err != nil {
		s.compensate(ctx, tenantID, advisor.ID)
		return nil, err
	}
	if !won {
		s.compensate(ctx, tenantID, advisor.ID)
		return s.concurrentReassignment(ctx, lead, currentAdvisorID, reason)
	}
	metrics.AdvisorAssignments.WithLabelValues(criteria.Strategy, "reassigned").Inc()

	if _, err := s.registry.Release(ctx, tenantID, currentAdvisorID); err != nil {
		s.logger.Warn("previous advisor workload not released", map[string]interface{}{
			"tenantId":  tenantID,
			"advisorId": currentAdvisorID,
			"error":     err,
		})
	}

	s.record(ctx, audit.Entry{
		TenantID:     tenantID,
		EventType:    audit.EventLeadReassigned,
		ResourceType: "lead",
		ResourceID:   lead.ID,
		Details: map[string]interface{}{
			"from":     currentAdvisorID,
			"to":       advisor.ID,
			"reason":   reason,
			"strategy": criteria.Strategy,
		},
	})
	s.notifyAdvisor(ctx, tenantID, advisor, lead, "Lead reasignado a usted")

	return &models.ReassignmentResult{
		Lead:              *lead,
		PreviousAdvisorID: currentAdvisorID,
		NewAdvisor:        advisor,
		Reason:            reason,
		ReassignedAt:      lead.UpdatedAt,
	}, nil
}

// UpdateAvailability flips an advisor's availability. autoRestoreMinutes > 0
// on an unavailable update schedules the flip back.
func (s *Service) UpdateAvailability(ctx context.Context, tenantID, advisorID string, available bool, reason string, autoRestoreMinutes int) (*models.AvailabilityChange, error) {
	if advisorID == "" {
		return nil, apperrors.NewValidationError("advisorId is required")
	}
	if autoRestoreMinutes < 0 {
		return nil, apperrors.NewValidationError("autoRestoreMinutes must not be negative")
	}

	advisor, err := s.registry.SetAvailability(ctx, tenantID, advisorID, available, reason, time.Duration(autoRestoreMinutes)*time.Minute)
	if err != nil {
		return nil, err
	}

	s.record(ctx, audit.Entry{
		TenantID:     tenantID,
		EventType:    audit.EventAvailabilityChanged,
		ResourceType: "advisor",
		ResourceID:   advisorID,
		Details: map[string]interface{}{
			"isAvailable":        available,
			"reason":             reason,
			"autoRestoreMinutes": autoRestoreMinutes,
		},
	})

	return &models.AvailabilityChange{
		AdvisorID:   advisor.ID,
		IsAvailable: advisor.IsAvailable,
		Reason:      advisor.UnavailableReason,
		RestoreAt:   advisor.RestoreAt,
	}, nil
}

// RecordRestore is the registry restore hook: it audits automatic restores.
func (s *Service) RecordRestore(tenantID string, advisor models.Advisor) {
	ctx, cancel := context.WithTimeout(context.Background(), restoreTimeout)
	defer cancel()
	s.record(ctx, audit.Entry{
		TenantID:     tenantID,
		EventType:    audit.EventAvailabilityRestored,
		ResourceType: "advisor",
		ResourceID:   advisor.ID,
	})
}

// Rebalance moves open leads off advisors holding more than maxWorkload,
// one lead at a time through the reassign path. Leads that cannot be placed
// are counted as skipped.
func (s *Service) Rebalance(ctx context.Context, tenantID string, maxWorkload int) (*models.RebalanceReport, error) {
	if maxWorkload == 0 {
		maxWorkload = s.defaults.MaxWorkload
	}
	if maxWorkload <= 0 {
		return nil, apperrors.NewValidationError("rebalance needs a positive maxWorkload")
	}
	if err := s.registry.Refresh(ctx, tenantID); err != nil {
		return nil, err
	}
	advisors, err := s.registry.Snapshot(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	report := &models.RebalanceReport{TenantID: tenantID, Moves: []models.RebalanceMove{}}
	criteria := models.AssignmentCriteria{Strategy: models.StrategyBalancedWorkload, MaxWorkload: maxWorkload}

	for _, overloaded := range overloadedFirst(advisors, maxWorkload) {
		excess := overloaded.Workload - maxWorkload
		open, err := s.leads.ListActiveByAdvisor(ctx, tenantID, overloaded.ID)
		if err != nil {
			return report, err
		}
		if excess > len(open) {
			excess = len(open)
		}

		for i := 0; i < excess; i++ {
			lead := open[i]
			result, err := s.reassign(ctx, &lead, overloaded.ID, rebalanceReason, criteria)
			if apperrors.HasCode(err, apperrors.ErrCodeNoEligibleAdvisor) {
				report.Skipped += excess - i
				break
			}
			if err != nil {
				return report, err
			}
			report.Moves = append(report.Moves, models.RebalanceMove{
				LeadID:        lead.ID,
				FromAdvisorID: overloaded.ID,
				ToAdvisorID:   result.NewAdvisor.ID,
			})
		}
	}

	s.logger.Info("workload rebalanced", map[string]interface{}{
		"tenantId": tenantID,
		"moves":    len(report.Moves),
		"skipped":  report.Skipped,
	})
	return report, nil
}

// currentAssignment re-reads a lead another writer assigned while this call
// held a reservation.
func (s *Service) currentAssignment(ctx context.Context, tenantID, leadID string, criteria models.AssignmentCriteria) (*models.AssignmentDecision, error) {
	lead, err := s.leads.Get(ctx, tenantID, leadID)
	if err != nil {
		return nil, err
	}
	if lead.IsTerminal() {
		return nil, apperrors.NewInvalidTransitionError(lead.Status, "assigned")
	}
	if lead.AdvisorID == "" {
		return nil, apperrors.NewTimeoutError("lead assignment", errors.New("lead changed during assignment"))
	}
	return s.existingAssignment(ctx, lead, criteria)
}

func (s *Service) existingAssignment(ctx context.Context, lead *models.Lead, criteria models.AssignmentCriteria) (*models.AssignmentDecision, error) {
	current, err := s.registry.Get(ctx, lead.TenantID, lead.AdvisorID)
	if err != nil {
		return nil, err
	}
	return &models.AssignmentDecision{LeadID: lead.ID, Advisor: current, Strategy: criteria.Strategy, AssignedAt: lead.UpdatedAt}, nil
}

// concurrentReassignment reports the move a concurrent writer made off
// previousAdvisorID. The previous advisor's workload was released by that writer.
func (s *Service) concurrentReassignment(ctx context.Context, lead *models.Lead, previousAdvisorID, reason string) (*models.ReassignmentResult, error) {
	fresh, err := s.leads.Get(ctx, lead.TenantID, lead.ID)
	if err != nil {
		return nil, err
	}
	if fresh.AdvisorID == "" || fresh.AdvisorID == previousAdvisorID {
		return nil, apperrors.NewTimeoutError("lead reassignment", errors.New("lead changed during reassignment"))
	}
	advisor, err := s.registry.Get(ctx, fresh.TenantID, fresh.AdvisorID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("lead already reassigned by a concurrent job", map[string]interface{}{
		"tenantId":  fresh.TenantID,
		"leadId":    fresh.ID,
		"from":      previousAdvisorID,
		"advisorId": advisor.ID,
	})
	return &models.ReassignmentResult{
		Lead:              *fresh,
		PreviousAdvisorID: previousAdvisorID,
		NewAdvisor:        advisor,
		Reason:            reason,
		ReassignedAt:      fresh.UpdatedAt,
	}, nil
}

func (s *Service) resolveCriteria(c models.AssignmentCriteria) (models.AssignmentCriteria, error) {
	if c.Strategy == "" {
		c.Strategy = s.defaults.Strategy
	}
	if c.Strategy == "" {
		c.Strategy = models.StrategyBalancedWorkload
	}
	if !models.IsValidStrategy(c.Strategy) {
		return c, apperrors.NewValidationError("unknown assignment strategy " + c.Strategy)
	}
	if c.PreferredSpecialty != "" && !models.IsValidSpecialty(c.PreferredSpecialty) {
		return c, apperrors.NewValidationError("unknown specialty " + c.PreferredSpecialty)
	}
	if c.MaxWorkload < 0 {
		return c, apperrors.NewValidationError("maxWorkload must not be negative")
	}
	if c.MaxWorkload == 0 {
		c.MaxWorkload = s.defaults.MaxWorkload
	}
	return c, nil
}

// compensate undoes a reservation whose lead update failed or lost a race.
func (s *Service) compensate(ctx context.Context, tenantID, advisorID string) {
	if _, err := s.registry.Release(ctx, tenantID, advisorID); err != nil {
		s.logger.Error("workload compensation failed", map[string]interface{}{
			"tenantId":  tenantID,
			"advisorId": advisorID,
			"error":     err,
		})
	}
}

func (s *Service) notifyAdvisor(ctx context.Context, tenantID string, advisor models.Advisor, lead *models.Lead, subject string) {
	body := fmt.Sprintf("%s (%s). Mensaje: %s", displayName(lead), lead.Phone, lead.InitialMessage)
	err := s.notifier.Notify(ctx, notify.Notification{
		TenantID:  tenantID,
		Recipient: notify.Recipient{Name: advisor.Name, Phone: advisor.Phone, Email: advisor.Email},
		Subject:   subject,
		Body:      body,
	})
	if err != nil {
		s.logger.Warn("advisor notification failed", map[string]interface{}{
			"tenantId":  tenantID,
			"advisorId": advisor.ID,
			"leadId":    lead.ID,
			"error":     err,
		})
	}
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

func overloadedFirst(advisors []models.Advisor, maxWorkload int) []models.Advisor {
	var out []models.Advisor
	for _, a := range advisors {
		if a.Workload > maxWorkload {
			out = append(out, a)
		}
	}
	// heaviest first so the most overloaded advisor gets relief while capacity lasts
	sort.SliceStable(out, func(i, j int) bool { return out[i].Workload > out[j].Workload })
	return out
}

func displayName(lead *models.Lead) string {
	if lead.Name != "" {
		return lead.Name
	}
	return "Cliente"
}

func resultLabel(err error) string {
	if apperrors.HasCode(err, apperrors.ErrCodeNoEligibleAdvisor) {
		return "no_eligible"
	}
	return "error"
}
