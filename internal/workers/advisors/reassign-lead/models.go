// internal/workers/advisors/reassign-lead/models.go
package reassignlead

import (
	"dealership-workers/internal/common/validation"
	"dealership-workers/internal/models"
)

type Input struct {
	TenantID string `json:"tenantId"`
	LeadID   string `json:"leadId"`
	// CurrentAdvisorID guards against reassigning a lead that already moved.
	// Empty means whoever holds the lead now.
	CurrentAdvisorID string                    `json:"currentAdvisorId,omitempty"`
	Reason           string                    `json:"reason"`
	Criteria         models.AssignmentCriteria `json:"criteria"`
}

var inputSchema = validation.MustCompile(TaskType, `{
  "type": "object",
  "required": ["tenantId", "leadId", "reason"],
  "properties": {
    "tenantId": {"type": "string", "minLength": 1},
    "leadId": {"type": "string", "minLength": 1},
    "currentAdvisorId": {"type": "string"},
    "reason": {"type": "string", "minLength": 1},
    "criteria": {"type": "object"}
  }
}`)
