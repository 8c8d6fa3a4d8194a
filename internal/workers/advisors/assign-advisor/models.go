// internal/workers/advisors/assign-advisor/models.go
package assignadvisor

import (
	"dealership-workers/internal/common/validation"
	"dealership-workers/internal/models"
)

type Input struct {
	TenantID string `json:"tenantId"`
	LeadID   string `json:"leadId"`
	// Criteria falls back to the configured defaults field by field.
	Criteria models.AssignmentCriteria `json:"criteria"`
}

var inputSchema = validation.MustCompile(TaskType, `{
  "type": "object",
  "required": ["tenantId", "leadId"],
  "properties": {
    "tenantId": {"type": "string", "minLength": 1},
    "leadId": {"type": "string", "minLength": 1},
    "criteria": {
      "type": "object",
      "properties": {
        "strategy": {"type": "string"},
        "preferredSpecialty": {"type": "string"},
        "maxWorkload": {"type": "integer", "minimum": 0},
        "weighPerformance": {"type": "boolean"}
      }
    }
  }
}`)
