// internal/workers/leads/update-lead-status/models.go
package updateleadstatus

import "dealership-workers/internal/common/validation"

type Input struct {
	TenantID string `json:"tenantId"`
	LeadID   string `json:"leadId"`
	Status   string `json:"status"`
	Reason   string `json:"reason,omitempty"`
}

var inputSchema = validation.MustCompile(TaskType, `{
  "type": "object",
  "required": ["tenantId", "leadId", "status"],
  "properties": {
    "tenantId": {"type": "string", "minLength": 1},
    "leadId": {"type": "string", "minLength": 1},
    "status": {"type": "string", "enum": ["nuevo", "contactado", "cotizado", "vendido", "perdido"]},
    "reason": {"type": "string"}
  }
}`)
