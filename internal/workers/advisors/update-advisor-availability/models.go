// internal/workers/advisors/update-advisor-availability/models.go
package updateadvisoravailability

import "dealership-workers/internal/common/validation"

type Input struct {
	TenantID    string `json:"tenantId"`
	AdvisorID   string `json:"advisorId"`
	IsAvailable bool   `json:"isAvailable"`
	Reason      string `json:"reason,omitempty"`
	// AutoRestoreMinutes > 0 with isAvailable=false schedules the flip back.
	AutoRestoreMinutes int `json:"autoRestoreMinutes,omitempty"`
}

var inputSchema = validation.MustCompile(TaskType, `{
  "type": "object",
  "required": ["tenantId", "advisorId", "isAvailable"],
  "properties": {
    "tenantId": {"type": "string", "minLength": 1},
    "advisorId": {"type": "string", "minLength": 1},
    "isAvailable": {"type": "boolean"},
    "reason": {"type": "string"},
    "autoRestoreMinutes": {"type": "integer", "minimum": 0}
  }
}`)
