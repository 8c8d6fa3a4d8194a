// internal/workers/advisors/rebalance-workload/models.go
package rebalanceworkload

import "dealership-workers/internal/common/validation"

type Input struct {
	TenantID string `json:"tenantId"`
	// MaxWorkload zero uses the configured default.
	MaxWorkload int `json:"maxWorkload,omitempty"`
}

var inputSchema = validation.MustCompile(TaskType, `{
  "type": "object",
  "required": ["tenantId"],
  "properties": {
    "tenantId": {"type": "string", "minLength": 1},
    "maxWorkload": {"type": "integer", "minimum": 0}
  }
}`)
