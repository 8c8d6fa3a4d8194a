// internal/workers/leads/classify-lead/models.go
package classifylead

import "dealership-workers/internal/common/validation"

type Input struct {
	TenantID string `json:"tenantId"`
	Text     string `json:"text"`
	// LeadID lets a stored phone count toward the score.
	LeadID string `json:"leadId,omitempty"`
}

var inputSchema = validation.MustCompile(TaskType, `{
  "type": "object",
  "required": ["tenantId", "text"],
  "properties": {
    "tenantId": {"type": "string", "minLength": 1},
    "text": {"type": "string"},
    "leadId": {"type": "string"}
  }
}`)
