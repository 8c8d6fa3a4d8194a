// internal/workers/leads/create-lead/models.go
package createlead

import "dealership-workers/internal/common/validation"

type Input struct {
	TenantID string `json:"tenantId"`
	Phone    string `json:"phone"`
	Name     string `json:"name,omitempty"`
	Source   string `json:"source,omitempty"`
	Message  string `json:"message"`
	// Quality skips scoring when the caller already classified the lead.
	Quality string `json:"quality,omitempty"`
}

var inputSchema = validation.MustCompile(TaskType, `{
  "type": "object",
  "required": ["tenantId", "phone", "message"],
  "properties": {
    "tenantId": {"type": "string", "minLength": 1},
    "phone": {"type": "string", "minLength": 1},
    "name": {"type": "string"},
    "source": {"type": "string", "enum": ["whatsapp", "llamada", "web"]},
    "message": {"type": "string", "minLength": 1},
    "quality": {"type": "string", "enum": ["high", "medium", "low"]}
  }
}`)
