// internal/workers/message-analysis/classify-intent/models.go
package classifyintent

import "dealership-workers/internal/common/validation"

type Input struct {
	TenantID        string `json:"tenantId"`
	MessageID       string `json:"messageId,omitempty"`
	Text            string `json:"text"`
	BusinessContext string `json:"businessContext,omitempty"`
	// IncludeEntities attaches the extracted entities to the result.
	IncludeEntities bool `json:"includeEntities,omitempty"`
}

var inputSchema = validation.MustCompile(TaskType, `{
  "type": "object",
  "required": ["tenantId", "text"],
  "properties": {
    "tenantId": {"type": "string", "minLength": 1},
    "messageId": {"type": "string"},
    "text": {"type": "string"},
    "businessContext": {"type": "string"},
    "includeEntities": {"type": "boolean"}
  }
}`)
