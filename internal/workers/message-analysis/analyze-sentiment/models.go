// internal/workers/message-analysis/analyze-sentiment/models.go
package analyzesentiment

import "dealership-workers/internal/common/validation"

type Input struct {
	TenantID  string `json:"tenantId"`
	MessageID string `json:"messageId,omitempty"`
	Text      string `json:"text"`
}

var inputSchema = validation.MustCompile(TaskType, `{
  "type": "object",
  "required": ["tenantId", "text"],
  "properties": {
    "tenantId": {"type": "string", "minLength": 1},
    "messageId": {"type": "string"},
    "text": {"type": "string"}
  }
}`)
