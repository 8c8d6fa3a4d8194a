// internal/workers/message-analysis/generate-response/models.go
package generateresponse

import "dealership-workers/internal/common/validation"

type Input struct {
	TenantID        string `json:"tenantId"`
	Text            string `json:"text"`
	BusinessContext string `json:"businessContext,omitempty"`
	ResponseType    string `json:"responseType,omitempty"`
	Intent          string `json:"intent,omitempty"`
	CustomerName    string `json:"customerName,omitempty"`
	AdvisorName     string `json:"advisorName,omitempty"`
	DealershipName  string `json:"dealershipName,omitempty"`
}

var inputSchema = validation.MustCompile(TaskType, `{
  "type": "object",
  "required": ["tenantId", "text"],
  "properties": {
    "tenantId": {"type": "string", "minLength": 1},
    "text": {"type": "string"},
    "businessContext": {"type": "string"},
    "responseType": {"type": "string"},
    "intent": {"type": "string"},
    "customerName": {"type": "string"},
    "advisorName": {"type": "string"},
    "dealershipName": {"type": "string"}
  }
}`)
