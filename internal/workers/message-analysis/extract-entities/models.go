// internal/workers/message-analysis/extract-entities/models.go
package extractentities

import "dealership-workers/internal/common/validation"

type Input struct {
	TenantID    string   `json:"tenantId"`
	MessageID   string   `json:"messageId,omitempty"`
	Text        string   `json:"text"`
	EntityTypes []string `json:"entityTypes,omitempty"`
}

var inputSchema = validation.MustCompile(TaskType, `{
  "type": "object",
  "required": ["tenantId", "text"],
  "properties": {
    "tenantId": {"type": "string", "minLength": 1},
    "messageId": {"type": "string"},
    "text": {"type": "string"},
    "entityTypes": {
      "type": "array",
      "items": {"type": "string", "enum": ["personas", "vehiculos", "precios", "fechas", "contacto", "ubicaciones", "marcas"]}
    }
  }
}`)
