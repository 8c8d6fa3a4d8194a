// internal/models/envelope.go
package models

// Envelope is the uniform result every worker writes back to the workflow.
// Callers must check Success before reading Data.
type Envelope struct {
	Success   bool                   `json:"success"`
	Data      interface{}            `json:"data,omitempty"`
	Error     string                 `json:"error,omitempty"`
	ErrorCode string                 `json:"errorCode,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

func NewSuccessEnvelope(data interface{}, metadata map[string]interface{}) Envelope {
	return Envelope{Success: true, Data: data, Metadata: metadata}
}

func NewErrorEnvelope(code, message string, metadata map[string]interface{}) Envelope {
	return Envelope{Success: false, Error: message, ErrorCode: code, Metadata: metadata}
}
