// internal/models/lead.go
package models

import "time"

const (
	LeadStatusNew       = "nuevo"
	LeadStatusContacted = "contactado"
	LeadStatusQuoted    = "cotizado"
	LeadStatusSold      = "vendido"
	LeadStatusLost      = "perdido"
)

const (
	QualityHigh   = "high"
	QualityMedium = "medium"
	QualityLow    = "low"
)

const (
	SourceWhatsApp = "whatsapp"
	SourceCall     = "llamada"
	SourceWeb      = "web"
)

type Lead struct {
	ID             string    `json:"id"`
	TenantID       string    `json:"tenantId"`
	Phone          string    `json:"phone"`
	Name           string    `json:"name"`
	Source         string    `json:"source"`
	InitialMessage string    `json:"initialMessage"`
	Quality        string    `json:"quality"`
	Status         string    `json:"status"`
	AdvisorID      string    `json:"advisorId,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// IsTerminal reports whether the lead reached a closing status.
func (l *Lead) IsTerminal() bool {
	return l.Status == LeadStatusSold || l.Status == LeadStatusLost
}

func IsValidQuality(q string) bool {
	return q == QualityHigh || q == QualityMedium || q == QualityLow
}
