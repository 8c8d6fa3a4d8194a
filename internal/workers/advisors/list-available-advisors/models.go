// internal/workers/advisors/list-available-advisors/models.go
package listavailableadvisors

import (
	"dealership-workers/internal/common/validation"
	"dealership-workers/internal/models"
)

type Input struct {
	TenantID    string  `json:"tenantId"`
	Specialty   string  `json:"specialty,omitempty"`
	MaxWorkload int     `json:"maxWorkload,omitempty"`
	MinRating   float64 `json:"minRating,omitempty"`
	// OnlyAvailable defaults to true when the variable is absent.
	OnlyAvailable *bool `json:"onlyAvailable,omitempty"`
}

func (in *Input) Filter() models.AdvisorFilter {
	onlyAvailable := true
	if in.OnlyAvailable != nil {
		onlyAvailable = *in.OnlyAvailable
	}
	return models.AdvisorFilter{
		Specialty:     in.Specialty,
		MaxWorkload:   in.MaxWorkload,
		OnlyAvailable: onlyAvailable,
		MinRating:     in.MinRating,
	}
}

type Output struct {
	Advisors []models.Advisor `json:"advisors"`
	Count    int              `json:"count"`
}

var inputSchema = validation.MustCompile(TaskType, `{
  "type": "object",
  "required": ["tenantId"],
  "properties": {
    "tenantId": {"type": "string", "minLength": 1},
    "specialty": {"type": "string"},
    "maxWorkload": {"type": "integer", "minimum": 0},
    "onlyAvailable": {"type": "boolean", "default": true},
    "minRating": {"type": "number", "minimum": 0, "maximum": 5}
  }
}`)
