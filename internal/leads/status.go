package leads

import (
	apperrors "dealership-workers/internal/common/errors"
	"dealership-workers/internal/models"
)

// Forward-only lifecycle. A lead may be dropped as lost from any open status.
var transitions = map[string][]string{
	models.LeadStatusNew:       {models.LeadStatusContacted, models.LeadStatusLost},
	models.LeadStatusContacted: {models.LeadStatusQuoted, models.LeadStatusLost},
	models.LeadStatusQuoted:    {models.LeadStatusSold, models.LeadStatusLost},
}

func IsValidStatus(status string) bool {
	switch status {
	case models.LeadStatusNew, models.LeadStatusContacted, models.LeadStatusQuoted,
		models.LeadStatusSold, models.LeadStatusLost:
		return true
	}
	return false
}

func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func ValidateTransition(from, to string) error {
	if !IsValidStatus(to) {
		return apperrors.NewValidationError("unknown lead status " + to)
	}
	if !CanTransition(from, to) {
		return apperrors.NewInvalidTransitionError(from, to)
	}
	return nil
}

// ReassignedStatus is the status a lead takes when it moves to a new advisor.
// Terminal leads cannot be reassigned.
func ReassignedStatus(lead *models.Lead) (string, error) {
	if lead.IsTerminal() {
		return "", apperrors.NewInvalidTransitionError(lead.Status, models.LeadStatusContacted)
	}
	return models.LeadStatusContacted, nil
}
