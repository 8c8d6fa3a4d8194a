// internal/models/advisor.go
package models

import "time"

const (
	SpecialtyNewSales   = "ventas_nuevos"
	SpecialtyUsedSales  = "ventas_usados"
	SpecialtyAfterSales = "postventa"
	SpecialtyFinancing  = "financiamiento"
	SpecialtyGeneral    = "general"
)

const (
	StrategyBalancedWorkload = "balanced_workload"
	StrategySpecialtyMatch   = "specialty_match"
	StrategyBestPerformance  = "best_performance"
	StrategyRoundRobin       = "round_robin"
)

const (
	MinRating = 0.0
	MaxRating = 5.0
)

type Advisor struct {
	ID                string     `json:"id"`
	TenantID          string     `json:"tenantId"`
	Name              string     `json:"name"`
	Phone             string     `json:"phone,omitempty"`
	Email             string     `json:"email,omitempty"`
	Specialty         string     `json:"specialty"`
	Workload          int        `json:"workload"`
	IsAvailable       bool       `json:"isAvailable"`
	UnavailableReason string     `json:"unavailableReason,omitempty"`
	RestoreAt         *time.Time `json:"restoreAt,omitempty"`
	Rating            float64    `json:"rating"`
}

// AssignmentCriteria configures how a single lead is matched to an advisor.
type AssignmentCriteria struct {
	Strategy           string `json:"strategy"`
	PreferredSpecialty string `json:"preferredSpecialty,omitempty"`
	// MaxWorkload is a capacity: advisors at or above it are not eligible. Zero means unlimited.
	MaxWorkload      int  `json:"maxWorkload,omitempty"`
	WeighPerformance bool `json:"weighPerformance,omitempty"`
}

// AdvisorFilter narrows ListAvailable results.
type AdvisorFilter struct {
	Specialty     string  `json:"specialty,omitempty"`
	MaxWorkload   int     `json:"maxWorkload,omitempty"`
	OnlyAvailable bool    `json:"onlyAvailable"`
	MinRating     float64 `json:"minRating,omitempty"`
}

type AssignmentDecision struct {
	LeadID     string    `json:"leadId"`
	Advisor    Advisor   `json:"advisor"`
	Strategy   string    `json:"strategy"`
	AssignedAt time.Time `json:"assignedAt"`
}

type ReassignmentResult struct {
	Lead              Lead      `json:"lead"`
	PreviousAdvisorID string    `json:"previousAdvisorId"`
	NewAdvisor        Advisor   `json:"newAdvisor"`
	Reason            string    `json:"reason"`
	ReassignedAt      time.Time `json:"reassignedAt"`
}

type AvailabilityChange struct {
	AdvisorID   string     `json:"advisorId"`
	IsAvailable bool       `json:"isAvailable"`
	Reason      string     `json:"reason,omitempty"`
	RestoreAt   *time.Time `json:"restoreAt,omitempty"`
}

type RebalanceMove struct {
	LeadID        string `json:"leadId"`
	FromAdvisorID string `json:"fromAdvisorId"`
	ToAdvisorID   string `json:"toAdvisorId"`
}

type RebalanceReport struct {
	TenantID string          `json:"tenantId"`
	Moves    []RebalanceMove `json:"moves"`
	Skipped  int             `json:"skipped"`
}

func IsValidStrategy(name string) bool {
	switch name {
	case StrategyBalancedWorkload, StrategySpecialtyMatch, StrategyBestPerformance, StrategyRoundRobin:
		return true
	}
	return false
}

func IsValidSpecialty(s string) bool {
	switch s {
	case SpecialtyNewSales, SpecialtyUsedSales, SpecialtyAfterSales, SpecialtyFinancing, SpecialtyGeneral:
		return true
	}
	return false
}
