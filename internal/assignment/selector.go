package assignment

import (
	"sort"

	apperrors "dealership-workers/internal/common/errors"
	"dealership-workers/internal/models"
)

// hasCapacity treats maxWorkload as a capacity: an advisor already holding
// maxWorkload leads cannot take another. Zero means unlimited.
func hasCapacity(a models.Advisor, maxWorkload int) bool {
	return maxWorkload <= 0 || a.Workload < maxWorkload
}

// eligible is the filter every strategy applies before choosing.
func eligible(a models.Advisor, criteria models.AssignmentCriteria) bool {
	return a.IsAvailable && hasCapacity(a, criteria.MaxWorkload)
}

// FilterAdvisors applies a listing filter and orders the result by workload
// ascending, then rating descending, then id.
func FilterAdvisors(advisors []models.Advisor, filter models.AdvisorFilter) []models.Advisor {
	out := make([]models.Advisor, 0, len(advisors))
	for _, a := range advisors {
		if filter.OnlyAvailable && !a.IsAvailable {
			continue
		}
		if filter.Specialty != "" && a.Specialty != filter.Specialty {
			continue
		}
		if !hasCapacity(a, filter.MaxWorkload) {
			continue
		}
		if a.Rating < filter.MinRating {
			continue
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Workload != out[j].Workload {
			return out[i].Workload < out[j].Workload
		}
		if out[i].Rating != out[j].Rating {
			return out[i].Rating > out[j].Rating
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Select picks one advisor for criteria. lastRoundRobin is the id handed the
// previous round-robin lead; it is ignored by the other strategies.
func Select(advisors []models.Advisor, criteria models.AssignmentCriteria, lastRoundRobin string) (models.Advisor, error) {
	candidates := make([]models.Advisor, 0, len(advisors))
	for _, a := range advisors {
		if eligible(a, criteria) {
			candidates = append(candidates, a)
		}
	}
	if len(candidates) == 0 {
		return models.Advisor{}, apperrors.NewNoEligibleAdvisorError("no available advisor below the workload limit")
	}

	switch criteria.Strategy {
	case models.StrategyBalancedWorkload, "":
		return pickBalanced(candidates, criteria.WeighPerformance), nil
	case models.StrategySpecialtyMatch:
		return pickSpecialty(candidates, criteria), nil
	case models.StrategyBestPerformance:
		return pickBestPerformance(candidates), nil
	case models.StrategyRoundRobin:
		return pickRoundRobin(candidates, lastRoundRobin), nil
	}
	return models.Advisor{}, apperrors.NewValidationError("unknown assignment strategy " + criteria.Strategy)
}

func loadScore(a models.Advisor, weighPerformance bool) float64 {
	if !weighPerformance {
		return float64(a.Workload)
	}
	return float64(a.Workload) * (1 - clampRating(a.Rating)/10)
}

func pickBalanced(candidates []models.Advisor, weighPerformance bool) models.Advisor {
	best := candidates[0]
	for _, a := range candidates[1:] {
		as, bs := loadScore(a, weighPerformance), loadScore(best, weighPerformance)
		switch {
		case as < bs:
			best = a
		case as == bs && (a.Rating > best.Rating || (a.Rating == best.Rating && a.ID < best.ID)):
			best = a
		}
	}
	return best
}

func pickSpecialty(candidates []models.Advisor, criteria models.AssignmentCriteria) models.Advisor {
	var matching []models.Advisor
	for _, a := range candidates {
		if a.Specialty == criteria.PreferredSpecialty {
			matching = append(matching, a)
		}
	}
	if len(matching) == 0 {
		return pickBalanced(candidates, criteria.WeighPerformance)
	}
	return pickBalanced(matching, criteria.WeighPerformance)
}

func pickBestPerformance(candidates []models.Advisor) models.Advisor {
	best := candidates[0]
	for _, a := range candidates[1:] {
		switch {
		case a.Rating > best.Rating:
			best = a
		case a.Rating == best.Rating && (a.Workload < best.Workload || (a.Workload == best.Workload && a.ID < best.ID)):
			best = a
		}
	}
	return best
}

// pickRoundRobin cycles through candidates in id order, starting after last.
func pickRoundRobin(candidates []models.Advisor, last string) models.Advisor {
	sorted := append([]models.Advisor(nil), candidates...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	for _, a := range sorted {
		if a.ID > last {
			return a
		}
	}
	return sorted[0]
}

func clampRating(r float64) float64 {
	if r < models.MinRating {
		return models.MinRating
	}
	if r > models.MaxRating {
		return models.MaxRating
	}
	return r
}
