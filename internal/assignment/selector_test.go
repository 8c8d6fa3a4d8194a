package assignment

import (
	"testing"

	apperrors "dealership-workers/internal/common/errors"
	"dealership-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func advisor(id string, workload int, rating float64, specialty string) models.Advisor {
	return models.Advisor{
		ID:          id,
		TenantID:    "tenant-1",
		Name:        "Asesor " + id,
		Specialty:   specialty,
		Workload:    workload,
		IsAvailable: true,
		Rating:      rating,
	}
}

func unavailable(a models.Advisor) models.Advisor {
	a.IsAvailable = false
	return a
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name     string
		advisors []models.Advisor
		criteria models.AssignmentCriteria
		last     string
		wantID   string
		wantCode apperrors.ErrorCode
	}{
		{
			name:     "balanced picks lowest workload",
			advisors: []models.Advisor{advisor("A", 3, 4, models.SpecialtyGeneral), advisor("B", 1, 3, models.SpecialtyGeneral)},
			criteria: models.AssignmentCriteria{Strategy: models.StrategyBalancedWorkload},
			wantID:   "B",
		},
		{
			name:     "empty strategy is balanced",
			advisors: []models.Advisor{advisor("A", 3, 4, models.SpecialtyGeneral), advisor("B", 1, 3, models.SpecialtyGeneral)},
			wantID:   "B",
		},
		{
			name:     "balanced tie goes to higher rating",
			advisors: []models.Advisor{advisor("A", 2, 3, models.SpecialtyGeneral), advisor("B", 2, 4.5, models.SpecialtyGeneral)},
			criteria: models.AssignmentCriteria{Strategy: models.StrategyBalancedWorkload},
			wantID:   "B",
		},
		{
			name:     "balanced weighted by rating",
			advisors: []models.Advisor{advisor("A", 4, 5, models.SpecialtyGeneral), advisor("B", 3, 0, models.SpecialtyGeneral)},
			criteria: models.AssignmentCriteria{Strategy: models.StrategyBalancedWorkload, WeighPerformance: true},
			wantID:   "B",
		},
		{
			name:     "unavailable advisors are skipped",
			advisors: []models.Advisor{unavailable(advisor("A", 0, 5, models.SpecialtyGeneral)), advisor("B", 4, 3, models.SpecialtyGeneral)},
			criteria: models.AssignmentCriteria{Strategy: models.StrategyBalancedWorkload},
			wantID:   "B",
		},
		{
			name:     "advisor at capacity is not eligible",
			advisors: []models.Advisor{advisor("A", 5, 5, models.SpecialtyGeneral), advisor("B", 4, 3, models.SpecialtyGeneral)},
			criteria: models.AssignmentCriteria{Strategy: models.StrategyBestPerformance, MaxWorkload: 5},
			wantID:   "B",
		},
		{
			name:     "specialty match preferred",
			advisors: []models.Advisor{advisor("A", 0, 5, models.SpecialtyNewSales), advisor("B", 3, 3, models.SpecialtyFinancing)},
			criteria: models.AssignmentCriteria{Strategy: models.StrategySpecialtyMatch, PreferredSpecialty: models.SpecialtyFinancing},
			wantID:   "B",
		},
		{
			name:     "specialty falls back to balanced",
			advisors: []models.Advisor{advisor("A", 2, 5, models.SpecialtyNewSales), advisor("B", 1, 3, models.SpecialtyUsedSales)},
			criteria: models.AssignmentCriteria{Strategy: models.StrategySpecialtyMatch, PreferredSpecialty: models.SpecialtyAfterSales},
			wantID:   "B",
		},
		{
			name:     "best performance picks highest rating",
			advisors: []models.Advisor{advisor("A", 0, 3.9, models.SpecialtyGeneral), advisor("B", 6, 4.8, models.SpecialtyGeneral)},
			criteria: models.AssignmentCriteria{Strategy: models.StrategyBestPerformance},
			wantID:   "B",
		},
		{
			name:     "round robin starts after last",
			advisors: []models.Advisor{advisor("A", 0, 3, models.SpecialtyGeneral), advisor("B", 9, 3, models.SpecialtyGeneral), advisor("C", 0, 3, models.SpecialtyGeneral)},
			criteria: models.AssignmentCriteria{Strategy: models.StrategyRoundRobin},
			last:     "A",
			wantID:   "B",
		},
		{
			name:     "round robin wraps",
			advisors: []models.Advisor{advisor("C", 0, 3, models.SpecialtyGeneral), advisor("A", 0, 3, models.SpecialtyGeneral)},
			criteria: models.AssignmentCriteria{Strategy: models.StrategyRoundRobin},
			last:     "C",
			wantID:   "A",
		},
		{
			name:     "nobody available",
			advisors: []models.Advisor{unavailable(advisor("A", 0, 5, models.SpecialtyGeneral)), unavailable(advisor("B", 0, 5, models.SpecialtyGeneral))},
			criteria: models.AssignmentCriteria{Strategy: models.StrategyBalancedWorkload},
			wantCode: apperrors.ErrCodeNoEligibleAdvisor,
		},
		{
			name:     "empty roster",
			criteria: models.AssignmentCriteria{Strategy: models.StrategyRoundRobin},
			wantCode: apperrors.ErrCodeNoEligibleAdvisor,
		},
		{
			name:     "unknown strategy",
			advisors: []models.Advisor{advisor("A", 0, 5, models.SpecialtyGeneral)},
			criteria: models.AssignmentCriteria{Strategy: "random"},
			wantCode: apperrors.ErrCodeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Select(tt.advisors, tt.criteria, tt.last)
			if tt.wantCode != "" {
				require.Error(t, err)
				assert.True(t, apperrors.HasCode(err, tt.wantCode), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, got.ID)
		})
	}
}

func TestSelect_RoundRobinCycles(t *testing.T) {
	advisors := []models.Advisor{
		advisor("B", 0, 3, models.SpecialtyGeneral),
		advisor("A", 0, 3, models.SpecialtyGeneral),
		advisor("C", 0, 3, models.SpecialtyGeneral),
	}
	criteria := models.AssignmentCriteria{Strategy: models.StrategyRoundRobin}

	var order []string
	last := ""
	for i := 0; i < 4; i++ {
		got, err := Select(advisors, criteria, last)
		require.NoError(t, err)
		order = append(order, got.ID)
		last = got.ID
	}
	assert.Equal(t, []string{"A", "B", "C", "A"}, order)
}

func TestFilterAdvisors(t *testing.T) {
	advisors := []models.Advisor{
		advisor("D", 2, 4.0, models.SpecialtyNewSales),
		advisor("A", 2, 4.5, models.SpecialtyNewSales),
		advisor("C", 0, 3.0, models.SpecialtyFinancing),
		unavailable(advisor("B", 0, 5.0, models.SpecialtyNewSales)),
		advisor("E", 7, 4.9, models.SpecialtyNewSales),
	}

	t.Run("ordering without filter", func(t *testing.T) {
		got := FilterAdvisors(advisors, models.AdvisorFilter{})
		assert.Equal(t, []string{"B", "C", "A", "D", "E"}, ids(got))
	})

	t.Run("only available with capacity", func(t *testing.T) {
		got := FilterAdvisors(advisors, models.AdvisorFilter{OnlyAvailable: true, MaxWorkload: 7})
		assert.Equal(t, []string{"C", "A", "D"}, ids(got))
	})

	t.Run("specialty and rating", func(t *testing.T) {
		got := FilterAdvisors(advisors, models.AdvisorFilter{Specialty: models.SpecialtyNewSales, MinRating: 4.5})
		assert.Equal(t, []string{"B", "A", "E"}, ids(got))
	})

	t.Run("no match is empty not nil", func(t *testing.T) {
		got := FilterAdvisors(advisors, models.AdvisorFilter{Specialty: models.SpecialtyAfterSales})
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})
}

func ids(advisors []models.Advisor) []string {
	out := make([]string, len(advisors))
	for i, a := range advisors {
		out[i] = a.ID
	}
	return out
}
