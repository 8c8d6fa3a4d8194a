package assignment

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"dealership-workers/internal/audit"
	apperrors "dealership-workers/internal/common/errors"
	"dealership-workers/internal/common/logger"
	"dealership-workers/internal/common/notify"
	"dealership-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryLeadStore struct {
	mu        sync.Mutex
	leads     map[string]models.Lead
	updateErr error
}

func newMemoryLeadStore(leads ...models.Lead) *memoryLeadStore {
	s := &memoryLeadStore{leads: make(map[string]models.Lead)}
	for _, l := range leads {
		s.leads[l.ID] = l
	}
	return s
}

func (s *memoryLeadStore) Get(_ context.Context, tenantID, id string) (*models.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.leads[id]
	if !ok || l.TenantID != tenantID {
		return nil, apperrors.NewNotFoundError("lead", id)
	}
	return &l, nil
}

func (s *memoryLeadStore) UpdateAssignment(_ context.Context, lead *models.Lead, expectedAdvisorID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return false, s.updateErr
	}
	stored, ok := s.leads[lead.ID]
	if !ok || stored.TenantID != lead.TenantID || stored.AdvisorID != expectedAdvisorID {
		return false, nil
	}
	s.leads[lead.ID] = *lead
	return true, nil
}

func (s *memoryLeadStore) ListActiveByAdvisor(_ context.Context, tenantID, advisorID string) ([]models.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Lead
	for _, l := range s.leads {
		if l.TenantID == tenantID && l.AdvisorID == advisorID && !l.IsTerminal() {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *memoryLeadStore) get(id string) models.Lead {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.leads[id]
}

// barrierLeadStore holds the first n Gets until all n have read, so n
// concurrent callers start from the same lead row.
type barrierLeadStore struct {
	*memoryLeadStore
	n     int32
	calls int32
	ready sync.WaitGroup
}

func newBarrierLeadStore(inner *memoryLeadStore, n int) *barrierLeadStore {
	b := &barrierLeadStore{memoryLeadStore: inner, n: int32(n)}
	b.ready.Add(n)
	return b
}

func (b *barrierLeadStore) Get(ctx context.Context, tenantID, id string) (*models.Lead, error) {
	l, err := b.memoryLeadStore.Get(ctx, tenantID, id)
	if atomic.AddInt32(&b.calls, 1) <= b.n {
		b.ready.Done()
		b.ready.Wait()
	}
	return l, err
}

type recordingSink struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (s *recordingSink) Record(_ context.Context, e audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	return nil
}

func (s *recordingSink) events() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.EventType
	}
	return out
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notify.Notification
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, msg notify.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return n.err
}

type serviceFixture struct {
	svc      *Service
	registry *Registry
	advisors *memoryAdvisorStore
	leads    *memoryLeadStore
	sink     *recordingSink
	notifier *recordingNotifier
	timers   *fakeTimers
}

func newServiceFixture(t *testing.T, advisors []models.Advisor, leads ...models.Lead) *serviceFixture {
	t.Helper()
	f := &serviceFixture{
		advisors: newMemoryAdvisorStore(advisors...),
		leads:    newMemoryLeadStore(leads...),
		sink:     &recordingSink{},
		notifier: &recordingNotifier{},
	}
	var svc *Service
	f.registry, f.timers = newTestRegistry(t, f.advisors, WithRestoreHook(func(tenantID string, a models.Advisor) {
		svc.RecordRestore(tenantID, a)
	}))
	svc = NewService(f.registry, f.leads, f.sink, f.notifier,
		models.AssignmentCriteria{Strategy: models.StrategyBalancedWorkload, MaxWorkload: 10},
		logger.NewTestLogger(t))
	svc.now = func() time.Time { return fixedNow }
	f.svc = svc
	return f
}

func lead(id, status, advisorID string, age time.Duration) models.Lead {
	return models.Lead{
		ID:             id,
		TenantID:       "tenant-1",
		Phone:          "+56912345678",
		Name:           "Cliente " + id,
		Source:         models.SourceWhatsApp,
		InitialMessage: "Quiero cotizar un Corolla",
		Quality:        models.QualityMedium,
		Status:         status,
		AdvisorID:      advisorID,
		CreatedAt:      fixedNow.Add(-age),
		UpdatedAt:      fixedNow.Add(-age),
	}
}

func TestService_Assign(t *testing.T) {
	carla := advisor("A", 3, 4, models.SpecialtyGeneral)
	carla.Email = "carla@automotora.cl"
	f := newServiceFixture(t,
		[]models.Advisor{carla, advisor("B", 1, 3, models.SpecialtyGeneral)},
		lead("lead-1", models.LeadStatusNew, "", time.Hour))

	decision, err := f.svc.Assign(context.Background(), "tenant-1", "lead-1", models.AssignmentCriteria{})
	require.NoError(t, err)

	assert.Equal(t, "B", decision.Advisor.ID)
	assert.Equal(t, 2, decision.Advisor.Workload)
	assert.Equal(t, models.StrategyBalancedWorkload, decision.Strategy)
	assert.Equal(t, fixedNow, decision.AssignedAt)
	assert.Equal(t, "B", f.leads.get("lead-1").AdvisorID)
	assert.Equal(t, []string{audit.EventLeadAssigned}, f.sink.events())
	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, "Asesor B", f.notifier.sent[0].Recipient.Name)
	assert.Contains(t, f.notifier.sent[0].Body, "Cliente lead-1")
}

func TestService_AssignIsIdempotent(t *testing.T) {
	f := newServiceFixture(t,
		[]models.Advisor{advisor("A", 3, 4, models.SpecialtyGeneral), advisor("B", 1, 3, models.SpecialtyGeneral)},
		lead("lead-1", models.LeadStatusContacted, "A", time.Hour))

	decision, err := f.svc.Assign(context.Background(), "tenant-1", "lead-1", models.AssignmentCriteria{})
	require.NoError(t, err)
	assert.Equal(t, "A", decision.Advisor.ID)
	assert.Equal(t, 3, decision.Advisor.Workload)
	assert.Equal(t, 1, f.advisors.get("B").Workload)
	assert.Empty(t, f.sink.events())
	assert.Empty(t, f.notifier.sent)
}

func TestService_AssignRejections(t *testing.T) {
	tests := []struct {
		name     string
		leadID   string
		criteria models.AssignmentCriteria
		wantCode apperrors.ErrorCode
	}{
		{name: "unknown lead", leadID: "ghost", wantCode: apperrors.ErrCodeNotFound},
		{name: "closed lead", leadID: "sold", wantCode: apperrors.ErrCodeInvalidTransition},
		{name: "unknown strategy", leadID: "open", criteria: models.AssignmentCriteria{Strategy: "random"}, wantCode: apperrors.ErrCodeValidation},
		{name: "unknown specialty", leadID: "open", criteria: models.AssignmentCriteria{PreferredSpecialty: "motos"}, wantCode: apperrors.ErrCodeValidation},
		{name: "negative workload", leadID: "open", criteria: models.AssignmentCriteria{MaxWorkload: -1}, wantCode: apperrors.ErrCodeValidation},
		{name: "everyone at capacity", leadID: "open", criteria: models.AssignmentCriteria{MaxWorkload: 1}, wantCode: apperrors.ErrCodeNoEligibleAdvisor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newServiceFixture(t,
				[]models.Advisor{advisor("A", 1, 4, models.SpecialtyGeneral)},
				lead("open", models.LeadStatusNew, "", time.Hour),
				lead("sold", models.LeadStatusSold, "", time.Hour))

			_, err := f.svc.Assign(context.Background(), "tenant-1", tt.leadID, tt.criteria)
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, tt.wantCode), "got %v", err)
			assert.Equal(t, 1, f.advisors.get("A").Workload)
		})
	}
}

func TestService_AssignCompensatesFailedLeadUpdate(t *testing.T) {
	f := newServiceFixture(t,
		[]models.Advisor{advisor("A", 2, 4, models.SpecialtyGeneral)},
		lead("lead-1", models.LeadStatusNew, "", time.Hour))
	f.leads.updateErr = apperrors.NewQueryTimeoutError("update lead")

	_, err := f.svc.Assign(context.Background(), "tenant-1", "lead-1", models.AssignmentCriteria{})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeQueryTimeout))

	a, _ := f.registry.Get(context.Background(), "tenant-1", "A")
	assert.Equal(t, 2, a.Workload)
	assert.Equal(t, 2, f.advisors.get("A").Workload)
}

func TestService_AssignLosingConcurrentWriterReleasesWorkload(t *testing.T) {
	f := newServiceFixture(t,
		[]models.Advisor{advisor("A", 0, 4, models.SpecialtyGeneral), advisor("B", 0, 4, models.SpecialtyGeneral)},
		lead("lead-1", models.LeadStatusNew, "", time.Hour))
	f.svc.leads = newBarrierLeadStore(f.leads, 2)

	var wg sync.WaitGroup
	decisions := make([]*models.AssignmentDecision, 2)
	errs := make([]error, 2)
	for i := range decisions {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			decisions[i], errs[i] = f.svc.Assign(context.Background(), "tenant-1", "lead-1", models.AssignmentCriteria{})
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	winner := f.leads.get("lead-1").AdvisorID
	require.NotEmpty(t, winner)
	assert.Equal(t, winner, decisions[0].Advisor.ID)
	assert.Equal(t, winner, decisions[1].Advisor.ID)

	assert.Equal(t, 1, f.advisors.get("A").Workload+f.advisors.get("B").Workload)
	assert.Equal(t, 1, f.advisors.get(winner).Workload)
	for _, id := range []string{"A", "B"} {
		cached, err := f.registry.Get(context.Background(), "tenant-1", id)
		require.NoError(t, err)
		assert.Equal(t, f.advisors.get(id).Workload, cached.Workload, id)
	}
	assert.Equal(t, []string{audit.EventLeadAssigned}, f.sink.events())
	assert.Len(t, f.notifier.sent, 1)
}

func TestService_AssignSurvivesNotificationFailure(t *testing.T) {
	f := newServiceFixture(t,
		[]models.Advisor{advisor("A", 0, 4, models.SpecialtyGeneral)},
		lead("lead-1", models.LeadStatusNew, "", time.Hour))
	f.notifier.err = errors.New("sns throttled")

	_, err := f.svc.Assign(context.Background(), "tenant-1", "lead-1", models.AssignmentCriteria{})
	assert.NoError(t, err)
}

func TestService_Reassign(t *testing.T) {
	f := newServiceFixture(t,
		[]models.Advisor{advisor("A", 4, 4, models.SpecialtyGeneral), advisor("B", 1, 3, models.SpecialtyGeneral)},
		lead("lead-1", models.LeadStatusQuoted, "A", time.Hour))

	result, err := f.svc.Reassign(context.Background(), "tenant-1", "lead-1", "A", "cliente pidió otro asesor", models.AssignmentCriteria{})
	require.NoError(t, err)

	assert.Equal(t, "A", result.PreviousAdvisorID)
	assert.Equal(t, "B", result.NewAdvisor.ID)
	assert.Equal(t, models.LeadStatusContacted, result.Lead.Status)
	assert.Equal(t, "cliente pidió otro asesor", result.Reason)
	assert.Equal(t, 3, f.advisors.get("A").Workload)
	assert.Equal(t, 2, f.advisors.get("B").Workload)
	assert.Equal(t, "B", f.leads.get("lead-1").AdvisorID)
	assert.Equal(t, []string{audit.EventLeadReassigned}, f.sink.events())
}

func TestService_ReassignLosingConcurrentWriterReleasesWorkload(t *testing.T) {
	f := newServiceFixture(t,
		[]models.Advisor{
			advisor("A", 1, 4, models.SpecialtyGeneral),
			advisor("B", 0, 4, models.SpecialtyGeneral),
			advisor("C", 0, 4, models.SpecialtyGeneral),
		},
		lead("lead-1", models.LeadStatusContacted, "A", time.Hour))
	f.svc.leads = newBarrierLeadStore(f.leads, 2)

	var wg sync.WaitGroup
	results := make([]*models.ReassignmentResult, 2)
	errs := make([]error, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.svc.Reassign(context.Background(), "tenant-1", "lead-1", "A", "cliente pidió otro asesor", models.AssignmentCriteria{})
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	winner := f.leads.get("lead-1").AdvisorID
	require.Contains(t, []string{"B", "C"}, winner)
	for _, r := range results {
		assert.Equal(t, "A", r.PreviousAdvisorID)
		assert.Equal(t, winner, r.NewAdvisor.ID)
		assert.Equal(t, winner, r.Lead.AdvisorID)
	}

	assert.Equal(t, 0, f.advisors.get("A").Workload, "previous advisor released once")
	assert.Equal(t, 1, f.advisors.get("B").Workload+f.advisors.get("C").Workload)
	assert.Equal(t, []string{audit.EventLeadReassigned}, f.sink.events())
}

func TestService_ReassignRejections(t *testing.T) {
	t.Run("wrong current advisor", func(t *testing.T) {
		f := newServiceFixture(t,
			[]models.Advisor{advisor("A", 1, 4, models.SpecialtyGeneral), advisor("B", 0, 4, models.SpecialtyGeneral)},
			lead("lead-1", models.LeadStatusContacted, "A", time.Hour))
		_, err := f.svc.Reassign(context.Background(), "tenant-1", "lead-1", "B", "", models.AssignmentCriteria{})
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidation))
	})

	t.Run("closed lead", func(t *testing.T) {
		f := newServiceFixture(t,
			[]models.Advisor{advisor("A", 1, 4, models.SpecialtyGeneral), advisor("B", 0, 4, models.SpecialtyGeneral)},
			lead("lead-1", models.LeadStatusLost, "A", time.Hour))
		_, err := f.svc.Reassign(context.Background(), "tenant-1", "lead-1", "A", "", models.AssignmentCriteria{})
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidTransition))
	})

	t.Run("no other advisor", func(t *testing.T) {
		f := newServiceFixture(t,
			[]models.Advisor{advisor("A", 1, 4, models.SpecialtyGeneral)},
			lead("lead-1", models.LeadStatusContacted, "A", time.Hour))
		_, err := f.svc.Reassign(context.Background(), "tenant-1", "lead-1", "", "", models.AssignmentCriteria{})
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNoEligibleAdvisor))
		assert.Equal(t, "A", f.leads.get("lead-1").AdvisorID)
		assert.Equal(t, 1, f.advisors.get("A").Workload)
	})
}

func TestService_UpdateAvailability(t *testing.T) {
	f := newServiceFixture(t, []models.Advisor{advisor("A", 0, 4, models.SpecialtyGeneral)})
	ctx := context.Background()

	_, err := f.svc.UpdateAvailability(ctx, "tenant-1", "A", false, "", -5)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidation))

	change, err := f.svc.UpdateAvailability(ctx, "tenant-1", "A", false, "capacitación", 45)
	require.NoError(t, err)
	assert.False(t, change.IsAvailable)
	assert.Equal(t, "capacitación", change.Reason)
	require.NotNil(t, change.RestoreAt)
	assert.Equal(t, fixedNow.Add(45*time.Minute), *change.RestoreAt)

	f.timers.last().fn()
	a, _ := f.registry.Get(ctx, "tenant-1", "A")
	assert.True(t, a.IsAvailable)
	assert.Equal(t, []string{audit.EventAvailabilityChanged, audit.EventAvailabilityRestored}, f.sink.events())
}

func TestService_ListAvailable(t *testing.T) {
	f := newServiceFixture(t, []models.Advisor{
		advisor("A", 2, 4, models.SpecialtyNewSales),
		advisor("B", 0, 3, models.SpecialtyNewSales),
		unavailable(advisor("C", 0, 5, models.SpecialtyNewSales)),
		advisor("D", 0, 5, models.SpecialtyFinancing),
	})

	got, err := f.svc.ListAvailable(context.Background(), "tenant-1", models.AdvisorFilter{
		Specialty:     models.SpecialtyNewSales,
		OnlyAvailable: true,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "A"}, ids(got))

	_, err = f.svc.ListAvailable(context.Background(), "tenant-1", models.AdvisorFilter{MinRating: 6})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidation))
}

func TestService_Rebalance(t *testing.T) {
	leads := []models.Lead{
		lead("l1", models.LeadStatusNew, "A", 5*time.Hour),
		lead("l2", models.LeadStatusContacted, "A", 4*time.Hour),
		lead("l3", models.LeadStatusQuoted, "A", 3*time.Hour),
		lead("l4", models.LeadStatusNew, "A", 2*time.Hour),
		lead("l5", models.LeadStatusNew, "A", time.Hour),
		lead("closed", models.LeadStatusSold, "A", 10*time.Hour),
	}
	f := newServiceFixture(t,
		[]models.Advisor{advisor("A", 5, 4, models.SpecialtyGeneral), advisor("B", 0, 3, models.SpecialtyGeneral)},
		leads...)

	report, err := f.svc.Rebalance(context.Background(), "tenant-1", 3)
	require.NoError(t, err)

	assert.Equal(t, "tenant-1", report.TenantID)
	assert.Equal(t, 0, report.Skipped)
	require.Len(t, report.Moves, 2)
	assert.Equal(t, "l5", report.Moves[0].LeadID, "newest leads move first")
	assert.Equal(t, "l4", report.Moves[1].LeadID)
	for _, m := range report.Moves {
		assert.Equal(t, "A", m.FromAdvisorID)
		assert.Equal(t, "B", m.ToAdvisorID)
	}
	assert.Equal(t, 3, f.advisors.get("A").Workload)
	assert.Equal(t, 2, f.advisors.get("B").Workload)
}

func TestService_RebalanceSkipsWhenNoCapacity(t *testing.T) {
	f := newServiceFixture(t,
		[]models.Advisor{advisor("A", 4, 4, models.SpecialtyGeneral), advisor("B", 2, 3, models.SpecialtyGeneral)},
		lead("l1", models.LeadStatusNew, "A", 2*time.Hour),
		lead("l2", models.LeadStatusNew, "A", time.Hour))

	report, err := f.svc.Rebalance(context.Background(), "tenant-1", 2)
	require.NoError(t, err)
	assert.Empty(t, report.Moves)
	assert.Equal(t, 2, report.Skipped)
	assert.Equal(t, 4, f.advisors.get("A").Workload)
}

func TestService_RebalanceNeedsLimit(t *testing.T) {
	f := newServiceFixture(t, nil)
	f.svc.defaults.MaxWorkload = 0
	_, err := f.svc.Rebalance(context.Background(), "tenant-1", 0)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidation))
}
