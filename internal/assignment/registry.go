// Package assignment matches leads to advisors. The Registry caches the
// shared advisor state (workload, availability, round-robin cursor) and
// serializes every mutation per advisor. The AdvisorStore stays the authority
// for workload, so several worker replicas can share one advisors table.
package assignment

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	apperrors "dealership-workers/internal/common/errors"
	"dealership-workers/internal/common/logger"
	"dealership-workers/internal/common/metrics"
	"dealership-workers/internal/models"
)

const (
	maxStrictAttempts  = 5
	maxReserveAttempts = 2 * maxStrictAttempts
	restoreTimeout     = 10 * time.Second
	restoreRetryDelay  = time.Minute

	DefaultRefreshInterval = 30 * time.Second
)

// Timer is the handle of a scheduled availability restore.
type Timer interface {
	Stop() bool
}

type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type advisorState struct {
	mu      sync.Mutex
	advisor models.Advisor
	timer   Timer
	// generation changes on every availability write so a timer that
	// already fired cannot undo a newer manual change.
	generation uint64
}

type tenantState struct {
	mu       sync.RWMutex
	advisors map[string]*advisorState
	// rrMu keeps cursor read, reservation and cursor write atomic.
	rrMu sync.Mutex

	refreshedAt time.Time
}

func (ts *tenantState) get(id string) (*advisorState, bool) {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	st, ok := ts.advisors[id]
	return st, ok
}

func (ts *tenantState) snapshot() []models.Advisor {
	ts.mu.RLock()
	states := make([]*advisorState, 0, len(ts.advisors))
	for _, st := range ts.advisors {
		states = append(states, st)
	}
	ts.mu.RUnlock()

	out := make([]models.Advisor, 0, len(states))
	for _, st := range states {
		st.mu.Lock()
		out = append(out, st.advisor)
		st.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type Registry struct {
	store     AdvisorStore
	cursor    Cursor
	logger    logger.Logger
	afterFunc AfterFunc
	now       func() time.Time
	onRestore func(tenantID string, advisor models.Advisor)
	// refreshEvery re-reads a tenant's advisors once the cache is older; zero disables it.
	refreshEvery time.Duration

	mu      sync.Mutex
	tenants map[string]*tenantState
}

type RegistryOption func(*Registry)

// WithClock replaces the wall clock and timer scheduling, mainly for tests.
func WithClock(now func() time.Time, after AfterFunc) RegistryOption {
	return func(r *Registry) {
		r.now = now
		r.afterFunc = after
	}
}

// WithRefreshInterval sets how long cached advisors are trusted before the
// store is read again. Zero keeps them until Refresh is called.
func WithRefreshInterval(d time.Duration) RegistryOption {
	return func(r *Registry) {
		r.refreshEvery = d
	}
}

// WithRestoreHook is called after a scheduled restore made an advisor available.
func WithRestoreHook(fn func(tenantID string, advisor models.Advisor)) RegistryOption {
	return func(r *Registry) {
		r.onRestore = fn
	}
}

func NewRegistry(store AdvisorStore, cursor Cursor, log logger.Logger, opts ...RegistryOption) *Registry {
	r := &Registry{
		store:     store,
		cursor:    cursor,
		logger:    log.WithFields(map[string]interface{}{"component": "advisor-registry"}),
		afterFunc:    realAfterFunc,
		now:          func() time.Time { return time.Now().UTC() },
		refreshEvery: DefaultRefreshInterval,
		tenants:      make(map[string]*tenantState),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// tenant returns the hydrated state for tenantID, loading it on first use.
func (r *Registry) tenant(ctx context.Context, tenantID string) (*tenantState, error) {
	if tenantID == "" {
		return nil, apperrors.NewValidationError("tenantId is required")
	}

	r.mu.Lock()
	ts, ok := r.tenants[tenantID]
	r.mu.Unlock()
	if ok {
		return ts, nil
	}

	advisors, err := r.store.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	ts = &tenantState{advisors: make(map[string]*advisorState, len(advisors)), refreshedAt: r.now()}
	for _, a := range advisors {
		ts.advisors[a.ID] = &advisorState{advisor: a}
	}

	r.mu.Lock()
	if existing, ok := r.tenants[tenantID]; ok {
		r.mu.Unlock()
		return existing, nil
	}
	r.tenants[tenantID] = ts
	r.mu.Unlock()

	for _, st := range ts.advisors {
		r.resumeRestore(tenantID, st)
	}
	return ts, nil
}

// current returns the tenant state, re-reading the store first when the
// cache is older than the refresh interval.
func (r *Registry) current(ctx context.Context, tenantID string) (*tenantState, error) {
	ts, err := r.tenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if r.refreshEvery <= 0 {
		return ts, nil
	}
	ts.mu.RLock()
	stale := r.now().Sub(ts.refreshedAt) >= r.refreshEvery
	ts.mu.RUnlock()
	if !stale {
		return ts, nil
	}
	if err := r.refresh(ctx, tenantID, ts); err != nil {
		return nil, err
	}
	return ts, nil
}

// Refresh re-reads the tenant's advisors from the store. Stored workload and
// availability replace the cached values; advisors gone from the store are
// dropped.
func (r *Registry) Refresh(ctx context.Context, tenantID string) error {
	ts, err := r.tenant(ctx, tenantID)
	if err != nil {
		return err
	}
	return r.refresh(ctx, tenantID, ts)
}

func (r *Registry) refresh(ctx context.Context, tenantID string, ts *tenantState) error {
	advisors, err := r.store.ListByTenant(ctx, tenantID)
	if err != nil {
		return err
	}

	seen := make(map[string]bool, len(advisors))
	var added []*advisorState

	ts.mu.Lock()
	for _, a := range advisors {
		seen[a.ID] = true
		st, ok := ts.advisors[a.ID]
		if !ok {
			st = &advisorState{advisor: a}
			ts.advisors[a.ID] = st
			added = append(added, st)
			continue
		}
		st.mu.Lock()
		r.mergeLocked(tenantID, st, a)
		st.mu.Unlock()
	}
	for id, st := range ts.advisors {
		if seen[id] {
			continue
		}
		st.mu.Lock()
		r.cancelRestoreLocked(st)
		st.mu.Unlock()
		delete(ts.advisors, id)
	}
	ts.refreshedAt = r.now()
	ts.mu.Unlock()

	for _, st := range added {
		r.resumeRestore(tenantID, st)
	}
	return nil
}

// reload re-reads one advisor, adding it to the cache when it is new there
// and dropping it when the store no longer has it.
func (r *Registry) reload(ctx context.Context, tenantID string, ts *tenantState, advisorID string) error {
	stored, err := r.store.Get(ctx, tenantID, advisorID)
	if apperrors.HasCode(err, apperrors.ErrCodeNotFound) {
		ts.mu.Lock()
		if st, ok := ts.advisors[advisorID]; ok {
			st.mu.Lock()
			r.cancelRestoreLocked(st)
			st.mu.Unlock()
			delete(ts.advisors, advisorID)
		}
		ts.mu.Unlock()
		return nil
	}
	if err != nil {
		return err
	}
	ts.mu.Lock()
	st, ok := ts.advisors[advisorID]
	if !ok {
		st = &advisorState{advisor: *stored}
		ts.advisors[advisorID] = st
	}
	ts.mu.Unlock()

	if !ok {
		r.resumeRestore(tenantID, st)
		return nil
	}
	st.mu.Lock()
	r.mergeLocked(tenantID, st, *stored)
	st.mu.Unlock()
	return nil
}

// lookup finds a cached advisor, reading the store once on a cache miss.
func (r *Registry) lookup(ctx context.Context, tenantID string, ts *tenantState, advisorID string) (*advisorState, error) {
	if st, ok := ts.get(advisorID); ok {
		return st, nil
	}
	if err := r.reload(ctx, tenantID, ts, advisorID); err != nil {
		return nil, err
	}
	if st, ok := ts.get(advisorID); ok {
		return st, nil
	}
	return nil, apperrors.NewNotFoundError("advisor", advisorID)
}

// mergeLocked adopts a stored row. An availability change made elsewhere
// replaces the local restore timer with one matching the stored restoreAt.
func (r *Registry) mergeLocked(tenantID string, st *advisorState, stored models.Advisor) {
	changed := st.advisor.IsAvailable != stored.IsAvailable || !sameInstant(st.advisor.RestoreAt, stored.RestoreAt)
	st.advisor = stored
	if !changed {
		return
	}
	r.cancelRestoreLocked(st)
	if !stored.IsAvailable && stored.RestoreAt != nil {
		delay := stored.RestoreAt.Sub(r.now())
		if delay < 0 {
			delay = 0
		}
		r.scheduleRestoreLocked(tenantID, st, delay)
	}
}

func sameInstant(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

// Snapshot copies the tenant's advisors, ordered by id.
func (r *Registry) Snapshot(ctx context.Context, tenantID string) ([]models.Advisor, error) {
	ts, err := r.current(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return ts.snapshot(), nil
}

func (r *Registry) Get(ctx context.Context, tenantID, advisorID string) (models.Advisor, error) {
	ts, err := r.current(ctx, tenantID)
	if err != nil {
		return models.Advisor{}, err
	}
	st, err := r.lookup(ctx, tenantID, ts, advisorID)
	if err != nil {
		return models.Advisor{}, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.advisor, nil
}

// Reserve selects an advisor for criteria and increments its workload. The
// choice is re-validated under the advisor's lock and again by the store's
// guarded increment; when either finds the advisor changed, selection runs
// again on fresh data.
func (r *Registry) Reserve(ctx context.Context, tenantID string, criteria models.AssignmentCriteria, exclude ...string) (models.Advisor, error) {
	ts, err := r.current(ctx, tenantID)
	if err != nil {
		return models.Advisor{}, err
	}

	roundRobin := criteria.Strategy == models.StrategyRoundRobin
	last := ""
	if roundRobin {
		ts.rrMu.Lock()
		defer ts.rrMu.Unlock()
		if last, err = r.cursor.Last(ctx, tenantID); err != nil {
			return models.Advisor{}, err
		}
	}

	for attempt := 1; attempt <= maxReserveAttempts; attempt++ {
		chosen, err := Select(without(ts.snapshot(), exclude), criteria, last)
		if err != nil {
			return models.Advisor{}, err
		}
		st, ok := ts.get(chosen.ID)
		if !ok {
			continue
		}

		reserved, outcome, err := r.tryReserve(ctx, tenantID, st, chosen, criteria, attempt < maxStrictAttempts)
		if err != nil {
			return models.Advisor{}, err
		}
		if outcome != reserveOK {
			metrics.AssignmentConflicts.Inc()
			if outcome == reserveStoreRefused {
				if err := r.reload(ctx, tenantID, ts, chosen.ID); err != nil {
					return models.Advisor{}, err
				}
			}
			continue
		}

		if roundRobin {
			if err := r.cursor.Set(ctx, tenantID, reserved.ID); err != nil {
				r.logger.Warn("round-robin cursor not advanced", map[string]interface{}{
					"tenantId":  tenantID,
					"advisorId": reserved.ID,
					"error":     err,
				})
			}
		}
		return reserved, nil
	}

	return models.Advisor{}, apperrors.NewTimeoutError("advisor registry", errors.New("advisor selection kept losing to concurrent assignments"))
}

type reserveOutcome int

const (
	reserveOK reserveOutcome = iota
	// reserveRaced: another request in this process changed the advisor.
	reserveRaced
	// reserveStoreRefused: the stored row no longer qualifies, usually
	// because another replica or an admin changed it.
	reserveStoreRefused
)

func (r *Registry) tryReserve(ctx context.Context, tenantID string, st *advisorState, observed models.Advisor, criteria models.AssignmentCriteria, strict bool) (models.Advisor, reserveOutcome, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	current := st.advisor
	if !eligible(current, criteria) {
		return models.Advisor{}, reserveRaced, nil
	}
	if strict && current.Workload != observed.Workload {
		return models.Advisor{}, reserveRaced, nil
	}

	workload, ok, err := r.store.IncrementWorkload(ctx, tenantID, current.ID, criteria.MaxWorkload)
	if err != nil {
		return models.Advisor{}, reserveRaced, err
	}
	if !ok {
		return models.Advisor{}, reserveStoreRefused, nil
	}
	st.advisor.Workload = workload
	return st.advisor, reserveOK, nil
}

// Release gives one unit of workload back. Workload never drops below zero.
func (r *Registry) Release(ctx context.Context, tenantID, advisorID string) (models.Advisor, error) {
	ts, err := r.tenant(ctx, tenantID)
	if err != nil {
		return models.Advisor{}, err
	}
	st, err := r.lookup(ctx, tenantID, ts, advisorID)
	if err != nil {
		return models.Advisor{}, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	workload, err := r.store.DecrementWorkload(ctx, tenantID, advisorID)
	if err != nil {
		return models.Advisor{}, err
	}
	st.advisor.Workload = workload
	return st.advisor, nil
}

// SetAvailability flips availability. When an advisor goes unavailable with
// restoreAfter > 0 a restore is scheduled; any earlier pending restore is
// cancelled either way.
func (r *Registry) SetAvailability(ctx context.Context, tenantID, advisorID string, available bool, reason string, restoreAfter time.Duration) (models.Advisor, error) {
	ts, err := r.tenant(ctx, tenantID)
	if err != nil {
		return models.Advisor{}, err
	}
	st, err := r.lookup(ctx, tenantID, ts, advisorID)
	if err != nil {
		return models.Advisor{}, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	var restoreAt *time.Time
	if available {
		reason = ""
	} else if restoreAfter > 0 {
		t := r.now().Add(restoreAfter)
		restoreAt = &t
	}

	if err := r.store.UpdateAvailability(ctx, tenantID, advisorID, available, reason, restoreAt); err != nil {
		return models.Advisor{}, err
	}

	r.cancelRestoreLocked(st)
	st.advisor.IsAvailable = available
	st.advisor.UnavailableReason = reason
	st.advisor.RestoreAt = restoreAt
	if restoreAt != nil {
		r.scheduleRestoreLocked(tenantID, st, restoreAfter)
	}
	return st.advisor, nil
}

// Close stops every pending restore timer.
func (r *Registry) Close() {
	r.mu.Lock()
	tenants := make([]*tenantState, 0, len(r.tenants))
	for _, ts := range r.tenants {
		tenants = append(tenants, ts)
	}
	r.mu.Unlock()

	for _, ts := range tenants {
		ts.mu.RLock()
		for _, st := range ts.advisors {
			st.mu.Lock()
			r.cancelRestoreLocked(st)
			st.mu.Unlock()
		}
		ts.mu.RUnlock()
	}
}

// resumeRestore re-arms a restore persisted before the process started.
func (r *Registry) resumeRestore(tenantID string, st *advisorState) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.advisor.IsAvailable || st.advisor.RestoreAt == nil || st.timer != nil {
		return
	}
	delay := st.advisor.RestoreAt.Sub(r.now())
	if delay < 0 {
		delay = 0
	}
	r.scheduleRestoreLocked(tenantID, st, delay)
}

func (r *Registry) cancelRestoreLocked(st *advisorState) {
	if st.timer != nil {
		st.timer.Stop()
		st.timer = nil
	}
	st.generation++
}

func (r *Registry) scheduleRestoreLocked(tenantID string, st *advisorState, delay time.Duration) {
	gen := st.generation
	st.timer = r.afterFunc(delay, func() { r.restore(tenantID, st, gen) })
}

func (r *Registry) restore(tenantID string, st *advisorState, gen uint64) {
	st.mu.Lock()
	if st.generation != gen {
		st.mu.Unlock()
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), restoreTimeout)
	defer cancel()

	if err := r.store.UpdateAvailability(ctx, tenantID, st.advisor.ID, true, "", nil); err != nil {
		r.logger.Error("availability restore failed, retrying", map[string]interface{}{
			"tenantId":  tenantID,
			"advisorId": st.advisor.ID,
			"error":     err,
		})
		st.timer = r.afterFunc(restoreRetryDelay, func() { r.restore(tenantID, st, gen) })
		st.mu.Unlock()
		return
	}

	st.timer = nil
	st.generation++
	st.advisor.IsAvailable = true
	st.advisor.UnavailableReason = ""
	st.advisor.RestoreAt = nil
	advisor := st.advisor
	st.mu.Unlock()

	r.logger.Info("advisor availability restored", map[string]interface{}{
		"tenantId":  tenantID,
		"advisorId": advisor.ID,
	})
	if r.onRestore != nil {
		r.onRestore(tenantID, advisor)
	}
}

func without(advisors []models.Advisor, exclude []string) []models.Advisor {
	if len(exclude) == 0 {
		return advisors
	}
	skip := make(map[string]bool, len(exclude))
	for _, id := range exclude {
		skip[id] = true
	}
	out := advisors[:0]
	for _, a := range advisors {
		if !skip[a.ID] {
			out = append(out, a)
		}
	}
	return out
}
