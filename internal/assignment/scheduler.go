package assignment

import (
	"context"
	"fmt"
	"time"

	"dealership-workers/internal/common/logger"
	"dealership-workers/internal/models"

	"github.com/robfig/cron/v3"
)

const scheduledRebalanceTimeout = 2 * time.Minute

// Accepts 5-field, 6-field (seconds) and @descriptor specs.
var cronParser = cron.NewParser(
	cron.SecondOptional |
		cron.Minute |
		cron.Hour |
		cron.Dom |
		cron.Month |
		cron.Dow |
		cron.Descriptor,
)

type Rebalancer interface {
	Rebalance(ctx context.Context, tenantID string, maxWorkload int) (*models.RebalanceReport, error)
}

// RebalanceScheduler runs Rebalance for a fixed tenant list on a cron
// schedule. A run still in progress makes the next tick a no-op.
type RebalanceScheduler struct {
	cron       *cron.Cron
	rebalancer Rebalancer
	tenants    []string
	logger     logger.Logger
}

func NewRebalanceScheduler(spec string, tenants []string, rebalancer Rebalancer, log logger.Logger) (*RebalanceScheduler, error) {
	s := &RebalanceScheduler{
		cron:       cron.New(cron.WithParser(cronParser), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		rebalancer: rebalancer,
		tenants:    tenants,
		logger:     log.WithFields(map[string]interface{}{"component": "rebalance-scheduler"}),
	}
	if _, err := s.cron.AddFunc(spec, s.RunOnce); err != nil {
		return nil, fmt.Errorf("invalid rebalance schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *RebalanceScheduler) Start() {
	s.cron.Start()
	s.logger.Info("rebalance scheduler started", map[string]interface{}{"tenants": s.tenants})
}

// Stop halts the schedule and waits for a running pass to finish or ctx to expire.
func (s *RebalanceScheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// RunOnce rebalances every tenant with the configured default limit. One
// tenant failing does not stop the others.
func (s *RebalanceScheduler) RunOnce() {
	for _, tenantID := range s.tenants {
		ctx, cancel := context.WithTimeout(context.Background(), scheduledRebalanceTimeout)
		report, err := s.rebalancer.Rebalance(ctx, tenantID, 0)
		cancel()
		if err != nil {
			s.logger.Error("scheduled rebalance failed", map[string]interface{}{
				"tenantId": tenantID,
				"error":    err.Error(),
			})
			continue
		}
		s.logger.Debug("scheduled rebalance done", map[string]interface{}{
			"tenantId": tenantID,
			"moves":    len(report.Moves),
			"skipped":  report.Skipped,
		})
	}
}
