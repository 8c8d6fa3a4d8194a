// internal/workers/advisors/rebalance-workload/handler.go
package rebalanceworkload

import (
	"context"

	"dealership-workers/internal/common/camunda"
	"dealership-workers/internal/common/logger"
	"dealership-workers/internal/common/observability"
	"dealership-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType       = "rebalance-workload"
	ResultVariable = "rebalanceWorkloadResult"
)

// Rebalancer is shared with the scheduled rebalance in cmd/worker-manager.
type Rebalancer interface {
	Rebalance(ctx context.Context, tenantID string, maxWorkload int) (*models.RebalanceReport, error)
}

type Handler struct {
	config     *Config
	rebalancer Rebalancer
	runner     *camunda.Runner[Input, models.RebalanceReport]
}

func NewHandler(cfg *Config, rebalancer Rebalancer, log logger.Logger, obs *observability.Observability) *Handler {
	h := &Handler{config: cfg, rebalancer: rebalancer}
	h.runner = camunda.NewRunner(camunda.RunnerConfig{
		TaskType:       TaskType,
		ResultVariable: ResultVariable,
		Timeout:        cfg.Timeout,
		Schema:         inputSchema,
	}, h.Execute, log, obs)
	return h
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.runner.Handle(client, job)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*models.RebalanceReport, error) {
	return h.rebalancer.Rebalance(ctx, input.TenantID, input.MaxWorkload)
}
