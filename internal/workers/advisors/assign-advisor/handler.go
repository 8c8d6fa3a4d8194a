// internal/workers/advisors/assign-advisor/handler.go
package assignadvisor

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
	TaskType       = "assign-advisor"
	ResultVariable = "assignAdvisorResult"
)

type Assigner interface {
	Assign(ctx context.Context, tenantID, leadID string, criteria models.AssignmentCriteria) (*models.AssignmentDecision, error)
}

type Handler struct {
	config   *Config
	assigner Assigner
	runner   *camunda.Runner[Input, models.AssignmentDecision]
}

func NewHandler(cfg *Config, assigner Assigner, log logger.Logger, obs *observability.Observability) *Handler {
	h := &Handler{config: cfg, assigner: assigner}
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

func (h *Handler) Execute(ctx context.Context, input *Input) (*models.AssignmentDecision, error) {
	return h.assigner.Assign(ctx, input.TenantID, input.LeadID, input.Criteria)
}
