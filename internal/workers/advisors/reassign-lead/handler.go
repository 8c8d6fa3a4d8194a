// internal/workers/advisors/reassign-lead/handler.go
package reassignlead

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
	TaskType       = "reassign-lead"
	ResultVariable = "reassignLeadResult"
)

type Reassigner interface {
	Reassign(ctx context.Context, tenantID, leadID, currentAdvisorID, reason string, criteria models.AssignmentCriteria) (*models.ReassignmentResult, error)
}

type Handler struct {
	config     *Config
	reassigner Reassigner
	runner     *camunda.Runner[Input, models.ReassignmentResult]
}

func NewHandler(cfg *Config, reassigner Reassigner, log logger.Logger, obs *observability.Observability) *Handler {
	h := &Handler{config: cfg, reassigner: reassigner}
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

func (h *Handler) Execute(ctx context.Context, input *Input) (*models.ReassignmentResult, error) {
	return h.reassigner.Reassign(ctx, input.TenantID, input.LeadID, input.CurrentAdvisorID, input.Reason, input.Criteria)
}
