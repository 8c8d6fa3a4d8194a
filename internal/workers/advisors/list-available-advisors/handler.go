// internal/workers/advisors/list-available-advisors/handler.go
package listavailableadvisors

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
	TaskType       = "list-available-advisors"
	ResultVariable = "listAvailableAdvisorsResult"
)

type AdvisorLister interface {
	ListAvailable(ctx context.Context, tenantID string, filter models.AdvisorFilter) ([]models.Advisor, error)
}

type Handler struct {
	config *Config
	lister AdvisorLister
	runner *camunda.Runner[Input, Output]
}

func NewHandler(cfg *Config, lister AdvisorLister, log logger.Logger, obs *observability.Observability) *Handler {
	h := &Handler{config: cfg, lister: lister}
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

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	advisors, err := h.lister.ListAvailable(ctx, input.TenantID, input.Filter())
	if err != nil {
		return nil, err
	}
	if advisors == nil {
		advisors = []models.Advisor{}
	}
	return &Output{Advisors: advisors, Count: len(advisors)}, nil
}
