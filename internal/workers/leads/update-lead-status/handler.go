// internal/workers/leads/update-lead-status/handler.go
package updateleadstatus

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
	TaskType       = "update-lead-status"
	ResultVariable = "updateLeadStatusResult"
)

type StatusUpdater interface {
	UpdateStatus(ctx context.Context, tenantID, id, status, reason string) (*models.Lead, error)
}

type Handler struct {
	config  *Config
	updater StatusUpdater
	runner  *camunda.Runner[Input, models.Lead]
}

func NewHandler(cfg *Config, updater StatusUpdater, log logger.Logger, obs *observability.Observability) *Handler {
	h := &Handler{config: cfg, updater: updater}
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

func (h *Handler) Execute(ctx context.Context, input *Input) (*models.Lead, error) {
	return h.updater.UpdateStatus(ctx, input.TenantID, input.LeadID, input.Status, input.Reason)
}
