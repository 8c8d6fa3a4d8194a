// internal/workers/advisors/update-advisor-availability/handler.go
package updateadvisoravailability

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
	TaskType       = "update-advisor-availability"
	ResultVariable = "updateAdvisorAvailabilityResult"
)

type AvailabilityUpdater interface {
	UpdateAvailability(ctx context.Context, tenantID, advisorID string, available bool, reason string, autoRestoreMinutes int) (*models.AvailabilityChange, error)
}

type Handler struct {
	config  *Config
	updater AvailabilityUpdater
	logger  logger.Logger
	runner  *camunda.Runner[Input, models.AvailabilityChange]
}

func NewHandler(cfg *Config, updater AvailabilityUpdater, log logger.Logger, obs *observability.Observability) *Handler {
	h := &Handler{
		config:  cfg,
		updater: updater,
		logger:  log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
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

func (h *Handler) Execute(ctx context.Context, input *Input) (*models.AvailabilityChange, error) {
	change, err := h.updater.UpdateAvailability(ctx, input.TenantID, input.AdvisorID, input.IsAvailable, input.Reason, input.AutoRestoreMinutes)
	if err != nil {
		return nil, err
	}
	if input.IsAvailable && input.AutoRestoreMinutes > 0 {
		h.logger.Debug("autoRestoreMinutes ignored for an available advisor", map[string]interface{}{
			"advisorId": input.AdvisorID,
		})
	}
	return change, nil
}
