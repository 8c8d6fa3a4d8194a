// internal/workers/leads/create-lead/handler.go
package createlead

import (
	"context"

	"dealership-workers/internal/common/camunda"
	"dealership-workers/internal/common/logger"
	"dealership-workers/internal/common/observability"
	"dealership-workers/internal/leads"
	"dealership-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType       = "create-lead"
	ResultVariable = "createLeadResult"
)

// LeadCreator is the slice of leads.Service this worker needs.
type LeadCreator interface {
	CreateLead(ctx context.Context, tenantID string, in leads.CreateLeadInput) (*models.Lead, error)
}

type Handler struct {
	config  *Config
	creator LeadCreator
	logger  logger.Logger
	runner  *camunda.Runner[Input, models.Lead]
}

func NewHandler(cfg *Config, creator LeadCreator, log logger.Logger, obs *observability.Observability) *Handler {
	h := &Handler{
		config:  cfg,
		creator: creator,
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

func (h *Handler) Execute(ctx context.Context, input *Input) (*models.Lead, error) {
	return h.creator.CreateLead(ctx, input.TenantID, leads.CreateLeadInput{
		Phone:   input.Phone,
		Name:    input.Name,
		Source:  input.Source,
		Message: input.Message,
		Quality: input.Quality,
	})
}
