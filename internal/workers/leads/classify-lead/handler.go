// internal/workers/leads/classify-lead/handler.go
package classifylead

import (
	"context"

	"dealership-workers/internal/analysis"
	"dealership-workers/internal/common/camunda"
	"dealership-workers/internal/common/logger"
	"dealership-workers/internal/common/metrics"
	"dealership-workers/internal/common/observability"
	"dealership-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType       = "classify-lead"
	ResultVariable = "classifyLeadResult"
)

type LeadGetter interface {
	Get(ctx context.Context, tenantID, id string) (*models.Lead, error)
}

type Handler struct {
	config     *Config
	classifier *analysis.LeadClassifier
	leads      LeadGetter
	logger     logger.Logger
	runner     *camunda.Runner[Input, models.LeadClassification]
}

func NewHandler(cfg *Config, classifier *analysis.LeadClassifier, leads LeadGetter, log logger.Logger, obs *observability.Observability) *Handler {
	h := &Handler{
		config:     cfg,
		classifier: classifier,
		leads:      leads,
		logger:     log.WithFields(map[string]interface{}{"taskType": TaskType}),
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

func (h *Handler) Execute(ctx context.Context, input *Input) (*models.LeadClassification, error) {
	var lead *models.Lead
	if input.LeadID != "" && h.leads != nil {
		found, err := h.leads.Get(ctx, input.TenantID, input.LeadID)
		if err != nil {
			return nil, err
		}
		lead = found
	}

	result, err := h.classifier.Classify(input.Text, lead)
	if err != nil {
		return nil, err
	}
	metrics.MessageClassifications.WithLabelValues("lead", result.Quality).Inc()

	h.logger.Debug("lead classified", map[string]interface{}{
		"tenantId":   input.TenantID,
		"leadId":     input.LeadID,
		"quality":    result.Quality,
		"totalScore": result.TotalScore,
	})
	return result, nil
}
