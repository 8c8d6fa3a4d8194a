// internal/workers/message-analysis/classify-intent/handler.go
package classifyintent

import (
	"context"

	"dealership-workers/internal/analysis"
	"dealership-workers/internal/archive"
	"dealership-workers/internal/common/camunda"
	"dealership-workers/internal/common/logger"
	"dealership-workers/internal/common/metrics"
	"dealership-workers/internal/common/observability"
	"dealership-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType       = "classify-intent"
	ResultVariable = "classifyIntentResult"
)

type Handler struct {
	config  *Config
	engine  *analysis.Engine
	archive archive.Archiver
	logger  logger.Logger
	runner  *camunda.Runner[Input, models.ClassificationResult]
}

func NewHandler(cfg *Config, engine *analysis.Engine, archiver archive.Archiver, log logger.Logger, obs *observability.Observability) *Handler {
	if archiver == nil {
		archiver = archive.Nop{}
	}
	h := &Handler{
		config:  cfg,
		engine:  engine,
		archive: archiver,
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

func (h *Handler) Execute(ctx context.Context, input *Input) (*models.ClassificationResult, error) {
	result, err := h.engine.Intent.Classify(models.Message{
		Text:            input.Text,
		BusinessContext: input.BusinessContext,
	})
	if err != nil {
		return nil, err
	}
	if input.IncludeEntities {
		found := h.engine.Extractor.Extract(input.Text)
		result.Entities = &found
	}

	metrics.MessageClassifications.WithLabelValues("intent", result.PrimaryIntent).Inc()
	h.logger.Info("intent classified", map[string]interface{}{
		"tenantId":      input.TenantID,
		"messageId":     input.MessageID,
		"primaryIntent": result.PrimaryIntent,
		"confidence":    result.Confidence,
		"urgency":       result.Urgency,
	})

	if h.config.Archive {
		err := h.archive.Archive(ctx, archive.Record{
			TenantID:  input.TenantID,
			Kind:      archive.KindIntent,
			MessageID: input.MessageID,
			Text:      input.Text,
			Result:    result,
		})
		if err != nil {
			h.logger.Warn("intent classification not archived", map[string]interface{}{
				"tenantId": input.TenantID,
				"error":    err.Error(),
			})
		}
	}
	return result, nil
}
