// internal/workers/message-analysis/analyze-sentiment/handler.go
package analyzesentiment

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
	TaskType       = "analyze-sentiment"
	ResultVariable = "analyzeSentimentResult"
)

type Handler struct {
	config     *Config
	classifier *analysis.SentimentClassifier
	archive    archive.Archiver
	logger     logger.Logger
	runner     *camunda.Runner[Input, models.SentimentResult]
}

func NewHandler(cfg *Config, classifier *analysis.SentimentClassifier, archiver archive.Archiver, log logger.Logger, obs *observability.Observability) *Handler {
	if archiver == nil {
		archiver = archive.Nop{}
	}
	h := &Handler{
		config:     cfg,
		classifier: classifier,
		archive:    archiver,
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

func (h *Handler) Execute(ctx context.Context, input *Input) (*models.SentimentResult, error) {
	result, err := h.classifier.Classify(input.Text)
	if err != nil {
		return nil, err
	}
	metrics.MessageClassifications.WithLabelValues("sentiment", result.Polarity).Inc()

	if h.config.Archive {
		err := h.archive.Archive(ctx, archive.Record{
			TenantID:  input.TenantID,
			Kind:      archive.KindSentiment,
			MessageID: input.MessageID,
			Text:      input.Text,
			Result:    result,
		})
		if err != nil {
			h.logger.Warn("sentiment not archived", map[string]interface{}{
				"tenantId": input.TenantID,
				"error":    err.Error(),
			})
		}
	}
	return result, nil
}
