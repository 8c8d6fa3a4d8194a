// internal/workers/message-analysis/extract-entities/handler.go
package extractentities

import (
	"context"

	"dealership-workers/internal/analysis"
	"dealership-workers/internal/archive"
	"dealership-workers/internal/common/camunda"
	"dealership-workers/internal/common/logger"
	"dealership-workers/internal/common/observability"
	"dealership-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType       = "extract-entities"
	ResultVariable = "extractEntitiesResult"
)

type Handler struct {
	config    *Config
	extractor *analysis.Extractor
	archive   archive.Archiver
	logger    logger.Logger
	runner    *camunda.Runner[Input, models.ExtractedEntities]
}

func NewHandler(cfg *Config, extractor *analysis.Extractor, archiver archive.Archiver, log logger.Logger, obs *observability.Observability) *Handler {
	if archiver == nil {
		archiver = archive.Nop{}
	}
	h := &Handler{
		config:    cfg,
		extractor: extractor,
		archive:   archiver,
		logger:    log.WithFields(map[string]interface{}{"taskType": TaskType}),
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

func (h *Handler) Execute(ctx context.Context, input *Input) (*models.ExtractedEntities, error) {
	var (
		found models.ExtractedEntities
		err   error
	)
	if len(input.EntityTypes) > 0 {
		found, err = h.extractor.ExtractTypes(input.Text, input.EntityTypes)
		if err != nil {
			return nil, err
		}
	} else {
		found = h.extractor.Extract(input.Text)
	}

	h.logger.Debug("entities extracted", map[string]interface{}{
		"tenantId":  input.TenantID,
		"messageId": input.MessageID,
		"count":     found.Count(),
	})

	if h.config.Archive {
		rec := archive.Record{
			TenantID:  input.TenantID,
			Kind:      archive.KindEntities,
			MessageID: input.MessageID,
			Text:      input.Text,
			Result:    found,
		}
		if err := h.archive.Archive(ctx, rec); err != nil {
			h.logger.Warn("entity extraction not archived", map[string]interface{}{
				"tenantId": input.TenantID,
				"error":    err.Error(),
			})
		}
	}
	return &found, nil
}
