// internal/workers/message-analysis/generate-response/handler.go
package generateresponse

import (
	"context"

	"dealership-workers/internal/analysis"
	"dealership-workers/internal/common/camunda"
	"dealership-workers/internal/common/logger"
	"dealership-workers/internal/common/observability"
	"dealership-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType       = "generate-response"
	ResultVariable = "generateResponseResult"
)

type Handler struct {
	config    *Config
	responder *analysis.Responder
	logger    logger.Logger
	runner    *camunda.Runner[Input, models.GeneratedResponse]
}

func NewHandler(cfg *Config, responder *analysis.Responder, log logger.Logger, obs *observability.Observability) *Handler {
	h := &Handler{
		config:    cfg,
		responder: responder,
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

func (h *Handler) Execute(_ context.Context, input *Input) (*models.GeneratedResponse, error) {
	responseType := input.ResponseType
	if responseType == "" {
		responseType = h.config.DefaultType
	}

	response, err := h.responder.Generate(
		models.Message{Text: input.Text, BusinessContext: input.BusinessContext},
		responseType,
		analysis.ResponseContext{
			CustomerName:   input.CustomerName,
			AdvisorName:    input.AdvisorName,
			DealershipName: input.DealershipName,
			Intent:         input.Intent,
		},
	)
	if err != nil {
		return nil, err
	}

	if response.RequiresHumanReview {
		h.logger.Info("response flagged for human review", map[string]interface{}{
			"tenantId": input.TenantID,
			"intent":   response.Intent,
		})
	}
	return response, nil
}
