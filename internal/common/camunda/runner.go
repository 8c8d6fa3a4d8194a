// internal/common/camunda/runner.go
package camunda

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	apperrors "dealership-workers/internal/common/errors"
	"dealership-workers/internal/common/logger"
	"dealership-workers/internal/common/metrics"
	"dealership-workers/internal/common/observability"
	"dealership-workers/internal/common/validation"
	"dealership-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const defaultJobTimeout = 30 * time.Second

// Executor is the business operation behind a task type.
type Executor[I any, O any] func(ctx context.Context, in *I) (*O, error)

type RunnerConfig struct {
	TaskType string
	// ResultVariable is the process variable the envelope is written to.
	ResultVariable string
	Timeout        time.Duration
	Schema         *validation.Schema
}

// Runner turns job variables into an Executor call and the outcome into an
// envelope. Business failures complete the job with success=false; only
// retryable technical failures go back to the engine.
type Runner[I any, O any] struct {
	cfg     RunnerConfig
	execute Executor[I, O]
	logger  logger.Logger
	errors  *apperrors.ErrorHandler
	obs     *observability.Observability
}

func NewRunner[I any, O any](cfg RunnerConfig, execute Executor[I, O], log logger.Logger, obs *observability.Observability) *Runner[I, O] {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultJobTimeout
	}
	if cfg.ResultVariable == "" {
		cfg.ResultVariable = "result"
	}
	log = log.WithFields(map[string]interface{}{"taskType": cfg.TaskType})
	return &Runner[I, O]{
		cfg:     cfg,
		execute: execute,
		logger:  log,
		errors:  apperrors.NewErrorHandler(log),
		obs:     obs,
	}
}

// Evaluate validates and decodes variables, runs the executor and builds the
// envelope. A non-nil error means the failure is retryable and the envelope
// must not be written.
func (r *Runner[I, O]) Evaluate(ctx context.Context, variables []byte) (models.Envelope, error) {
	if len(variables) == 0 {
		variables = []byte("{}")
	}

	if r.cfg.Schema != nil {
		if result := r.cfg.Schema.ValidateBytes(variables); !result.Valid {
			return r.failure(apperrors.NewValidationError(result.Summary())), nil
		}
	}

	var in I
	if err := json.Unmarshal(variables, &in); err != nil {
		return r.failure(apperrors.NewValidationError("malformed job variables: " + err.Error())), nil
	}

	out, err := r.run(ctx, &in)
	if err != nil {
		stdErr := apperrors.Normalize(err)
		if stdErr.Retryable {
			return models.Envelope{}, stdErr
		}
		return r.failure(stdErr), nil
	}
	return models.NewSuccessEnvelope(out, r.metadata()), nil
}

// run converts a panic in the executor into an internal error.
func (r *Runner[I, O]) run(ctx context.Context, in *I) (out *O, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("executor panicked", map[string]interface{}{"panic": fmt.Sprint(rec)})
			out, err = nil, apperrors.NewInternalError(fmt.Errorf("panic: %v", rec))
		}
	}()
	return r.execute(ctx, in)
}

func (r *Runner[I, O]) failure(stdErr *apperrors.StandardError) models.Envelope {
	message := stdErr.Message
	if stdErr.Details != "" && stdErr.Code != apperrors.ErrCodeInternal {
		message = stdErr.Message + ": " + stdErr.Details
	}
	if stdErr.Code == apperrors.ErrCodeInternal {
		r.logger.Error("internal error", map[string]interface{}{"details": stdErr.Details})
	}
	return models.NewErrorEnvelope(string(stdErr.Code), message, r.metadata())
}

func (r *Runner[I, O]) metadata() map[string]interface{} {
	return map[string]interface{}{
		"taskType":    r.cfg.TaskType,
		"processedAt": time.Now().UTC().Format(time.RFC3339),
	}
}

// Handle is the Zeebe job handler.
func (r *Runner[I, O]) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(r.cfg.TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(r.cfg.TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.Timeout)
	defer cancel()

	ctx, span := observability.StartSpan(ctx, r.cfg.TaskType,
		attribute.Int64("job.key", job.GetKey()),
		attribute.Int64("process.instance.key", job.GetProcessInstanceKey()),
	)
	defer span.End()

	r.logger.Info("processing job", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
		"retries":            job.GetRetries(),
	})

	envelope, err := r.Evaluate(ctx, []byte(job.GetVariables()))
	if err != nil {
		stdErr := apperrors.Normalize(err)
		metrics.WorkerJobsFailed.WithLabelValues(r.cfg.TaskType, string(stdErr.Code)).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, string(stdErr.Code))
		r.errors.HandleJobError(ctx, client, job, stdErr)
		r.obs.RecordJob(ctx, r.cfg.TaskType, "failed", time.Since(start))
		return
	}

	outcome := "success"
	if !envelope.Success {
		outcome = "error"
		span.SetAttributes(attribute.String("envelope.error_code", envelope.ErrorCode))
	}

	if err := r.complete(ctx, client, job, envelope); err != nil {
		r.logger.Error("failed to complete job", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		span.RecordError(err)
		r.obs.RecordJob(ctx, r.cfg.TaskType, "failed", time.Since(start))
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(r.cfg.TaskType, outcome).Inc()
	metrics.WorkerJobDuration.WithLabelValues(r.cfg.TaskType).Observe(time.Since(start).Seconds())
	r.obs.RecordJob(ctx, r.cfg.TaskType, outcome, time.Since(start))

	r.logger.Info("job completed", map[string]interface{}{
		"jobKey":    job.GetKey(),
		"success":   envelope.Success,
		"errorCode": envelope.ErrorCode,
		"duration":  time.Since(start).String(),
	})
}

func (r *Runner[I, O]) complete(ctx context.Context, client worker.JobClient, job entities.Job, envelope models.Envelope) error {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.GetKey()).
		VariablesFromMap(map[string]interface{}{r.cfg.ResultVariable: envelope})
	if err != nil {
		return err
	}
	_, err = cmd.Send(ctx)
	return err
}
