// internal/common/camunda/worker.go
package camunda

import (
	"time"

	"dealership-workers/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// JobHandler completes or fails the job itself; nothing is returned to the client.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

// Worker is an open Zeebe job subscription for one task type.
type Worker struct {
	taskType string
	worker   worker.JobWorker
	logger   logger.Logger
}

type WorkerOptions struct {
	TaskType      string
	MaxJobsActive int
	Timeout       time.Duration
	Handler       JobHandler
	Logger        logger.Logger
}

func OpenWorker(client zbc.Client, opts WorkerOptions) *Worker {
	builder := client.NewJobWorker().
		JobType(opts.TaskType).
		Handler(opts.Handler.Handle).
		Name(opts.TaskType)
	if opts.MaxJobsActive > 0 {
		builder = builder.MaxJobsActive(opts.MaxJobsActive)
	}
	if opts.Timeout > 0 {
		builder = builder.Timeout(opts.Timeout)
	}

	w := &Worker{
		taskType: opts.TaskType,
		worker:   builder.Open(),
		logger:   opts.Logger,
	}
	w.logger.Info("worker started", map[string]interface{}{
		"taskType":      opts.TaskType,
		"maxJobsActive": opts.MaxJobsActive,
	})
	return w
}

func (w *Worker) TaskType() string {
	return w.taskType
}

// Close stops polling and waits for in-flight jobs.
func (w *Worker) Close() {
	w.logger.Info("stopping worker", map[string]interface{}{"taskType": w.taskType})
	w.worker.Close()
	w.worker.AwaitClose()
}
