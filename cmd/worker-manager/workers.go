// cmd/worker-manager/workers.go
package main

import (
	"dealership-workers/internal/analysis"
	"dealership-workers/internal/archive"
	"dealership-workers/internal/assignment"
	"dealership-workers/internal/common/camunda"
	"dealership-workers/internal/common/config"
	"dealership-workers/internal/common/logger"
	"dealership-workers/internal/common/observability"
	"dealership-workers/internal/leads"
	"dealership-workers/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	// Message analysis workers (4)
	ae "dealership-workers/internal/workers/message-analysis/analyze-sentiment"
	ci "dealership-workers/internal/workers/message-analysis/classify-intent"
	ee "dealership-workers/internal/workers/message-analysis/extract-entities"
	gr "dealership-workers/internal/workers/message-analysis/generate-response"

	// Lead workers (3)
	cl "dealership-workers/internal/workers/leads/classify-lead"
	clc "dealership-workers/internal/workers/leads/create-lead"
	uls "dealership-workers/internal/workers/leads/update-lead-status"

	// Advisor workers (5)
	aa "dealership-workers/internal/workers/advisors/assign-advisor"
	laa "dealership-workers/internal/workers/advisors/list-available-advisors"
	rl "dealership-workers/internal/workers/advisors/reassign-lead"
	rw "dealership-workers/internal/workers/advisors/rebalance-workload"
	uaa "dealership-workers/internal/workers/advisors/update-advisor-availability"
)

type dependencies struct {
	engine     *analysis.Engine
	archiver   archive.Archiver
	leads      *leads.Service
	assignment *assignment.Service
	obs        *observability.Observability
}

// registerWorkers opens a subscription for every enabled task type.
func registerWorkers(client zbc.Client, cfg *config.Config, deps dependencies, log logger.Logger) []*camunda.Worker {
	var workers []*camunda.Worker
	open := func(taskType string, handler camunda.JobHandler) {
		if !config.IsWorkerEnabled(cfg, taskType) {
			log.Info("worker disabled", map[string]interface{}{"taskType": taskType})
			return
		}
		wc := config.GetWorkerConfig(cfg, taskType)
		workers = append(workers, camunda.OpenWorker(client, camunda.WorkerOptions{
			TaskType:      taskType,
			MaxJobsActive: wc.MaxJobsActive,
			Timeout:       config.GetDuration(wc.Timeout),
			Handler:       handler,
			Logger:        log,
		}))
	}

	// --- 1. Message analysis ---
	open(ee.TaskType, ee.NewHandler(ee.LoadConfig(cfg), deps.engine.Extractor, deps.archiver, log, deps.obs))
	open(ci.TaskType, ci.NewHandler(ci.LoadConfig(cfg), deps.engine, deps.archiver, log, deps.obs))
	open(ae.TaskType, ae.NewHandler(ae.LoadConfig(cfg), deps.engine.Sentiment, deps.archiver, log, deps.obs))
	open(gr.TaskType, gr.NewHandler(gr.LoadConfig(cfg), deps.engine.Responder, log, deps.obs))

	// --- 2. Leads ---
	open(clc.TaskType, clc.NewHandler(clc.LoadConfig(cfg), deps.leads, log, deps.obs))
	open(cl.TaskType, cl.NewHandler(cl.LoadConfig(cfg), deps.engine.Lead, deps.leads, log, deps.obs))
	open(uls.TaskType, uls.NewHandler(uls.LoadConfig(cfg), deps.leads, log, deps.obs))

	// --- 3. Advisors ---
	open(laa.TaskType, laa.NewHandler(laa.LoadConfig(cfg), deps.assignment, log, deps.obs))
	open(aa.TaskType, aa.NewHandler(aa.LoadConfig(cfg), deps.assignment, log, deps.obs))
	open(rl.TaskType, rl.NewHandler(rl.LoadConfig(cfg), deps.assignment, log, deps.obs))
	open(uaa.TaskType, uaa.NewHandler(uaa.LoadConfig(cfg), deps.assignment, log, deps.obs))
	open(rw.TaskType, rw.NewHandler(rw.LoadConfig(cfg), deps.assignment, log, deps.obs))

	return workers
}

// checkCatalog warns about running task types the activity catalog does not
// document. A missing catalog file is not an error.
func checkCatalog(path string, workers []*camunda.Worker, log logger.Logger) {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		log.Debug("activity catalog not loaded", map[string]interface{}{"path": path, "error": err.Error()})
		return
	}
	if err := reg.Validate(); err != nil {
		log.Warn("activity catalog invalid", map[string]interface{}{"path": path, "error": err.Error()})
		return
	}
	for _, w := range workers {
		if _, ok := reg.Find(w.TaskType()); !ok {
			log.Warn("task type missing from activity catalog", map[string]interface{}{"taskType": w.TaskType()})
		}
	}
}
