// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"time"

	"deal-workers/internal/common/config"
	"deal-workers/internal/common/observability"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"go.uber.org/zap"
)

// JobHandler is the signature every deal worker's Handle method has.
type JobHandler func(client worker.JobClient, job entities.Job)

// Runner opens one Zeebe job worker per enabled task type and closes them
// together on shutdown.
type Runner struct {
	client  zbc.Client
	obs     *observability.Observability
	logger  *zap.Logger
	workers map[string]worker.JobWorker
}

func NewRunner(client zbc.Client, obs *observability.Observability, logger *zap.Logger) *Runner {
	return &Runner{
		client:  client,
		obs:     obs,
		logger:  logger,
		workers: make(map[string]worker.JobWorker),
	}
}

// Start opens a job worker for taskType. A disabled config is logged and
// skipped; it reports whether a worker was opened.
func (r *Runner) Start(taskType string, wcfg config.WorkerConfig, handler JobHandler) bool {
	if !wcfg.Enabled {
		r.logger.Info("worker disabled", zap.String("taskType", taskType))
		return false
	}

	jobWorker := r.client.NewJobWorker().
		JobType(taskType).
		Handler(Instrument(taskType, r.obs, handler)).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(time.Duration(wcfg.Timeout) * time.Millisecond).
		Name(taskType + "-worker").
		Open()
	r.workers[taskType] = jobWorker

	r.logger.Info("worker started",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", wcfg.MaxJobsActive),
		zap.Int("timeout_ms", wcfg.Timeout),
	)
	return true
}

// Running lists the task types with an open worker.
func (r *Runner) Running() []string {
	out := make([]string, 0, len(r.workers))
	for taskType := range r.workers {
		out = append(out, taskType)
	}
	return out
}

// Close stops polling on every worker and waits for in-flight jobs.
func (r *Runner) Close() {
	for taskType, w := range r.workers {
		r.logger.Info("stopping worker", zap.String("taskType", taskType))
		w.Close()
		w.AwaitClose()
	}
	r.workers = make(map[string]worker.JobWorker)
}

// Instrument records every handled job on the OpenTelemetry meter.
func Instrument(taskType string, obs *observability.Observability, handler JobHandler) worker.JobHandler {
	return func(client worker.JobClient, job entities.Job) {
		start := time.Now()
		handler(client, job)
		obs.RecordJob(context.Background(), taskType, "handled", time.Since(start))
	}
}
