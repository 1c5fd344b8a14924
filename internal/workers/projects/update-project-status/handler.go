package updateprojectstatus

import (
	"context"
	"fmt"
	"time"

	"deal-workers/internal/common/auth"
	"deal-workers/internal/common/camunda"
	"deal-workers/internal/common/config"
	"deal-workers/internal/common/errors"
	"deal-workers/internal/common/logger"
	"deal-workers/internal/common/metrics"
	"deal-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "deal.project.status"

type Engine interface {
	SetProjectStatus(ctx context.Context, actor auth.Actor, projectID string, to models.ProjectStatus) (*models.Project, error)
}

type Handler struct {
	config       *Config
	engine       Engine
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

type HandlerOptions struct {
	AppConfig    *config.Config
	CustomConfig *Config
	Engine       Engine
	Logger       logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	workerConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)
	if err := workerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", ConfigKey, err)
	}
	if opts.Engine == nil {
		return nil, fmt.Errorf("%s: lifecycle engine is required", ConfigKey)
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewStructured("info", "json")
	}
	log = log.WithFields(map[string]interface{}{"worker": TaskType})

	return &Handler{
		config:       workerConfig,
		engine:       opts.Engine,
		logger:       log,
		errorHandler: errors.NewErrorHandler(log),
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("Processing project status change", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	input, err := h.parseInput(job)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	output, err := h.Execute(ctx, input)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	if err := camunda.CompleteJob(ctx, client, job, output); err != nil {
		h.logger.Error("Failed to complete job", map[string]interface{}{"jobKey": job.GetKey(), "error": err.Error()})
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	var input Input
	if err := camunda.DecodeVariables(job, inputValidator, &input); err != nil {
		return nil, err
	}
	return &input, nil
}

// Execute moves the project to the requested status. Cancel and reactivate
// are routed by the engine from the target status.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	actor, err := input.Actor()
	if err != nil {
		return nil, err
	}

	p, err := h.engine.SetProjectStatus(ctx, actor, input.ProjectID, models.ProjectStatus(input.Status))
	if err != nil {
		return nil, err
	}

	h.logger.Info("Project status updated", map[string]interface{}{
		"projectId": p.ID,
		"status":    p.Status,
	})
	return &Output{
		ProjectID:     p.ID,
		ProjectStatus: p.Status,
		Cancelled:     p.IsCancelled(),
		CancelledAt:   p.CancelledAt,
	}, nil
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.Normalize(err).Code)).Inc()
	h.errorHandler.HandleJobError(ctx, client, job, err)
}

func (h *Handler) GetTaskType() string {
	return TaskType
}
