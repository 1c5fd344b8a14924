package sellersummary

import (
	"context"
	"fmt"
	"time"

	"deal-workers/internal/aggregation"
	"deal-workers/internal/common/auth"
	"deal-workers/internal/common/camunda"
	"deal-workers/internal/common/config"
	"deal-workers/internal/common/errors"
	"deal-workers/internal/common/logger"
	"deal-workers/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "deal.report.seller-summary"

// Service is the report this worker serves. *aggregation.Service satisfies it.
type Service interface {
	SellerSummary(ctx context.Context, actor auth.Actor, sellerID string, year int) (*aggregation.SellerSummary, error)
}

type Handler struct {
	config       *Config
	service      Service
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
	now          func() time.Time
}

type HandlerOptions struct {
	AppConfig    *config.Config
	CustomConfig *Config
	Service      Service
	Logger       logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	workerConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)
	if err := workerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", ConfigKey, err)
	}
	if opts.Service == nil {
		return nil, fmt.Errorf("%s: report service is required", ConfigKey)
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewStructured("info", "json")
	}
	log = log.WithFields(map[string]interface{}{"worker": TaskType})

	return &Handler{
		config:       workerConfig,
		service:      opts.Service,
		logger:       log,
		errorHandler: errors.NewErrorHandler(log),
		now:          time.Now,
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

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

	h.logger.Debug("Seller summary served", map[string]interface{}{
		"jobKey":   job.GetKey(),
		"actorId":  input.ActorID,
		"duration": time.Since(startTime).String(),
	})
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

// Execute builds the seller summary for the requested year.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	actor, err := input.Actor()
	if err != nil {
		return nil, err
	}
	year := input.Year
	if year == 0 {
		year = h.now().Year()
	}

	sellerID := input.SellerID
	if sellerID == "" {
		sellerID = actor.ID
	}

	summary, err := h.service.SellerSummary(ctx, actor, sellerID, year)
	if err != nil {
		return nil, err
	}
	return &Output{SellerSummary: summary}, nil
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.Normalize(err).Code)).Inc()
	h.errorHandler.HandleJobError(ctx, client, job, err)
}

func (h *Handler) GetTaskType() string {
	return TaskType
}
