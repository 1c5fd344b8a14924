package convertset

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
	"deal-workers/internal/common/validation"
	"deal-workers/internal/lifecycle"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "deal.set.convert"

type Engine interface {
	ConvertSet(ctx context.Context, actor auth.Actor, req lifecycle.ConvertRequest) (*lifecycle.ConvertResult, error)
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

	h.logger.Info("Processing set conversion", map[string]interface{}{
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

	h.logger.Info("Set converted to project", map[string]interface{}{
		"jobKey":        job.GetKey(),
		"projectId":     output.ProjectID,
		"dealNumber":    output.DealNumber,
		"paymentAmount": output.PaymentAmount,
		"resumed":       output.Resumed,
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

// Execute converts the Set named by input.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	actor, err := input.Actor()
	if err != nil {
		return nil, err
	}
	req, err := toRequest(input)
	if err != nil {
		return nil, err
	}

	result, err := h.engine.ConvertSet(ctx, actor, req)
	if err != nil {
		return nil, err
	}

	p := result.Project
	return &Output{
		ProjectID:     p.ID,
		ProjectStatus: p.Status,
		DealNumber:    p.DealNumber,
		TierLevel:     result.Tier.Level,
		TierRatePerKw: result.Tier.RatePerKw,
		PaymentAmount: p.PaymentAmount,
		PaymentDate:   validation.FormatDate(p.PaymentDate),
		UpfrontPay:    result.UpfrontPay,
		Resumed:       result.Resumed,
	}, nil
}

func toRequest(input *Input) (lifecycle.ConvertRequest, error) {
	surveyDate, err := validation.ParseDate("surveyDate", input.SurveyDate)
	if err != nil {
		return lifecycle.ConvertRequest{}, errors.NewInvalidInputError(err.Error())
	}
	paymentDate, err := validation.ParseDate("paymentDate", input.PaymentDate)
	if err != nil {
		return lifecycle.ConvertRequest{}, errors.NewInvalidInputError(err.Error())
	}
	return lifecycle.ConvertRequest{
		SetID:             input.SetID,
		Verified:          input.Verified,
		CustomerName:      input.CustomerName,
		SystemSizeKw:      input.SystemSizeKw,
		GrossPricePerWatt: input.GrossPricePerWatt,
		Adders:            input.Adders,
		SurveyDate:        surveyDate,
		SurveyTime:        input.SurveyTime,
		PaymentDate:       paymentDate,
		Notes:             input.Notes,
	}, nil
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.Normalize(err).Code)).Inc()
	h.errorHandler.HandleJobError(ctx, client, job, err)
}

func (h *Handler) GetTaskType() string {
	return TaskType
}

func (h *Handler) GetConfig() *Config {
	return h.config
}
