package updatemilestones

import (
	"context"
	"fmt"
	"time"

	"deal-workers/internal/commission"
	"deal-workers/internal/common/auth"
	"deal-workers/internal/common/camunda"
	"deal-workers/internal/common/config"
	"deal-workers/internal/common/errors"
	"deal-workers/internal/common/logger"
	"deal-workers/internal/common/metrics"
	"deal-workers/internal/common/validation"
	"deal-workers/internal/lifecycle"
	"deal-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "deal.project.milestones"

type Engine interface {
	UpdateMilestones(ctx context.Context, actor auth.Actor, upd lifecycle.MilestoneUpdate) (*models.Project, error)
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

	h.logger.Info("Processing milestone update", map[string]interface{}{
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

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	actor, err := input.Actor()
	if err != nil {
		return nil, err
	}
	upd, err := toUpdate(input)
	if err != nil {
		return nil, err
	}

	p, err := h.engine.UpdateMilestones(ctx, actor, upd)
	if err != nil {
		return nil, err
	}
	return &Output{
		ProjectID:     p.ID,
		ProjectStatus: p.Status,
		Priced:        commission.IsPriced(p.SystemSizeKw, p.GrossPricePerWatt),
		ContractPrice: commission.ProjectContractPrice(p),
		InstallDate:   validation.FormatDate(p.InstallDate),
		PaymentDate:   validation.FormatDate(p.PaymentDate),
	}, nil
}

// toUpdate parses every supplied date and reports all malformed ones together.
func toUpdate(input *Input) (lifecycle.MilestoneUpdate, error) {
	upd := lifecycle.MilestoneUpdate{
		ProjectID:         input.ProjectID,
		SurveyTime:        input.SurveyTime,
		SystemSizeKw:      input.SystemSizeKw,
		GrossPricePerWatt: input.GrossPricePerWatt,
		Adders:            input.Adders,
		Notes:             input.Notes,
	}

	var fields []errors.FieldError
	parse := func(dst **time.Time, field string, value *string) {
		if value == nil {
			return
		}
		t, err := validation.ParseDate(field, *value)
		if err != nil {
			fields = append(fields, errors.FieldError{Field: field, Code: "INVALID_FORMAT", Message: err.Error()})
			return
		}
		*dst = t
	}
	parse(&upd.SurveyDate, "surveyDate", input.SurveyDate)
	parse(&upd.PermitDate, "permitDate", input.PermitDate)
	parse(&upd.InstallDate, "installDate", input.InstallDate)
	parse(&upd.InspectionDate, "inspectionDate", input.InspectionDate)
	parse(&upd.PTODate, "ptoDate", input.PTODate)
	parse(&upd.PaymentDate, "paymentDate", input.PaymentDate)

	if len(fields) > 0 {
		return lifecycle.MilestoneUpdate{}, errors.NewValidationFailedError(fields)
	}
	return upd, nil
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.Normalize(err).Code)).Inc()
	h.errorHandler.HandleJobError(ctx, client, job, err)
}

func (h *Handler) GetTaskType() string {
	return TaskType
}
