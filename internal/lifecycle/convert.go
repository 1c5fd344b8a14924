// internal/lifecycle/convert.go
package lifecycle

import (
	"context"
	"math"
	"strings"
	"time"

	"deal-workers/internal/commission"
	"deal-workers/internal/common/auth"
	"deal-workers/internal/common/errors"
	"deal-workers/internal/common/metrics"
	"deal-workers/internal/models"
)

// ConvertRequest carries the operator-entered fields needed to turn a closed
// Set into a Project. CustomerName overrides the Set's when non-empty.
type ConvertRequest struct {
	SetID             string
	Verified          bool
	CustomerName      string
	SystemSizeKw      *float64
	GrossPricePerWatt *float64
	Adders            models.Adders
	SurveyDate        *time.Time
	SurveyTime        string
	PaymentDate       *time.Time
	Notes             string
}

type ConvertResult struct {
	Project    *models.Project
	Tier       commission.Tier
	UpfrontPay float64
	// Resumed is true when an earlier attempt had already stored the Project.
	Resumed bool
}

// ConvertSet turns a closed Set into a Project with the same ID. The Project
// is written first and the Set is removed only after that write succeeds.
func (e *Engine) ConvertSet(ctx context.Context, actor auth.Actor, req ConvertRequest) (*ConvertResult, error) {
	unlock := e.locks.Lock(req.SetID)
	defer unlock()

	deal, err := e.LoadDeal(ctx, req.SetID)
	if err != nil {
		return nil, err
	}
	switch deal.Kind {
	case models.DealKindProject:
		return e.resumeConversion(ctx, actor, deal.Project)
	case models.DealKindSet:
		return e.convert(ctx, actor, deal.Set, req)
	}
	return nil, errors.NewSetNotFoundError(req.SetID)
}

// LoadDeal returns the Project stored under id, or the Set when it has not
// been converted yet.
func (e *Engine) LoadDeal(ctx context.Context, id string) (models.Deal, error) {
	p, found, err := e.store.FindProject(ctx, id)
	if err != nil {
		return models.Deal{}, err
	}
	if found {
		return models.ProjectDeal(p), nil
	}
	set, err := e.store.GetSet(ctx, id)
	if err != nil {
		return models.Deal{}, err
	}
	return models.SetDeal(set), nil
}

func (e *Engine) convert(ctx context.Context, actor auth.Actor, set *models.Set, req ConvertRequest) (*ConvertResult, error) {
	if err := actor.RequireOwnerOrAdmin(set.OwnerID); err != nil {
		return nil, err
	}
	if fields := validateConversion(set, req); len(fields) > 0 {
		metrics.DealConversions.WithLabelValues("rejected").Inc()
		return nil, errors.NewValidationFailedError(fields)
	}

	// deal numbers are per owner, so Sets of one owner convert one at a time
	unlockOwner := e.locks.Lock("owner:" + set.OwnerID)
	defer unlockOwner()

	prior, err := e.store.CountProjects(ctx, set.OwnerID)
	if err != nil {
		return nil, err
	}
	dealNumber := prior + 1
	tier := commission.ResolveTier(dealNumber)
	now := e.now()

	project := buildProject(set, req, dealNumber, now)
	project.PaymentAmount = commission.PaymentAmount(dealNumber, *req.SystemSizeKw)
	if commission.SchedulesPayment(dealNumber) {
		friday := commission.PaymentFriday(now)
		project.PaymentDate = &friday
	}

	if err := e.store.PutProject(ctx, project); err != nil {
		metrics.DealConversions.WithLabelValues("failed").Inc()
		return nil, err
	}
	if err := e.store.RemoveSet(ctx, set.ID); err != nil {
		// the Project is stored; a retry resumes and only removes the Set
		metrics.DealConversions.WithLabelValues("partial").Inc()
		return nil, err
	}

	upfront := e.upfrontPay(ctx, project.OwnerID)
	metrics.DealConversions.WithLabelValues("converted").Inc()
	e.invalidate(ctx, project.OwnerID)
	e.publish(ctx, models.DealEvent{
		Type:          models.DealEventConverted,
		DealID:        project.ID,
		OwnerID:       project.OwnerID,
		DealNumber:    project.DealNumber,
		Status:        project.Status,
		PaymentAmount: project.PaymentAmount,
		UpfrontPay:    upfront,
	})
	e.logger.Info("Set converted to project", map[string]interface{}{
		"dealId":        project.ID,
		"ownerId":       project.OwnerID,
		"dealNumber":    dealNumber,
		"tier":          tier.Level,
		"paymentAmount": project.PaymentAmount,
	})

	return &ConvertResult{Project: project, Tier: tier, UpfrontPay: upfront}, nil
}

func (e *Engine) resumeConversion(ctx context.Context, actor auth.Actor, project *models.Project) (*ConvertResult, error) {
	if err := actor.RequireOwnerOrAdmin(project.OwnerID); err != nil {
		return nil, err
	}
	if err := e.store.RemoveSet(ctx, project.ID); err != nil {
		return nil, err
	}
	metrics.DealConversions.WithLabelValues("resumed").Inc()
	e.invalidate(ctx, project.OwnerID)
	e.logger.Info("Conversion already stored, source set cleared", map[string]interface{}{
		"dealId":     project.ID,
		"dealNumber": project.DealNumber,
	})
	return &ConvertResult{
		Project:    project,
		Tier:       commission.ResolveTier(project.DealNumber),
		UpfrontPay: e.upfrontPay(ctx, project.OwnerID),
		Resumed:    true,
	}, nil
}

// upfrontPay is the flat amount the owner accrues for one deal. A seller
// without a profile accrues nothing until a pay type is assigned.
func (e *Engine) upfrontPay(ctx context.Context, ownerID string) float64 {
	profile, err := e.store.GetSeller(ctx, ownerID)
	if err != nil {
		e.logger.Warn("No seller profile for upfront pay", map[string]interface{}{
			"ownerId": ownerID,
			"error":   err.Error(),
		})
		return 0
	}
	return commission.UpfrontFlatRate(profile.PayType)
}

func validateConversion(set *models.Set, req ConvertRequest) []errors.FieldError {
	var fields []errors.FieldError
	add := func(field, code, msg string) {
		fields = append(fields, errors.FieldError{Field: field, Code: code, Message: msg})
	}

	if set.Status != models.SetStatusClosed {
		add("status", errors.FieldSetNotClosed, "only a closed set can be moved to projects")
	}
	if !req.Verified {
		add("verified", errors.FieldVerificationRequired, "the set details must be verified before conversion")
	}
	if customerName(set, req) == "" {
		add("customerName", errors.FieldMissingCustomerName, "customer name is required")
	}
	if !positive(req.SystemSizeKw) {
		add("systemSizeKw", errors.FieldMissingSystemSize, "system size is required")
	}
	if !positive(req.GrossPricePerWatt) {
		add("grossPricePerWatt", errors.FieldMissingGrossPPW, "gross price per watt is required")
	}
	if req.SurveyDate == nil || req.SurveyDate.IsZero() {
		add("surveyDate", errors.FieldMissingSurveyDate, "survey date is required")
	}
	if strings.TrimSpace(req.SurveyTime) == "" {
		add("surveyTime", errors.FieldMissingSurveyTime, "survey time is required")
	}
	return fields
}

func customerName(set *models.Set, req ConvertRequest) string {
	if name := strings.TrimSpace(req.CustomerName); name != "" {
		return name
	}
	return strings.TrimSpace(set.CustomerName)
}

func positive(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0) && *v > 0
}

func buildProject(set *models.Set, req ConvertRequest, dealNumber int, now time.Time) *models.Project {
	size, ppw := *req.SystemSizeKw, *req.GrossPricePerWatt
	customer := set.Customer
	customer.CustomerName = customerName(set, req)

	notes := set.Notes
	if req.Notes != "" {
		notes = req.Notes
	}

	surveyDate := *req.SurveyDate
	p := &models.Project{
		ID:                set.ID,
		OwnerID:           set.OwnerID,
		Customer:          customer,
		SystemSizeKw:      &size,
		GrossPricePerWatt: &ppw,
		Adders:            req.Adders,
		Status:            models.ProjectStatusSiteSurvey,
		DealNumber:        dealNumber,
		Notes:             notes,
		CreatedAt:         now.UTC(),
		UpdatedAt:         now.UTC(),
	}
	p.SurveyDate = &surveyDate
	p.SurveyTime = strings.TrimSpace(req.SurveyTime)
	if req.PaymentDate != nil {
		paymentDate := *req.PaymentDate
		p.PaymentDate = &paymentDate
	}
	return p
}
