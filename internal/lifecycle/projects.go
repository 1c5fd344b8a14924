// internal/lifecycle/projects.go
package lifecycle

import (
	"context"
	"fmt"
	"time"

	"deal-workers/internal/common/auth"
	"deal-workers/internal/common/errors"
	"deal-workers/internal/common/metrics"
	"deal-workers/internal/models"
)

// SetProjectStatus moves a project to any status. Moving to cancelled goes
// through the cancel path, and a cancelled project can only be reactivated,
// which always lands on site_survey.
func (e *Engine) SetProjectStatus(ctx context.Context, actor auth.Actor, projectID string, to models.ProjectStatus) (*models.Project, error) {
	if !to.Valid() {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("unknown project status %q", to))
	}

	unlock := e.locks.Lock(projectID)
	defer unlock()

	p, err := e.loadProject(ctx, actor, projectID)
	if err != nil {
		return nil, err
	}

	switch {
	case p.IsCancelled() && to == models.ProjectStatusSiteSurvey:
		return e.reactivate(ctx, p)
	case p.IsCancelled():
		return nil, errors.NewInvalidTransitionError("project", string(p.Status), string(to))
	case to == models.ProjectStatusCancelled:
		return e.cancel(ctx, p)
	}

	next := *p
	next.Status = to
	next.UpdatedAt = e.now().UTC()
	if err := e.store.PutProject(ctx, &next); err != nil {
		return nil, err
	}
	metrics.DealTransitions.WithLabelValues("project", string(to)).Inc()
	e.invalidate(ctx, next.OwnerID)
	e.logger.Info("Project status changed", map[string]interface{}{
		"projectId": projectID,
		"from":      string(p.Status),
		"to":        string(to),
	})
	return &next, nil
}

// CancelProject stamps CancelledAt. The project is kept, keeps its deal
// number and drops out of every active aggregate.
func (e *Engine) CancelProject(ctx context.Context, actor auth.Actor, projectID string) (*models.Project, error) {
	unlock := e.locks.Lock(projectID)
	defer unlock()

	p, err := e.loadProject(ctx, actor, projectID)
	if err != nil {
		return nil, err
	}
	if p.IsCancelled() {
		return nil, errors.NewInvalidTransitionError("project", string(p.Status), string(models.ProjectStatusCancelled))
	}
	return e.cancel(ctx, p)
}

// ReactivateProject returns a cancelled project to site_survey, not to the
// status it had before cancellation.
func (e *Engine) ReactivateProject(ctx context.Context, actor auth.Actor, projectID string) (*models.Project, error) {
	unlock := e.locks.Lock(projectID)
	defer unlock()

	p, err := e.loadProject(ctx, actor, projectID)
	if err != nil {
		return nil, err
	}
	if !p.IsCancelled() {
		return nil, errors.NewInvalidTransitionError("project", string(p.Status), string(models.ProjectStatusSiteSurvey))
	}
	return e.reactivate(ctx, p)
}

func (e *Engine) loadProject(ctx context.Context, actor auth.Actor, projectID string) (*models.Project, error) {
	p, err := e.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := actor.RequireOwnerOrAdmin(p.OwnerID); err != nil {
		return nil, err
	}
	return p, nil
}

func (e *Engine) cancel(ctx context.Context, p *models.Project) (*models.Project, error) {
	now := e.now().UTC()
	next := *p
	next.Status = models.ProjectStatusCancelled
	next.CancelledAt = &now
	next.UpdatedAt = now
	if err := e.store.PutProject(ctx, &next); err != nil {
		return nil, err
	}

	metrics.DealTransitions.WithLabelValues("project", string(models.ProjectStatusCancelled)).Inc()
	e.invalidate(ctx, next.OwnerID)
	e.publish(ctx, models.DealEvent{
		Type:       models.DealEventCancelled,
		DealID:     next.ID,
		OwnerID:    next.OwnerID,
		DealNumber: next.DealNumber,
		Status:     next.Status,
		OccurredAt: now,
	})
	e.logger.Info("Project cancelled", map[string]interface{}{
		"projectId":  next.ID,
		"from":       string(p.Status),
		"dealNumber": next.DealNumber,
	})
	return &next, nil
}

func (e *Engine) reactivate(ctx context.Context, p *models.Project) (*models.Project, error) {
	now := e.now().UTC()
	next := *p
	next.Status = models.ProjectStatusSiteSurvey
	next.CancelledAt = nil
	next.UpdatedAt = now
	if err := e.store.PutProject(ctx, &next); err != nil {
		return nil, err
	}

	metrics.DealTransitions.WithLabelValues("project", string(models.ProjectStatusSiteSurvey)).Inc()
	e.invalidate(ctx, next.OwnerID)
	e.publish(ctx, models.DealEvent{
		Type:       models.DealEventReactivated,
		DealID:     next.ID,
		OwnerID:    next.OwnerID,
		DealNumber: next.DealNumber,
		Status:     next.Status,
		OccurredAt: now,
	})
	e.logger.Info("Project reactivated", map[string]interface{}{
		"projectId":  next.ID,
		"dealNumber": next.DealNumber,
	})
	return &next, nil
}

// MilestoneUpdate sets dates and pricing inputs out of band. Nil fields are
// left unchanged. ID, owner, status and deal number are not reachable here.
type MilestoneUpdate struct {
	ProjectID         string
	SurveyDate        *time.Time
	SurveyTime        *string
	PermitDate        *time.Time
	InstallDate       *time.Time
	InspectionDate    *time.Time
	PTODate           *time.Time
	PaymentDate       *time.Time
	SystemSizeKw      *float64
	GrossPricePerWatt *float64
	Adders            *models.Adders
	Notes             *string
}

func (e *Engine) UpdateMilestones(ctx context.Context, actor auth.Actor, upd MilestoneUpdate) (*models.Project, error) {
	unlock := e.locks.Lock(upd.ProjectID)
	defer unlock()

	p, err := e.loadProject(ctx, actor, upd.ProjectID)
	if err != nil {
		return nil, err
	}

	var fields []errors.FieldError
	if upd.SystemSizeKw != nil && !positive(upd.SystemSizeKw) {
		fields = append(fields, errors.FieldError{Field: "systemSizeKw", Code: errors.FieldMissingSystemSize, Message: "system size must be a positive number"})
	}
	if upd.GrossPricePerWatt != nil && !positive(upd.GrossPricePerWatt) {
		fields = append(fields, errors.FieldError{Field: "grossPricePerWatt", Code: errors.FieldMissingGrossPPW, Message: "gross price per watt must be a positive number"})
	}
	if len(fields) > 0 {
		return nil, errors.NewValidationFailedError(fields)
	}

	next := *p
	setDate(&next.SurveyDate, upd.SurveyDate)
	setDate(&next.PermitDate, upd.PermitDate)
	setDate(&next.InstallDate, upd.InstallDate)
	setDate(&next.InspectionDate, upd.InspectionDate)
	setDate(&next.PTODate, upd.PTODate)
	setDate(&next.PaymentDate, upd.PaymentDate)
	if upd.SurveyTime != nil {
		next.SurveyTime = *upd.SurveyTime
	}
	if upd.SystemSizeKw != nil {
		v := *upd.SystemSizeKw
		next.SystemSizeKw = &v
	}
	if upd.GrossPricePerWatt != nil {
		v := *upd.GrossPricePerWatt
		next.GrossPricePerWatt = &v
	}
	if upd.Adders != nil {
		next.Adders = *upd.Adders
	}
	if upd.Notes != nil {
		next.Notes = *upd.Notes
	}
	next.UpdatedAt = e.now().UTC()

	if err := e.store.PutProject(ctx, &next); err != nil {
		return nil, err
	}
	e.invalidate(ctx, next.OwnerID)
	e.logger.Info("Project milestones updated", map[string]interface{}{"projectId": next.ID})
	return &next, nil
}

func setDate(dst **time.Time, v *time.Time) {
	if v == nil {
		return
	}
	d := *v
	*dst = &d
}
