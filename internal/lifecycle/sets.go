// internal/lifecycle/sets.go
package lifecycle

import (
	"context"
	"fmt"

	"deal-workers/internal/common/auth"
	"deal-workers/internal/common/errors"
	"deal-workers/internal/common/metrics"
	"deal-workers/internal/models"
)

// SetAction names a Set status change.
type SetAction string

const (
	SetActionCancel     SetAction = "cancel"
	SetActionReactivate SetAction = "reactivate"
	SetActionClose      SetAction = "close"
	SetActionReopen     SetAction = "reopen"
)

type setEdge struct {
	from map[models.SetStatus]bool
	to   models.SetStatus
}

// Conversion is not listed: it removes the Set rather than changing its status.
var setTransitions = map[SetAction]setEdge{
	SetActionCancel: {
		from: map[models.SetStatus]bool{models.SetStatusActive: true},
		to:   models.SetStatusNotClosed,
	},
	SetActionReactivate: {
		from: map[models.SetStatus]bool{models.SetStatusNotClosed: true},
		to:   models.SetStatusActive,
	},
	SetActionClose: {
		from: map[models.SetStatus]bool{models.SetStatusActive: true, models.SetStatusNotClosed: true},
		to:   models.SetStatusClosed,
	},
	SetActionReopen: {
		from: map[models.SetStatus]bool{models.SetStatusClosed: true},
		to:   models.SetStatusNotClosed,
	},
}

// ParseSetAction rejects unknown actions.
func ParseSetAction(s string) (SetAction, error) {
	a := SetAction(s)
	if _, ok := setTransitions[a]; !ok {
		return "", errors.NewInvalidInputError(fmt.Sprintf("unknown set action %q", s))
	}
	return a, nil
}

// CanTransitionSet reports whether action is legal from status.
func CanTransitionSet(status models.SetStatus, action SetAction) bool {
	edge, ok := setTransitions[action]
	return ok && edge.from[status]
}

// TransitionSet applies action to the Set. Closing requires confirmed=true
// because a closed Set becomes eligible for conversion.
func (e *Engine) TransitionSet(ctx context.Context, actor auth.Actor, setID string, action SetAction, confirmed bool) (*models.Set, error) {
	edge, ok := setTransitions[action]
	if !ok {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("unknown set action %q", action))
	}

	unlock := e.locks.Lock(setID)
	defer unlock()

	set, err := e.store.GetSet(ctx, setID)
	if err != nil {
		return nil, err
	}
	if err := actor.RequireOwnerOrAdmin(set.OwnerID); err != nil {
		return nil, err
	}
	if !edge.from[set.Status] {
		return nil, errors.NewInvalidTransitionError("set", string(set.Status), string(edge.to))
	}
	if action == SetActionClose && !confirmed {
		return nil, errors.NewValidationFailedError([]errors.FieldError{{
			Field:   "confirmed",
			Code:    errors.FieldConfirmationRequired,
			Message: "closing a set must be confirmed",
		}})
	}

	next := *set
	next.Status = edge.to
	next.UpdatedAt = e.now().UTC()
	if err := e.store.PutSet(ctx, &next); err != nil {
		return nil, err
	}

	metrics.DealTransitions.WithLabelValues("set", string(edge.to)).Inc()
	e.invalidate(ctx, next.OwnerID)
	e.logger.Info("Set transitioned", map[string]interface{}{
		"setId":  setID,
		"action": string(action),
		"from":   string(set.Status),
		"to":     string(edge.to),
	})
	return &next, nil
}

func (e *Engine) CancelSet(ctx context.Context, actor auth.Actor, setID string) (*models.Set, error) {
	return e.TransitionSet(ctx, actor, setID, SetActionCancel, false)
}

func (e *Engine) ReactivateSet(ctx context.Context, actor auth.Actor, setID string) (*models.Set, error) {
	return e.TransitionSet(ctx, actor, setID, SetActionReactivate, false)
}

func (e *Engine) CloseSet(ctx context.Context, actor auth.Actor, setID string, confirmed bool) (*models.Set, error) {
	return e.TransitionSet(ctx, actor, setID, SetActionClose, confirmed)
}

// ReopenSet marks a closed Set as not closed. The Set is kept.
func (e *Engine) ReopenSet(ctx context.Context, actor auth.Actor, setID string) (*models.Set, error) {
	return e.TransitionSet(ctx, actor, setID, SetActionReopen, false)
}
