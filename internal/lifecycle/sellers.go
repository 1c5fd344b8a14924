// internal/lifecycle/sellers.go
package lifecycle

import (
	"context"
	"fmt"

	"deal-workers/internal/common/auth"
	"deal-workers/internal/common/errors"
	"deal-workers/internal/models"
)

// PayTypeAssignment changes a seller's compensation settings. Nil fields are
// left unchanged; a seller without a profile gets one.
type PayTypeAssignment struct {
	SellerID    string
	Name        string
	PayType     models.PayType
	ManagerType *models.ManagerType
	TeamID      *string
}

var managerTypes = map[models.ManagerType]bool{
	models.ManagerTypeNone:        true,
	models.ManagerTypeAreaManager: true,
	models.ManagerTypeRegional:    true,
	models.ManagerTypeDefault:     true,
}

// AssignPayType is restricted to managers and admins. Sellers cannot change
// their own pay type.
func (e *Engine) AssignPayType(ctx context.Context, actor auth.Actor, a PayTypeAssignment) (*models.SellerProfile, error) {
	if err := actor.RequireManager(); err != nil {
		return nil, err
	}
	if !a.PayType.Valid() {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("unknown pay type %q", a.PayType))
	}
	if a.ManagerType != nil && !managerTypes[*a.ManagerType] {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("unknown manager type %q", *a.ManagerType))
	}

	unlock := e.locks.Lock("seller:" + a.SellerID)
	defer unlock()

	current, err := e.store.GetSeller(ctx, a.SellerID)
	if err != nil && !errors.HasCode(err, errors.ErrCodeSellerNotFound) {
		return nil, err
	}

	next := models.SellerProfile{ID: a.SellerID}
	if current != nil {
		next = *current
	}
	next.PayType = a.PayType
	if a.Name != "" {
		next.Name = a.Name
	}
	if a.ManagerType != nil {
		next.ManagerType = *a.ManagerType
	}
	if a.TeamID != nil {
		next.TeamID = *a.TeamID
	}

	if err := e.store.PutSeller(ctx, &next); err != nil {
		return nil, err
	}
	e.invalidate(ctx, next.ID)
	e.logger.Info("Seller pay type assigned", map[string]interface{}{
		"sellerId":   next.ID,
		"payType":    string(next.PayType),
		"assignedBy": actor.ID,
	})
	return &next, nil
}
