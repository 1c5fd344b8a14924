package assignpaytype

import (
	"deal-workers/internal/common/auth"
	"deal-workers/internal/models"
)

type Input struct {
	auth.JobActor
	SellerID string `json:"sellerId"`
	Name     string `json:"name,omitempty"`
	PayType  string `json:"payType"`
	// ManagerType and TeamID are left unchanged when absent.
	ManagerType *string `json:"managerType,omitempty"`
	TeamID      *string `json:"teamId,omitempty"`
}

type Output struct {
	SellerID    string             `json:"sellerId"`
	PayType     models.PayType     `json:"payType"`
	ManagerType models.ManagerType `json:"managerType"`
	TeamID      string             `json:"teamId,omitempty"`
	UpfrontRate float64            `json:"upfrontFlatRate"`
	PayTypeRate float64            `json:"payTypeRate"`
}
