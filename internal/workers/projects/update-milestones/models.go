package updatemilestones

import (
	"deal-workers/internal/common/auth"
	"deal-workers/internal/models"
)

// Input fields left out of the job are left unchanged on the project.
// Dates are YYYY-MM-DD.
type Input struct {
	auth.JobActor
	ProjectID         string         `json:"projectId"`
	SurveyDate        *string        `json:"surveyDate,omitempty"`
	SurveyTime        *string        `json:"surveyTime,omitempty"`
	PermitDate        *string        `json:"permitDate,omitempty"`
	InstallDate       *string        `json:"installDate,omitempty"`
	InspectionDate    *string        `json:"inspectionDate,omitempty"`
	PTODate           *string        `json:"ptoDate,omitempty"`
	PaymentDate       *string        `json:"paymentDate,omitempty"`
	SystemSizeKw      *float64       `json:"systemSizeKw,omitempty"`
	GrossPricePerWatt *float64       `json:"grossPricePerWatt,omitempty"`
	Adders            *models.Adders `json:"adders,omitempty"`
	Notes             *string        `json:"notes,omitempty"`
}

type Output struct {
	ProjectID     string               `json:"projectId"`
	ProjectStatus models.ProjectStatus `json:"projectStatus"`
	Priced        bool                 `json:"priced"`
	ContractPrice float64              `json:"contractPrice"`
	InstallDate   string               `json:"installDate,omitempty"`
	PaymentDate   string               `json:"paymentDate,omitempty"`
}
