package convertset

import (
	"deal-workers/internal/common/auth"
	"deal-workers/internal/models"
)

// Input carries the fields an operator enters when moving a closed Set to
// projects. Dates are YYYY-MM-DD.
type Input struct {
	auth.JobActor
	SetID             string        `json:"setId"`
	Verified          bool          `json:"verified"`
	CustomerName      string        `json:"customerName,omitempty"`
	SystemSizeKw      *float64      `json:"systemSizeKw,omitempty"`
	GrossPricePerWatt *float64      `json:"grossPricePerWatt,omitempty"`
	Adders            models.Adders `json:"adders"`
	SurveyDate        string        `json:"surveyDate,omitempty"`
	SurveyTime        string        `json:"surveyTime,omitempty"`
	// PaymentDate is only used for deals past the scheduled tiers.
	PaymentDate string `json:"paymentDate,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

type Output struct {
	ProjectID     string               `json:"projectId"`
	ProjectStatus models.ProjectStatus `json:"projectStatus"`
	DealNumber    int                  `json:"dealNumber"`
	TierLevel     int                  `json:"tierLevel"`
	TierRatePerKw float64              `json:"tierRatePerKw"`
	PaymentAmount float64              `json:"paymentAmount"`
	PaymentDate   string               `json:"paymentDate,omitempty"`
	UpfrontPay    float64              `json:"upfrontPay"`
	Resumed       bool                 `json:"conversionResumed"`
}
