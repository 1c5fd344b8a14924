// internal/models/deal.go
package models

import "time"

// SetStatus is the lifecycle status of a scheduled appointment.
type SetStatus string

const (
	SetStatusActive    SetStatus = "active"
	SetStatusNotClosed SetStatus = "not_closed"
	SetStatusClosed    SetStatus = "closed"
)

// ProjectStatus is the lifecycle status of a tracked installation.
type ProjectStatus string

const (
	ProjectStatusSiteSurvey ProjectStatus = "site_survey"
	ProjectStatusInstall    ProjectStatus = "install"
	ProjectStatusPTO        ProjectStatus = "pto"
	ProjectStatusPaid       ProjectStatus = "paid"
	ProjectStatusOnHold     ProjectStatus = "on_hold"
	ProjectStatusCancelled  ProjectStatus = "cancelled"
)

var projectStatuses = map[ProjectStatus]bool{
	ProjectStatusSiteSurvey: true,
	ProjectStatusInstall:    true,
	ProjectStatusPTO:        true,
	ProjectStatusPaid:       true,
	ProjectStatusOnHold:     true,
	ProjectStatusCancelled:  true,
}

// Valid reports whether s is a known project status.
func (s ProjectStatus) Valid() bool {
	return projectStatuses[s]
}

// Customer holds the contact fields carried from a Set to its Project.
type Customer struct {
	CustomerName string `json:"customerName"`
	Phone        string `json:"phone,omitempty"`
	Email        string `json:"email,omitempty"`
	Address      string `json:"address,omitempty"`
}

// Set is a scheduled customer appointment owned by one seller.
type Set struct {
	ID      string `json:"id"`
	OwnerID string `json:"ownerId"`
	Customer
	AppointmentDate string    `json:"appointmentDate,omitempty"`
	AppointmentTime string    `json:"appointmentTime,omitempty"`
	Status          SetStatus `json:"status"`
	Notes           string    `json:"notes,omitempty"`
	DocumentRef     string    `json:"documentRef,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Adders are the fixed-price add-ons selected for a system.
type Adders struct {
	EABattery     bool `json:"eaBattery"`
	BackupBattery bool `json:"backupBattery"`
	MPU           bool `json:"mpu"`
	HTI           bool `json:"hti"`
	Reroof        bool `json:"reroof"`
}

// Milestones are the out-of-band dates recorded against a project.
type Milestones struct {
	SurveyDate     *time.Time `json:"surveyDate,omitempty"`
	SurveyTime     string     `json:"surveyTime,omitempty"`
	PermitDate     *time.Time `json:"permitDate,omitempty"`
	InstallDate    *time.Time `json:"installDate,omitempty"`
	InspectionDate *time.Time `json:"inspectionDate,omitempty"`
	PTODate        *time.Time `json:"ptoDate,omitempty"`
	PaymentDate    *time.Time `json:"paymentDate,omitempty"`
}

// Project is a tracked installation created by converting a closed Set.
// ID always equals the source Set's ID.
type Project struct {
	ID      string `json:"id"`
	OwnerID string `json:"ownerId"`
	Customer
	// nil means the project has not been priced yet.
	SystemSizeKw      *float64      `json:"systemSizeKw,omitempty"`
	GrossPricePerWatt *float64      `json:"grossPricePerWatt,omitempty"`
	Adders            Adders        `json:"adders"`
	Status            ProjectStatus `json:"status"`
	Milestones
	PaymentAmount float64    `json:"paymentAmount"`
	DealNumber    int        `json:"dealNumber"`
	CancelledAt   *time.Time `json:"cancelledAt,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// IsCancelled reports whether the project is excluded from active aggregates.
func (p *Project) IsCancelled() bool {
	return p.Status == ProjectStatusCancelled
}

// InstalledIn reports whether the project's install date falls in year.
func (p *Project) InstalledIn(year int) bool {
	return p.InstallDate != nil && p.InstallDate.Year() == year
}

// DealKind tags which variant a Deal holds.
type DealKind string

const (
	DealKindSet     DealKind = "set"
	DealKindProject DealKind = "project"
)

// Deal is the single identity shared by a Set and the Project it becomes.
// Exactly one of Set or Project is non-nil, matching Kind.
type Deal struct {
	Kind    DealKind
	Set     *Set
	Project *Project
}

func SetDeal(s *Set) Deal {
	return Deal{Kind: DealKindSet, Set: s}
}

func ProjectDeal(p *Project) Deal {
	return Deal{Kind: DealKindProject, Project: p}
}

// ID returns the identity shared by both variants.
func (d Deal) ID() string {
	switch d.Kind {
	case DealKindSet:
		return d.Set.ID
	case DealKindProject:
		return d.Project.ID
	}
	return ""
}

// OwnerID returns the owning seller of either variant.
func (d Deal) OwnerID() string {
	switch d.Kind {
	case DealKindSet:
		return d.Set.OwnerID
	case DealKindProject:
		return d.Project.OwnerID
	}
	return ""
}
