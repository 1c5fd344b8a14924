package updateprojectstatus

import (
	"time"

	"deal-workers/internal/common/auth"
	"deal-workers/internal/models"
)

type Input struct {
	auth.JobActor
	ProjectID string `json:"projectId"`
	// Status cancelled cancels; site_survey on a cancelled project reactivates it.
	Status string `json:"status"`
}

type Output struct {
	ProjectID     string               `json:"projectId"`
	ProjectStatus models.ProjectStatus `json:"projectStatus"`
	Cancelled     bool                 `json:"projectCancelled"`
	CancelledAt   *time.Time           `json:"cancelledAt,omitempty"`
}
