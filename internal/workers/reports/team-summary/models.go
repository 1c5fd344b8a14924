package teamsummary

import (
	"deal-workers/internal/aggregation"
	"deal-workers/internal/common/auth"
)

type Input struct {
	auth.JobActor
	// ManagerID defaults to the actor.
	ManagerID string `json:"managerId,omitempty"`
	// Year selects projects by install date. Zero means the current year.
	Year int `json:"year,omitempty"`
}

type Output struct {
	TeamSummary *aggregation.TeamSummary `json:"teamSummary"`
}
