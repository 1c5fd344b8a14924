package transitionset

import (
	"time"

	"deal-workers/internal/common/auth"
	"deal-workers/internal/models"
)

type Input struct {
	auth.JobActor
	SetID  string `json:"setId"`
	Action string `json:"action"`
	// Confirmed must be true to close a Set.
	Confirmed bool `json:"confirmed,omitempty"`
}

type Output struct {
	SetID        string           `json:"setId"`
	SetStatus    models.SetStatus `json:"setStatus"`
	SetUpdatedAt time.Time        `json:"setUpdatedAt"`
}
