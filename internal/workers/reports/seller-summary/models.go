package sellersummary

import (
	"deal-workers/internal/aggregation"
	"deal-workers/internal/common/auth"
)

type Input struct {
	auth.JobActor
	// SellerID defaults to the actor.
	SellerID string `json:"sellerId,omitempty"`
	// Year selects projects by install date. Zero means the current year.
	Year int `json:"year,omitempty"`
}

type Output struct {
	SellerSummary *aggregation.SellerSummary `json:"sellerSummary"`
}
