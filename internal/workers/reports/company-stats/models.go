package companystats

import (
	"deal-workers/internal/aggregation"
	"deal-workers/internal/common/auth"
)

type Input struct {
	auth.JobActor
	// Year selects projects by install date. Zero means the current year.
	Year int `json:"year,omitempty"`
}

type Output struct {
	CompanyStats *aggregation.CompanyStats `json:"companyStats"`
}
