package sellersummary

import (
	"deal-workers/internal/common/auth"
	"deal-workers/internal/common/validation"
)

var inputValidator = validation.MustValidator(GetInputSchema())

func GetInputSchema() validation.JSONSchema {
	return auth.WithActorProperties(validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"sellerId": {
				Type:        "string",
				Description: "Seller to summarize; defaults to the actor",
			},
			"year": {
				Type:        "integer",
				Description: "Install year to report on",
				Minimum:     validation.Float(0),
				Maximum:     validation.Float(9999),
			},
		},
		AdditionalProperties: true,
	})
}
