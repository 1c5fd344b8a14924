package transitionset

import (
	"deal-workers/internal/common/auth"
	"deal-workers/internal/common/validation"
)

var inputValidator = validation.MustValidator(GetInputSchema())

func GetInputSchema() validation.JSONSchema {
	return auth.WithActorProperties(validation.JSONSchema{
		Type:     "object",
		Required: []string{"setId", "action"},
		Properties: map[string]validation.Property{
			"setId": {
				Type:        "string",
				Description: "ID of the Set to move",
				MinLength:   validation.Int(1),
			},
			"action": {
				Type:        "string",
				Description: "Status change to apply",
				Enum:        []interface{}{"cancel", "reactivate", "close", "reopen"},
			},
			"confirmed": {
				Type:        "boolean",
				Description: "Explicit confirmation, required to close",
			},
		},
		// Jobs carry every process variable unless fetchVariables is set.
		AdditionalProperties: true,
	})
}
