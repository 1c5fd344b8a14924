package convertset

import (
	"deal-workers/internal/common/auth"
	"deal-workers/internal/common/validation"
)

var (
	inputValidator = validation.MustValidator(GetInputSchema())

	optionalDate = `^([0-9]{4}-[0-9]{2}-[0-9]{2})?$`
)

// GetInputSchema checks shape only. Missing conversion fields are reported
// together by the lifecycle engine so the caller sees every one at once.
func GetInputSchema() validation.JSONSchema {
	return auth.WithActorProperties(validation.JSONSchema{
		Type:     "object",
		Required: []string{"setId"},
		Properties: map[string]validation.Property{
			"setId": {
				Type:        "string",
				Description: "ID of the closed Set; the Project keeps it",
				MinLength:   validation.Int(1),
			},
			"verified": {
				Type:        "boolean",
				Description: "Operator has verified the Set details",
			},
			"customerName": {
				Type:        "string",
				Description: "Overrides the Set's customer name when present",
				MaxLength:   validation.Int(200),
			},
			"systemSizeKw": {
				Type:        []string{"number", "null"},
				Description: "System size in kW",
			},
			"grossPricePerWatt": {
				Type:        []string{"number", "null"},
				Description: "Gross price per watt in dollars",
			},
			"adders": {
				Type:        "object",
				Description: "Selected add-ons",
				Properties: map[string]validation.Property{
					"eaBattery":     {Type: "boolean"},
					"backupBattery": {Type: "boolean"},
					"mpu":           {Type: "boolean"},
					"hti":           {Type: "boolean"},
					"reroof":        {Type: "boolean"},
				},
			},
			"surveyDate": {
				Type:        "string",
				Description: "Site survey date, YYYY-MM-DD",
				Pattern:     &optionalDate,
			},
			"surveyTime": {
				Type:        "string",
				Description: "Site survey time slot",
				MaxLength:   validation.Int(20),
			},
			"paymentDate": {
				Type:        "string",
				Description: "Payment date for deals past number 20, YYYY-MM-DD",
				Pattern:     &optionalDate,
			},
			"notes": {
				Type:        "string",
				Description: "Replaces the Set's notes when present",
			},
		},
		AdditionalProperties: true,
	})
}
