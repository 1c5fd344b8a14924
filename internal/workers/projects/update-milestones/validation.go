package updatemilestones

import (
	"deal-workers/internal/common/auth"
	"deal-workers/internal/common/validation"
)

var (
	inputValidator = validation.MustValidator(GetInputSchema())

	isoDate = `^[0-9]{4}-[0-9]{2}-[0-9]{2}$`
)

func dateProperty(description string) validation.Property {
	return validation.Property{Type: "string", Description: description, Pattern: &isoDate}
}

func GetInputSchema() validation.JSONSchema {
	return auth.WithActorProperties(validation.JSONSchema{
		Type:     "object",
		Required: []string{"projectId"},
		Properties: map[string]validation.Property{
			"projectId": {
				Type:        "string",
				Description: "ID of the Project",
				MinLength:   validation.Int(1),
			},
			"surveyDate":     dateProperty("Site survey date"),
			"permitDate":     dateProperty("Permit approval date"),
			"installDate":    dateProperty("Install date; drives the yearly reports"),
			"inspectionDate": dateProperty("Inspection date"),
			"ptoDate":        dateProperty("Permission to operate date"),
			"paymentDate":    dateProperty("Upfront payment date"),
			"surveyTime": {
				Type:      "string",
				MaxLength: validation.Int(20),
			},
			"systemSizeKw": {
				Type:        "number",
				Description: "System size in kW",
			},
			"grossPricePerWatt": {
				Type:        "number",
				Description: "Gross price per watt in dollars",
			},
			"adders": {
				Type: "object",
				Properties: map[string]validation.Property{
					"eaBattery":     {Type: "boolean"},
					"backupBattery": {Type: "boolean"},
					"mpu":           {Type: "boolean"},
					"hti":           {Type: "boolean"},
					"reroof":        {Type: "boolean"},
				},
			},
			"notes": {Type: "string"},
		},
		AdditionalProperties: true,
	})
}
