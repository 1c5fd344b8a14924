package updateprojectstatus

import (
	"deal-workers/internal/common/auth"
	"deal-workers/internal/common/validation"
	"deal-workers/internal/models"
)

var inputValidator = validation.MustValidator(GetInputSchema())

func GetInputSchema() validation.JSONSchema {
	return auth.WithActorProperties(validation.JSONSchema{
		Type:     "object",
		Required: []string{"projectId", "status"},
		Properties: map[string]validation.Property{
			"projectId": {
				Type:        "string",
				Description: "ID of the Project",
				MinLength:   validation.Int(1),
			},
			"status": {
				Type:        "string",
				Description: "Target project status",
				Enum: []interface{}{
					string(models.ProjectStatusSiteSurvey),
					string(models.ProjectStatusInstall),
					string(models.ProjectStatusPTO),
					string(models.ProjectStatusPaid),
					string(models.ProjectStatusOnHold),
					string(models.ProjectStatusCancelled),
				},
			},
		},
		AdditionalProperties: true,
	})
}
