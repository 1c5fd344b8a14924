package assignpaytype

import (
	"deal-workers/internal/common/auth"
	"deal-workers/internal/common/validation"
	"deal-workers/internal/models"
)

var inputValidator = validation.MustValidator(GetInputSchema())

func GetInputSchema() validation.JSONSchema {
	return auth.WithActorProperties(validation.JSONSchema{
		Type:     "object",
		Required: []string{"sellerId", "payType"},
		Properties: map[string]validation.Property{
			"sellerId": {
				Type:        "string",
				Description: "Seller whose settings change",
				MinLength:   validation.Int(1),
			},
			"name": {
				Type:      "string",
				MaxLength: validation.Int(200),
			},
			"payType": {
				Type: "string",
				Enum: []interface{}{
					string(models.PayTypeRookie),
					string(models.PayTypeVet),
					string(models.PayTypePro),
				},
			},
			"managerType": {
				Type: "string",
				Enum: []interface{}{
					string(models.ManagerTypeNone),
					string(models.ManagerTypeAreaManager),
					string(models.ManagerTypeRegional),
					string(models.ManagerTypeDefault),
				},
			},
			"teamId": {Type: "string"},
		},
		AdditionalProperties: true,
	})
}
