// internal/repository/schema.go
package repository

import (
	"deal-workers/internal/common/validation"
)

func nonEmpty() validation.Property {
	return validation.Property{Type: "string", MinLength: validation.Int(1)}
}

func setRecordSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"id":      nonEmpty(),
			"ownerId": nonEmpty(),
			"status": {
				Type: "string",
				Enum: []interface{}{"active", "not_closed", "closed"},
			},
			"customerName": {Type: "string"},
		},
		Required:             []string{"id", "ownerId", "status"},
		AdditionalProperties: true,
	}
}

func projectRecordSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"id":      nonEmpty(),
			"ownerId": nonEmpty(),
			"status": {
				Type: "string",
				Enum: []interface{}{"site_survey", "install", "pto", "paid", "on_hold", "cancelled"},
			},
			"dealNumber":        {Type: "integer", Minimum: validation.Float(1)},
			"paymentAmount":     {Type: "number", Minimum: validation.Float(0)},
			"systemSizeKw":      {Type: "number", Minimum: validation.Float(0)},
			"grossPricePerWatt": {Type: "number", Minimum: validation.Float(0)},
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
		},
		Required:             []string{"id", "ownerId", "status", "dealNumber"},
		AdditionalProperties: true,
	}
}

func sellerRecordSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"id":      nonEmpty(),
			"payType": {Type: "string", Enum: []interface{}{"Rookie", "Vet", "Pro"}},
			"managerType": {
				Type: "string",
				Enum: []interface{}{"", "AreaManager", "Regional", "default"},
			},
		},
		Required:             []string{"id", "payType"},
		AdditionalProperties: true,
	}
}

var recordValidators = map[Collection]*validation.Validator{
	CollectionSets:     validation.MustValidator(setRecordSchema()),
	CollectionProjects: validation.MustValidator(projectRecordSchema()),
	CollectionSellers:  validation.MustValidator(sellerRecordSchema()),
}
