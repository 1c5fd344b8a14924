// internal/common/auth/job.go
package auth

import "deal-workers/internal/common/validation"

// JobActor is the caller pair every deal job carries in its variables.
type JobActor struct {
	ActorID   string `json:"actorId"`
	ActorRole string `json:"actorRole"`
}

// Actor validates the pair. A missing ID or unknown role is NOT_AUTHORIZED.
func (j JobActor) Actor() (Actor, error) {
	return NewActor(j.ActorID, j.ActorRole)
}

// WithActorProperties adds actorId and actorRole to a job input schema and
// marks them required.
func WithActorProperties(schema validation.JSONSchema) validation.JSONSchema {
	if schema.Properties == nil {
		schema.Properties = map[string]validation.Property{}
	}
	schema.Properties["actorId"] = validation.Property{
		Type:        "string",
		Description: "Identity of the caller",
		MinLength:   validation.Int(1),
	}
	schema.Properties["actorRole"] = validation.Property{
		Type:        "string",
		Description: "Caller role: seller, manager or admin",
		MinLength:   validation.Int(1),
	}
	schema.Required = append([]string{"actorId", "actorRole"}, schema.Required...)
	return schema
}
