package auth

import (
	"testing"

	"deal-workers/internal/common/errors"
	"deal-workers/internal/common/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewActor(t *testing.T) {
	a, err := NewActor("u-1", "Manager")
	require.NoError(t, err)
	assert.Equal(t, RoleManager, a.Role)

	_, err = NewActor("", "seller")
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotAuthorized))

	_, err = NewActor("u-1", "superuser")
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotAuthorized))
}

func TestActor_RoleChecks(t *testing.T) {
	seller := Actor{ID: "s-1", Role: RoleSeller}
	manager := Actor{ID: "m-1", Role: RoleManager}
	admin := Actor{ID: "a-1", Role: RoleAdmin}

	assert.Error(t, seller.RequireManager())
	assert.NoError(t, manager.RequireManager())
	assert.NoError(t, admin.RequireManager())

	assert.Error(t, seller.RequireAdmin())
	assert.Error(t, manager.RequireAdmin())
	assert.NoError(t, admin.RequireAdmin())
}

func TestActor_RequireOwnerOrAdmin(t *testing.T) {
	seller := Actor{ID: "s-1", Role: RoleSeller}

	assert.NoError(t, seller.RequireOwnerOrAdmin("s-1"))
	err := seller.RequireOwnerOrAdmin("s-2")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotAuthorized))

	assert.NoError(t, Actor{ID: "a-1", Role: RoleAdmin}.RequireOwnerOrAdmin("s-2"))
	assert.Error(t, Actor{ID: "m-1", Role: RoleManager}.RequireOwnerOrAdmin("s-2"))
}

func TestJobActor(t *testing.T) {
	actor, err := JobActor{ActorID: "seller-a", ActorRole: "Seller"}.Actor()
	require.NoError(t, err)
	assert.Equal(t, RoleSeller, actor.Role)

	_, err = JobActor{ActorID: "seller-a", ActorRole: "owner"}.Actor()
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotAuthorized))
}

func TestWithActorProperties(t *testing.T) {
	schema := WithActorProperties(validation.JSONSchema{
		Type:       "object",
		Properties: map[string]validation.Property{"setId": {Type: "string"}},
		Required:   []string{"setId"},
	})

	assert.Equal(t, []string{"actorId", "actorRole", "setId"}, schema.Required)
	assert.Contains(t, schema.Properties, "actorRole")

	result := validation.MustValidator(schema).Validate(map[string]interface{}{"setId": "s"})
	assert.False(t, result.Valid)
	assert.True(t, result.HasErrors("actorId"))
}
