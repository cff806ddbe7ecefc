package actorcontext

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithActorNormalizesRole(t *testing.T) {
	ctx := WithActor(context.Background(), Actor{ID: 7, Role: " Cobrador "})
	actor, ok := FromContext(ctx)
	assert.True(t, ok)
	assert.True(t, actor.IsCollector())
	assert.Equal(t, "7", actor.AuditID())
}

func TestActorOrSystem(t *testing.T) {
	actor := ActorOrSystem(context.Background())
	assert.Equal(t, RoleSystem, actor.Role)
	assert.Equal(t, "system", actor.AuditID())
}
