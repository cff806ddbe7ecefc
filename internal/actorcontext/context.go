package actorcontext

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
)

// Roles recognised by the capability checks.
const (
	RoleAdmin     = "admin"
	RoleOffice    = "oficina"
	RoleCollector = "cobrador"
	RoleManager   = "gerencia"
	RoleSystem    = "system"
)

// Actor is the authenticated caller as asserted by the upstream auth layer.
type Actor struct {
	ID     snowflake.ID
	Role   string
	SedeID *snowflake.ID
}

// System is the actor used by scheduled jobs.
var System = Actor{Role: RoleSystem}

func (a Actor) IsCollector() bool { return a.Role == RoleCollector }

// AuditID is the value written to audit_entries.actor_id.
func (a Actor) AuditID() string {
	if a.ID == 0 {
		return a.Role
	}
	return a.ID.String()
}

type actorKey struct{}

func WithActor(ctx context.Context, actor Actor) context.Context {
	actor.Role = strings.ToLower(strings.TrimSpace(actor.Role))
	return context.WithValue(ctx, actorKey{}, actor)
}

// FromContext returns the actor, or false when none is attached.
func FromContext(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	actor, ok := ctx.Value(actorKey{}).(Actor)
	return actor, ok
}

// ActorOrSystem falls back to the system actor for background work.
func ActorOrSystem(ctx context.Context) Actor {
	if actor, ok := FromContext(ctx); ok {
		return actor
	}
	return System
}
