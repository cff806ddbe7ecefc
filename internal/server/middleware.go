package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/recaudo/internal/actorcontext"
	obscontext "github.com/smallbiznis/recaudo/internal/observability/context"
)

const (
	headerActorID   = "X-Actor-ID"
	headerActorRole = "X-Actor-Role"
	headerSedeID    = "X-Sede-ID"
)

var requestRoles = map[string]struct{}{
	actorcontext.RoleAdmin:     {},
	actorcontext.RoleOffice:    {},
	actorcontext.RoleCollector: {},
	actorcontext.RoleManager:   {},
}

// ActorContext trusts the identity headers set by the upstream auth proxy.
// The system role is reserved for scheduled jobs and is never accepted here.
func ActorContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := actorFromHeaders(c)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		ctx := actorcontext.WithActor(c.Request.Context(), actor)
		ctx = obscontext.WithActor(ctx, actor.Role, actor.ID.String())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func actorFromHeaders(c *gin.Context) (actorcontext.Actor, error) {
	rawID := strings.TrimSpace(c.GetHeader(headerActorID))
	role := strings.ToLower(strings.TrimSpace(c.GetHeader(headerActorRole)))
	if rawID == "" || role == "" {
		return actorcontext.Actor{}, ErrUnauthorized
	}
	if _, ok := requestRoles[role]; !ok {
		return actorcontext.Actor{}, ErrUnauthorized
	}

	id, err := snowflake.ParseString(rawID)
	if err != nil || id <= 0 {
		return actorcontext.Actor{}, ErrUnauthorized
	}

	actor := actorcontext.Actor{ID: id, Role: role}
	if rawSede := strings.TrimSpace(c.GetHeader(headerSedeID)); rawSede != "" {
		sedeID, err := snowflake.ParseString(rawSede)
		if err != nil || sedeID <= 0 {
			return actorcontext.Actor{}, ErrUnauthorized
		}
		actor.SedeID = &sedeID
	}
	return actor, nil
}

func (s *Server) authorize(object, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.authzSvc.Authorize(c.Request.Context(), object, action); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}
