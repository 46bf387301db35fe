package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Identity headers are filled in by the platform gateway, which owns
// authentication. This service only needs to know who is acting.
const (
	HeaderActorID   = "X-Actor-ID"
	HeaderActorRole = "X-Actor-Role"

	CtxActorID   = "actor_id"
	CtxActorRole = "actor_role"
)

// RequireActor rejects mutating calls that arrive without an identity.
func RequireActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		actorID := c.GetHeader(HeaderActorID)
		if actorID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing " + HeaderActorID + " header"})
			return
		}
		c.Set(CtxActorID, actorID)
		c.Set(CtxActorRole, c.GetHeader(HeaderActorRole))
		c.Next()
	}
}
