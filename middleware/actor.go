package middleware

import (
	"net/http"
	"strings"

	"hotel-pms/utils"

	"github.com/gin-gonic/gin"
)

const actorKey = "actorId"

// Actor reads an optional Bearer token and stores the admin id in the
// context. Invalid tokens are rejected; missing ones are left to RequireActor.
func Actor(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" {
			c.Next()
			return
		}
		if !strings.HasPrefix(auth, "Bearer ") {
			abortUnauthorized(c, "missing bearer token")
			return
		}
		id, err := utils.ParseAccessToken(secret, strings.TrimSpace(strings.TrimPrefix(auth, "Bearer ")))
		if err != nil {
			abortUnauthorized(c, "invalid token")
			return
		}
		c.Set(actorKey, id)
		c.Next()
	}
}

// RequireActor rejects requests without an authenticated admin.
func RequireActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := ActorID(c); !ok {
			abortUnauthorized(c, "authentication required")
			return
		}
		c.Next()
	}
}

// ActorID returns the authenticated admin id, if any.
func ActorID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok && id != 0
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error":   gin.H{"code": "error.unauthorized", "message": msg},
	})
}
