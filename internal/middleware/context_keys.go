package middleware

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"
)

// actorIDKey is the key used to store the acting user's ID in the request
// context. Authentication itself is owned by the gateway in front of this
// service; it forwards the authenticated identity in the X-Actor-ID header.
const actorIDKey = contextKey("actorID")

// ActorMiddleware reads the forwarded actor identity and stores it in the
// request context for audit fields. Requests without one are rejected.
func ActorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		actorID := c.GetHeader("X-Actor-ID")
		if actorID == "" {
			c.AbortWithStatusJSON(401, gin.H{"error": "X-Actor-ID header required"})
			return
		}

		ctx := context.WithValue(c.Request.Context(), actorIDKey, actorID)

		// Enrich the request logger with the actor
		logger := GetLoggerFromCtx(ctx).With(slog.String("actor_id", actorID))
		ctx = context.WithValue(ctx, loggerCtxKey, logger)

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// GetActorIDFromCtx retrieves the acting user ID from the context.
// It returns the ID and a boolean indicating if it was found.
func GetActorIDFromCtx(ctx context.Context) (string, bool) {
	actorID, ok := ctx.Value(actorIDKey).(string)
	if !ok || actorID == "" {
		return "", false
	}
	return actorID, true
}
