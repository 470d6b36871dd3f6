package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"tenet/services"
)

var userService = services.NewUserService()

// AuthMiddleware resolves the caller identity. Two variants:
// 1. Authorization: Bearer <session token> (normal clients)
// 2. X-User-ID header (tests)
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userIDHeader := c.GetHeader("X-User-ID")
		if userIDHeader != "" {
			userID, err := strconv.ParseInt(userIDHeader, 10, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid X-User-ID format"})
				c.Abort()
				return
			}
			c.Set("user_id", userID)
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader != "" && strings.HasPrefix(authHeader, "Bearer ") {
			token := strings.TrimPrefix(authHeader, "Bearer ")
			user, err := userService.UserByToken(c.Request.Context(), token)
			if err != nil {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
				c.Abort()
				return
			}
			c.Set("user_id", user.ID)
			c.Set("user_handle", user.Handle)
			c.Next()
			return
		}

		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required: provide Authorization Bearer token or X-User-ID header"})
		c.Abort()
	}
}

// OptionalAuthMiddleware resolves the identity when present but lets
// anonymous requests through.
func OptionalAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userIDHeader := c.GetHeader("X-User-ID")
		if userIDHeader != "" {
			if userID, err := strconv.ParseInt(userIDHeader, 10, 64); err == nil {
				c.Set("user_id", userID)
			}
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader != "" && strings.HasPrefix(authHeader, "Bearer ") {
			token := strings.TrimPrefix(authHeader, "Bearer ")
			if user, err := userService.UserByToken(c.Request.Context(), token); err == nil {
				c.Set("user_id", user.ID)
				c.Set("user_handle", user.Handle)
			}
		}

		c.Next()
	}
}
