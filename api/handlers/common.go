package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"tenet/models"
	"tenet/services"
	"tenet/store"
)

const serviceName = "tenet"

var (
	userService  = services.NewUserService()
	postService  = services.NewPostService()
	scoreService = services.NewScoreService()
	echoService  = services.NewEchoService()
	replyService = services.NewReplyService()
)

// callerUser resolves the authenticated caller set by the auth middleware
// to a full profile. No identity means the mutating operation fails fast.
func callerUser(c *gin.Context) (*models.User, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return nil, false
	}
	user, err := userService.GetUser(c.Request.Context(), userID.(int64))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unknown user"})
		return nil, false
	}
	return user, true
}

// writeError maps the service error taxonomy onto HTTP statuses.
// Validation failures carry the specific reason; store failures stay
// generic and retry-prompting.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrRejected):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	case errors.Is(err, services.ErrAccessDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Operation failed, please try again"})
	}
}
