package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tenet/api/middleware"
)

// SetScore records the caller's 0-100 agreement score on a post and
// returns the recomputed community average.
func SetScore(c *gin.Context) {
	var req struct {
		Score *int `json:"score" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	user, ok := callerUser(c)
	if !ok {
		return
	}

	start := time.Now()
	avg, err := scoreService.SetScore(c.Request.Context(), c.Param("post_id"), user.ID, *req.Score)
	middleware.RecordFeedOperation("set_score", serviceName, time.Since(start), err)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"avg_agreement_score": avg})
}

// ToggleEcho flips the caller's echo on a post.
func ToggleEcho(c *gin.Context) {
	user, ok := callerUser(c)
	if !ok {
		return
	}

	start := time.Now()
	echoed, err := echoService.ToggleEcho(c.Request.Context(), c.Param("post_id"), user.ID)
	middleware.RecordFeedOperation("toggle_echo", serviceName, time.Since(start), err)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"echoed": echoed})
}

// SubmitReply stores the caller's reply to a post. A repeated submit from
// the same caller replaces the earlier reply.
func SubmitReply(c *gin.Context) {
	var req struct {
		ReplyText string `json:"reply_text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	user, ok := callerUser(c)
	if !ok {
		return
	}

	start := time.Now()
	err := replyService.SubmitReply(c.Request.Context(), c.Param("post_id"), user.ID, user.Handle, req.ReplyText)
	middleware.RecordFeedOperation("submit_reply", serviceName, time.Since(start), err)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Reply submitted"})
}

// GetReplies lists a post's replies, oldest first.
func GetReplies(c *gin.Context) {
	replies, err := replyService.ListReplies(c.Request.Context(), c.Param("post_id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"replies": replies})
}
