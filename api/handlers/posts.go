package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"tenet/api/middleware"
	"tenet/models"
	"tenet/services"
)

// CreatePost validates and stores a new post authored by the caller.
func CreatePost(c *gin.Context) {
	var req struct {
		Content     string `json:"content" binding:"required"`
		SourceTitle string `json:"source_title"`
		SourceURL   string `json:"source_url"`
		Visibility  string `json:"visibility"`
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
	postID, err := postService.CreatePost(c.Request.Context(), services.NewPostInput{
		Content:      req.Content,
		SourceTitle:  req.SourceTitle,
		SourceURL:    req.SourceURL,
		Visibility:   models.Visibility(req.Visibility),
		AuthorUID:    user.ID,
		AuthorDID:    user.DID,
		AuthorHandle: user.Handle,
	})
	middleware.RecordFeedOperation("create_post", serviceName, time.Since(start), err)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": postID})
}

// GetFeed returns the newest public posts with their aggregates.
func GetFeed(c *gin.Context) {
	limit := 20
	if limitStr := c.Query("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	feed, err := postService.ListFeed(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, feed)
}

// GetPost returns a single post.
func GetPost(c *gin.Context) {
	post, err := postService.GetPost(c.Request.Context(), c.Param("post_id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, post)
}

// DeletePost removes the caller's post and all its dependent records.
func DeletePost(c *gin.Context) {
	user, ok := callerUser(c)
	if !ok {
		return
	}

	start := time.Now()
	err := postService.DeletePost(c.Request.Context(), user.ID, c.Param("post_id"))
	middleware.RecordFeedOperation("delete_post", serviceName, time.Since(start), err)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Post deleted successfully"})
}
