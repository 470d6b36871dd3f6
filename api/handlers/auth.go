package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"tenet/services"
)

type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register provisions a new user: username uniqueness, derived handle and
// decentralized identifier, stored profile.
func Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	user, err := userService.Provision(c.Request.Context(), req.Username, req.Name, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"uid":              user.ID,
		"handle":           user.Handle,
		"did":              user.DID,
		"provision_status": user.ProvisionStatus,
	})
}

// Login verifies credentials and returns the rotated session token with
// the stored profile.
func Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	token, user, err := userService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
		"user":    user,
	})
}

// Logout drops the caller's active session token.
func Logout(c *gin.Context) {
	user, ok := callerUser(c)
	if !ok {
		return
	}

	if err := userService.Logout(c.Request.Context(), user.ID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logout successful"})
}
