package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fleetguard/fleetguard/internal/auth"
)

type loginRequest struct {
	UID      string `json:"uid" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login handles POST /api/login.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, worker, err := h.auth.Login(c.Request.Context(), req.UID, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid uid or password"})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"worker": gin.H{
			"uid":      worker.UID,
			"fullName": worker.FullName,
			"role":     worker.Role,
		},
	})
}
