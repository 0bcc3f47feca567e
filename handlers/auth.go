package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"ideaboard/config"
	"ideaboard/services"
	"ideaboard/utils"
)

// AuthHandler implements the optional access gate: a single shared
// password exchanged for a bearer token. Registered only when
// ACCESS_PASSWORD is configured.
type AuthHandler struct {
	cfg          *config.Config
	passwordHash []byte
	lockout      *services.LoginLockout
}

func NewAuthHandler(cfg *config.Config, passwordHash []byte, lockout *services.LoginLockout) *AuthHandler {
	return &AuthHandler{cfg: cfg, passwordHash: passwordHash, lockout: lockout}
}

type loginRequest struct {
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	addr := c.ClientIP()
	if locked, remaining := h.lockout.IsLocked(c.Request.Context(), addr); locked {
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":               "Temporarily locked due to too many failed attempts",
			"retry_after_seconds": remaining,
		})
		return
	}

	if err := bcrypt.CompareHashAndPassword(h.passwordHash, []byte(req.Password)); err != nil {
		h.lockout.RecordFailure(c.Request.Context(), addr)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	h.lockout.RecordSuccess(c.Request.Context(), addr)

	token, err := utils.GenerateAccessToken(h.cfg.JWTSecret, h.cfg.JWTExpiry)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"expires_in":   int(h.cfg.JWTExpiry.Seconds()),
	})
}
