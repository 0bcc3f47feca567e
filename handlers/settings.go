package handlers

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"ideaboard/config"
	"ideaboard/models"
)

// SettingsHandler reads and writes the settings document. Settings are
// loaded once at startup and written through on update; nothing here is
// required for core operation.
type SettingsHandler struct {
	cfg *config.Config

	mu       sync.Mutex
	settings *models.Settings
}

func NewSettingsHandler(cfg *config.Config, settings *models.Settings) *SettingsHandler {
	return &SettingsHandler{cfg: cfg, settings: settings}
}

func (h *SettingsHandler) Get(c *gin.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.JSON(http.StatusOK, h.settings)
}

func (h *SettingsHandler) Update(c *gin.Context) {
	var req models.Settings
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if req.APIKeys == nil {
		req.APIKeys = map[string]string{}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.settings = &req
	if err := h.settings.Save(h.cfg.SettingsPath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save settings"})
		return
	}
	c.JSON(http.StatusOK, h.settings)
}
