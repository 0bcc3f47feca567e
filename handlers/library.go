package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ideaboard/config"
	"ideaboard/database"
	"ideaboard/models"
	"ideaboard/services"
)

// LibraryHandler serves the catalog of previously saved sessions.
type LibraryHandler struct {
	cfg   *config.Config
	store *services.SessionStore
}

func NewLibraryHandler(cfg *config.Config, store *services.SessionStore) *LibraryHandler {
	return &LibraryHandler{cfg: cfg, store: store}
}

// List returns saved sessions, newest first. ?tag= filters by tag name.
func (h *LibraryHandler) List(c *gin.Context) {
	var records []models.SessionRecord

	query := database.DB.Order("updated_at DESC")
	if tag := c.Query("tag"); tag != "" {
		var sessionIDs []uuid.UUID
		database.DB.Model(&models.Tag{}).Where("name = ?", tag).Pluck("session_id", &sessionIDs)
		if len(sessionIDs) == 0 {
			c.JSON(http.StatusOK, []models.SessionRecord{})
			return
		}
		query = query.Where("id IN ?", sessionIDs)
	}

	if err := query.Find(&records).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read library"})
		return
	}
	c.JSON(http.StatusOK, records)
}

// Load restores a saved session document into the in-memory store so the
// pipeline can continue where it left off.
func (h *LibraryHandler) Load(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid session id"})
		return
	}

	var record models.SessionRecord
	if err := database.DB.First(&record, "id = ?", id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Saved session not found"})
		return
	}

	session, err := h.store.LoadFile(record.DocumentPath)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load session document"})
		return
	}

	c.JSON(http.StatusOK, session)
}
