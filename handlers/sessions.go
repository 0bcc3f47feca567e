package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ideaboard/config"
	"ideaboard/models"
	"ideaboard/services"
	"ideaboard/utils"
)

type SessionsHandler struct {
	cfg      *config.Config
	store    *services.SessionStore
	claude   *services.ClaudeService // nil when no credential is configured
	progress *services.ProgressHub
}

func NewSessionsHandler(cfg *config.Config, store *services.SessionStore, claude *services.ClaudeService, progress *services.ProgressHub) *SessionsHandler {
	return &SessionsHandler{cfg: cfg, store: store, claude: claude, progress: progress}
}

type createSessionRequest struct {
	Title       string `form:"title" json:"title"`
	ProjectType string `form:"project_type" json:"project_type"`
	Genre       string `form:"genre" json:"genre"`
	Description string `form:"description" json:"description"`
}

// Create starts a new ideation session and makes it current. Tags come
// from the text service when it is configured; otherwise they stay empty.
func (h *SessionsHandler) Create(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	session := h.store.Create(req.Title, req.ProjectType, req.Genre, req.Description, nil)

	if h.claude != nil {
		sid := session.ID.String()
		h.progress.Publish(sid, "extract_tags", services.StatusStarted, "")
		text := strings.TrimSpace(fmt.Sprintf("%s %s %s %s", session.Title, session.ProjectType, session.Genre, session.Description))
		tags := h.claude.ExtractTags(c.Request.Context(), text, 10)
		h.progress.Publish(sid, "extract_tags", services.StatusFinished, fmt.Sprintf("%d tags", len(tags)))
		session, _ = h.store.Update(session.ID, func(live *models.Session) {
			live.Tags = tags
		})
	}

	c.JSON(http.StatusCreated, session)
}

// List returns every session of this run in insertion order.
func (h *SessionsHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.All())
}

func (h *SessionsHandler) Get(c *gin.Context) {
	s, ok := h.sessionFromParam(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s)
}

// Current returns the session the cursor points at, if any.
func (h *SessionsHandler) Current(c *gin.Context) {
	s, ok := h.store.Current()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "No active session"})
		return
	}
	c.JSON(http.StatusOK, s)
}

// Select moves the current-session cursor.
func (h *SessionsHandler) Select(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid session id"})
		return
	}
	if err := h.store.SetCurrent(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}
	s, _ := h.store.Get(id)
	c.JSON(http.StatusOK, s)
}

// Deselect clears the current-session cursor; later pipeline calls must
// name a session explicitly until another one is created or selected.
func (h *SessionsHandler) Deselect(c *gin.Context) {
	h.store.ClearCurrent()
	c.Status(http.StatusNoContent)
}

// Save persists the session document and catalog row.
func (h *SessionsHandler) Save(c *gin.Context) {
	s, ok := h.sessionFromParam(c)
	if !ok {
		return
	}

	path, err := h.store.Save(s.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save session"})
		return
	}
	s, _ = h.store.Get(s.ID)
	c.JSON(http.StatusOK, gin.H{"session": s, "document_path": path})
}

// Summary returns an AI project summary, degrading to a fixed template
// when the text service is unavailable.
func (h *SessionsHandler) Summary(c *gin.Context) {
	s, ok := h.sessionFromParam(c)
	if !ok {
		return
	}

	if h.claude == nil {
		c.JSON(http.StatusOK, gin.H{
			"summary":  fallbackSummary(s.Title, s.ProjectType, s.Genre),
			"degraded": true,
		})
		return
	}

	h.progress.Publish(s.ID.String(), "summarize", services.StatusStarted, "")
	summary, err := h.claude.SummarizeProject(c.Request.Context(), s.Title, s.ProjectType, s.Genre, s.Description)
	if err != nil {
		h.progress.Publish(s.ID.String(), "summarize", services.StatusFailed, err.Error())
		c.JSON(http.StatusOK, gin.H{
			"summary":  fallbackSummary(s.Title, s.ProjectType, s.Genre),
			"degraded": true,
		})
		return
	}
	h.progress.Publish(s.ID.String(), "summarize", services.StatusFinished, "")
	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

// Suggestions returns AI improvement suggestions. The degraded path keeps
// the UI useful by pointing at keywords from the user's own description.
func (h *SessionsHandler) Suggestions(c *gin.Context) {
	s, ok := h.sessionFromParam(c)
	if !ok {
		return
	}

	if h.claude == nil {
		suggestions := []string{}
		keywords := utils.KeywordTags(s.Title + " " + s.Description)
		if len(keywords) > 3 {
			keywords = keywords[:3]
		}
		for _, kw := range keywords {
			suggestions = append(suggestions, fmt.Sprintf("Consider expanding on %q in the description.", kw))
		}
		c.JSON(http.StatusOK, gin.H{"suggestions": suggestions, "degraded": true})
		return
	}

	h.progress.Publish(s.ID.String(), "suggest", services.StatusStarted, "")
	suggestions := h.claude.SuggestImprovements(c.Request.Context(), s)
	h.progress.Publish(s.ID.String(), "suggest", services.StatusFinished, fmt.Sprintf("%d suggestions", len(suggestions)))
	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

func fallbackSummary(title, projectType, genre string) string {
	return fmt.Sprintf("%s: a %s project in the %s genre.", title, projectType, genre)
}

// sessionFromParam resolves :id, writing the error response itself.
func (h *SessionsHandler) sessionFromParam(c *gin.Context) (*models.Session, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid session id"})
		return nil, false
	}
	session, found := h.store.Get(id)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return nil, false
	}
	return session, true
}
