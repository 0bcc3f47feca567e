package handlers

import (
	"fmt"
	"log"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ideaboard/config"
	"ideaboard/models"
	"ideaboard/services"
)

// PipelineHandler sequences the generation pipeline for a session:
// sketch upload -> rendered image -> sketch 3D model, the optional
// text 3D model, the Blender scene export, and the interactive launch.
// Each step requires its predecessor's artifact; failures degrade to a
// response with a warning instead of aborting the process.
type PipelineHandler struct {
	cfg      *config.Config
	store    *services.SessionStore
	claude   *services.ClaudeService      // nil when no credential is configured
	images   *services.ImageGenerator
	meshes   *services.ModelGenerator
	blender  *services.BlenderIntegration // nil when no executable was found
	progress *services.ProgressHub
}

func NewPipelineHandler(
	cfg *config.Config,
	store *services.SessionStore,
	claude *services.ClaudeService,
	images *services.ImageGenerator,
	meshes *services.ModelGenerator,
	blender *services.BlenderIntegration,
	progress *services.ProgressHub,
) *PipelineHandler {
	return &PipelineHandler{
		cfg:      cfg,
		store:    store,
		claude:   claude,
		images:   images,
		meshes:   meshes,
		blender:  blender,
		progress: progress,
	}
}

// UploadSketch accepts the sketch file and runs the sketch branch of the
// pipeline: save upload, sketch-to-image, image-to-3D. A failed step
// leaves the session with whatever artifacts were produced before it.
func (h *PipelineHandler) UploadSketch(c *gin.Context) {
	s, ok := h.sessionFromParam(c)
	if !ok {
		return
	}
	sid := s.ID.String()

	file, err := c.FormFile("sketch")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Sketch file required"})
		return
	}

	sketchPath := filepath.Join(h.cfg.SketchesDir, fmt.Sprintf("%s_%s", sid, filepath.Base(file.Filename)))
	if err := c.SaveUploadedFile(file, sketchPath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save sketch"})
		return
	}
	s, _ = h.store.Update(s.ID, func(live *models.Session) {
		live.SketchPath = &sketchPath
	})

	h.progress.Publish(sid, "sketch_to_image", services.StatusStarted, "")
	imagePath, err := h.images.SketchToImage(sketchPath, h.cfg.ImagesDir)
	if err != nil {
		log.Printf("Sketch-to-image failed for %s: %v", sid, err)
		h.progress.Publish(sid, "sketch_to_image", services.StatusFailed, err.Error())
		c.JSON(http.StatusOK, gin.H{"session": s, "warning": "Failed to convert sketch to image"})
		return
	}
	s, _ = h.store.Update(s.ID, func(live *models.Session) {
		live.RenderedImagePath = &imagePath
	})
	h.progress.Publish(sid, "sketch_to_image", services.StatusFinished, imagePath)

	h.progress.Publish(sid, "image_to_3d", services.StatusStarted, "")
	modelPath, err := h.meshes.ImageTo3D(imagePath, h.cfg.ModelsDir)
	if err != nil {
		log.Printf("Image-to-3D failed for %s: %v", sid, err)
		h.progress.Publish(sid, "image_to_3d", services.StatusFailed, err.Error())
		c.JSON(http.StatusOK, gin.H{"session": s, "warning": "Failed to convert image to 3D model"})
		return
	}
	s, _ = h.store.Update(s.ID, func(live *models.Session) {
		live.Sketch3DPath = &modelPath
	})
	h.progress.Publish(sid, "image_to_3d", services.StatusFinished, modelPath)

	c.JSON(http.StatusOK, gin.H{"session": s})
}

// GenerateTextModel runs the text branch: an AI-elaborated prompt (or the
// fixed fallback template) fed to the text-to-3D stub.
func (h *PipelineHandler) GenerateTextModel(c *gin.Context) {
	s, ok := h.sessionFromParam(c)
	if !ok {
		return
	}
	sid := s.ID.String()

	prompt := fmt.Sprintf("A 3D %s for a %s in the %s genre.", s.Title, s.ProjectType, s.Genre)
	if h.claude != nil {
		h.progress.Publish(sid, "generate_prompt", services.StatusStarted, "")
		generated, err := h.claude.Generate3DPrompt(c.Request.Context(), s.Title, s.ProjectType, s.Genre, s.Description)
		if err != nil {
			log.Printf("3D prompt generation failed for %s, using fallback: %v", sid, err)
			h.progress.Publish(sid, "generate_prompt", services.StatusFailed, err.Error())
		} else {
			prompt = generated
			h.progress.Publish(sid, "generate_prompt", services.StatusFinished, "")
		}
	}

	h.progress.Publish(sid, "text_to_3d", services.StatusStarted, "")
	modelPath, err := h.meshes.TextTo3D(prompt, h.cfg.ModelsDir)
	if err != nil {
		log.Printf("Text-to-3D failed for %s: %v", sid, err)
		h.progress.Publish(sid, "text_to_3d", services.StatusFailed, err.Error())
		c.JSON(http.StatusOK, gin.H{"session": s, "warning": "Failed to generate 3D model from text"})
		return
	}
	s, _ = h.store.Update(s.ID, func(live *models.Session) {
		live.Text3DPath = &modelPath
	})
	h.progress.Publish(sid, "text_to_3d", services.StatusFinished, modelPath)

	c.JSON(http.StatusOK, gin.H{"session": s, "prompt": prompt})
}

// Export builds the Blender ideation scene for the session. Works with
// zero, one or two generated models; labels, lighting and camera are
// added regardless.
func (h *PipelineHandler) Export(c *gin.Context) {
	s, ok := h.sessionFromParam(c)
	if !ok {
		return
	}
	sid := s.ID.String()

	if h.blender == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Blender integration not available"})
		return
	}

	outputPath := filepath.Join(h.cfg.AssetsDir, sid+".blend")

	h.progress.Publish(sid, "export_scene", services.StatusStarted, "")
	blendFile, err := h.blender.CreateScene(c.Request.Context(), s, outputPath)
	if err != nil {
		log.Printf("Scene export failed for %s: %v", sid, err)
		h.progress.Publish(sid, "export_scene", services.StatusFailed, err.Error())
		c.JSON(http.StatusOK, gin.H{"session": s, "warning": "Failed to create Blender scene"})
		return
	}
	s, _ = h.store.Update(s.ID, func(live *models.Session) {
		live.BlenderFilePath = &blendFile
	})
	h.progress.Publish(sid, "export_scene", services.StatusFinished, blendFile)

	c.JSON(http.StatusOK, gin.H{"session": s, "blender_file_path": blendFile})
}

// Launch opens Blender interactively on the exported scene. Requires a
// prior successful export.
func (h *PipelineHandler) Launch(c *gin.Context) {
	s, ok := h.sessionFromParam(c)
	if !ok {
		return
	}

	if h.blender == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Blender integration not available"})
		return
	}
	if s.BlenderFilePath == nil || *s.BlenderFilePath == "" {
		c.JSON(http.StatusConflict, gin.H{"error": "Session has no exported scene; export first"})
		return
	}

	if err := h.blender.LaunchWithScene(*s.BlenderFilePath); err != nil {
		log.Printf("Blender launch failed for %s: %v", s.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to launch Blender"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"launched": true})
}

func (h *PipelineHandler) sessionFromParam(c *gin.Context) (*models.Session, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid session id"})
		return nil, false
	}
	s, found := h.store.Get(id)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return nil, false
	}
	return s, true
}
