package handlers

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ideaboard/config"
	"ideaboard/models"
	"ideaboard/services"
)

func newPipelineTestRouter(t *testing.T, blender *services.BlenderIntegration) (*gin.Engine, *services.SessionStore) {
	t.Helper()

	dir := t.TempDir()
	cfg := &config.Config{
		AssetsDir:   dir,
		SketchesDir: filepath.Join(dir, "sketches"),
		ImagesDir:   filepath.Join(dir, "images"),
		ModelsDir:   filepath.Join(dir, "models"),
		SessionsDir: filepath.Join(dir, "sessions"),
	}
	require.NoError(t, cfg.EnsureDirs())

	store := services.NewSessionStore(cfg.SessionsDir)
	h := NewPipelineHandler(cfg, store, nil, services.NewImageGenerator(), services.NewModelGenerator(), blender, services.NewProgressHub())

	r := gin.New()
	r.POST("/api/sessions/:id/sketch", h.UploadSketch)
	r.POST("/api/sessions/:id/text-model", h.GenerateTextModel)
	r.POST("/api/sessions/:id/export", h.Export)
	r.POST("/api/sessions/:id/launch", h.Launch)
	return r, store
}

func sketchUploadRequest(t *testing.T, url, filename string, content []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("sketch", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, url, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 200, G: 10, B: 10, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestUploadSketchRunsFullBranch(t *testing.T) {
	r, store := newPipelineTestRouter(t, nil)
	s := store.Create("3D robot", "Video Game", "Sci-Fi", "", nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, sketchUploadRequest(t, "/api/sessions/"+s.ID.String()+"/sketch", "robot.png", pngBytes(t)))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Session models.Session `json:"session"`
		Warning string         `json:"warning"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Warning)

	require.NotNil(t, resp.Session.SketchPath)
	require.NotNil(t, resp.Session.RenderedImagePath)
	require.NotNil(t, resp.Session.Sketch3DPath)

	assert.Equal(t, "rendered_"+s.ID.String()+"_robot.png", filepath.Base(*resp.Session.RenderedImagePath))
	assert.Equal(t, "model_from_sketch_rendered_"+s.ID.String()+"_robot.png.glb", filepath.Base(*resp.Session.Sketch3DPath))

	for _, p := range []string{*resp.Session.SketchPath, *resp.Session.RenderedImagePath, *resp.Session.Sketch3DPath} {
		_, err := os.Stat(p)
		assert.NoError(t, err, p)
	}
}

func TestUploadSketchUndecodableKeepsPartialSession(t *testing.T) {
	r, store := newPipelineTestRouter(t, nil)
	s := store.Create("3D robot", "", "", "", nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, sketchUploadRequest(t, "/api/sessions/"+s.ID.String()+"/sketch", "robot.png", []byte("not an image")))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Session models.Session `json:"session"`
		Warning string         `json:"warning"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Warning)
	assert.NotNil(t, resp.Session.SketchPath, "the raw upload is kept even when rendering fails")
	assert.Nil(t, resp.Session.RenderedImagePath)
	assert.Nil(t, resp.Session.Sketch3DPath)
}

func TestUploadSketchRequiresFile(t *testing.T) {
	r, store := newPipelineTestRouter(t, nil)
	s := store.Create("x", "", "", "", nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/sessions/"+s.ID.String()+"/sketch", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerateTextModelFallbackPrompt(t *testing.T) {
	r, store := newPipelineTestRouter(t, nil)
	s := store.Create("robot", "Video Game", "Sci-Fi", "", nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/sessions/"+s.ID.String()+"/text-model", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Session models.Session `json:"session"`
		Prompt  string         `json:"prompt"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "A 3D robot for a Video Game in the Sci-Fi genre.", resp.Prompt)

	require.NotNil(t, resp.Session.Text3DPath)
	assert.Equal(t, "model_from_text_a_3d_robot.glb", filepath.Base(*resp.Session.Text3DPath))
	_, err := os.Stat(*resp.Session.Text3DPath)
	assert.NoError(t, err)
}

func TestExportWithoutBlender(t *testing.T) {
	r, store := newPipelineTestRouter(t, nil)
	s := store.Create("x", "", "", "", nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/sessions/"+s.ID.String()+"/export", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestConcurrentReadsAndArtifactWrites(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		AssetsDir:   dir,
		SketchesDir: filepath.Join(dir, "sketches"),
		ImagesDir:   filepath.Join(dir, "images"),
		ModelsDir:   filepath.Join(dir, "models"),
		SessionsDir: filepath.Join(dir, "sessions"),
	}
	require.NoError(t, cfg.EnsureDirs())

	store := services.NewSessionStore(cfg.SessionsDir)
	hub := services.NewProgressHub()
	ph := NewPipelineHandler(cfg, store, nil, services.NewImageGenerator(), services.NewModelGenerator(), nil, hub)
	sh := NewSessionsHandler(cfg, store, nil, hub)

	r := gin.New()
	r.GET("/api/sessions/:id", sh.Get)
	r.POST("/api/sessions/:id/text-model", ph.GenerateTextModel)

	s := store.Create("robot", "Video Game", "Sci-Fi", "", nil)
	base := "/api/sessions/" + s.ID.String()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, base+"/text-model", nil))
			assert.Equal(t, http.StatusOK, w.Code)
		}()
		go func() {
			defer wg.Done()
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, base, nil))
			assert.Equal(t, http.StatusOK, w.Code)
		}()
	}
	wg.Wait()

	got, ok := store.Get(s.ID)
	require.True(t, ok)
	require.NotNil(t, got.Text3DPath)
}

func TestLaunchWithoutExport(t *testing.T) {
	exe := filepath.Join(t.TempDir(), "blender")
	require.NoError(t, os.WriteFile(exe, []byte("#!/bin/sh\n"), 0755))
	blender, err := services.NewBlenderIntegration(exe)
	require.NoError(t, err)

	r, store := newPipelineTestRouter(t, blender)
	s := store.Create("x", "", "", "", nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/sessions/"+s.ID.String()+"/launch", nil))
	assert.Equal(t, http.StatusConflict, w.Code)
}
