package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"ideaboard/config"
)

// AssetsHandler exposes generated artifacts (sketches, rendered images,
// models, exported scenes) read-only so the UI can preview and download
// them. All access is confined to the assets directory.
type AssetsHandler struct {
	cfg *config.Config
}

func NewAssetsHandler(cfg *config.Config) *AssetsHandler {
	return &AssetsHandler{cfg: cfg}
}

type AssetInfo struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	Size    int64  `json:"size"`
	ModTime string `json:"mod_time"`
}

var assetDirs = map[string]bool{
	"sketches": true,
	"images":   true,
	"models":   true,
	"sessions": true,
}

// List returns the files in one asset subdirectory (?dir=images etc.).
func (h *AssetsHandler) List(c *gin.Context) {
	dir := c.DefaultQuery("dir", "images")
	if !assetDirs[dir] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown asset directory"})
		return
	}

	fullDir := filepath.Join(h.cfg.AssetsDir, dir)
	entries, err := os.ReadDir(fullDir)
	if err != nil {
		if os.IsNotExist(err) {
			c.JSON(http.StatusOK, []AssetInfo{})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read assets"})
		return
	}

	assets := make([]AssetInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		assets = append(assets, AssetInfo{
			Name:    entry.Name(),
			Path:    filepath.Join(fullDir, entry.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime().UTC().Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, assets)
}

// Raw serves one artifact file (?path=...). The path must resolve inside
// the assets directory.
func (h *AssetsHandler) Raw(c *gin.Context) {
	requested := c.Query("path")
	if requested == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path required"})
		return
	}

	fullPath, err := h.safePath(requested)
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}
	if _, err := os.Stat(fullPath); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
		return
	}
	c.File(fullPath)
}

// safePath resolves requested against the assets root and rejects escapes.
func (h *AssetsHandler) safePath(requested string) (string, error) {
	root, err := filepath.Abs(h.cfg.AssetsDir)
	if err != nil {
		return "", err
	}
	full, err := filepath.Abs(requested)
	if err != nil {
		return "", err
	}
	if full != root && !strings.HasPrefix(full, root+string(os.PathSeparator)) {
		return "", os.ErrPermission
	}
	return full, nil
}
