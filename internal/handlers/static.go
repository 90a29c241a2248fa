package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

const indexFile = "index.html"

// serveStatic serves the built dashboard. Unknown non-API paths fall back to
// index.html so client-side routes resolve; unknown API paths get a JSON 404.
func (h *Handler) serveStatic(c *gin.Context) {
	path := c.Request.URL.Path
	if strings.HasPrefix(path, "/api/") || h.staticDir == "" || c.Request.Method != http.MethodGet {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	// Clean against a rooted path so ".." cannot escape staticDir
	rel := filepath.FromSlash(filepath.Clean("/" + path))
	candidate := filepath.Join(h.staticDir, rel)
	if fi, err := os.Stat(candidate); err == nil && !fi.IsDir() {
		c.File(candidate)
		return
	}

	index := filepath.Join(h.staticDir, indexFile)
	if _, err := os.Stat(index); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.File(index)
}
