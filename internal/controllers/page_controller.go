package controllers

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/zaqqye/apkhub_backend/internal/response"
)

type PageController struct {
	StaticDir string
}

// Index serves STATIC_DIR/index.html when present and a service banner otherwise.
func (p *PageController) Index(c *gin.Context) {
	if p.StaticDir != "" {
		index := filepath.Join(p.StaticDir, "index.html")
		if st, err := os.Stat(index); err == nil && !st.IsDir() {
			c.File(index)
			return
		}
	}
	response.Success(c, gin.H{"service": "apkhub"})
}

func (p *PageController) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Fallback sends every unmatched path back to the root page.
func (p *PageController) Fallback(c *gin.Context) {
	c.Redirect(http.StatusFound, "/")
}
