// routes_models.go - Manifest-Endpunkte
// Hauptfunktionen: ListHandler, ShowHandler, BlobHandler
package server

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/7blacky7/brainforge/fs/ngf"
	"github.com/7blacky7/brainforge/store"
)

// ModelResponse ist ein Manifest-Eintrag im Listen-Endpunkt
type ModelResponse struct {
	Name       string    `json:"name"`
	ID         string    `json:"id"`
	Digest     string    `json:"digest"`
	Size       int64     `json:"size"`
	Seed       uint64    `json:"seed"`
	Version    string    `json:"version"`
	ModifiedAt time.Time `json:"modified_at"`
}

// ShowResponse beschreibt ein dekodiertes Artefakt
type ShowResponse struct {
	Name     string          `json:"name"`
	Producer string          `json:"producer"`
	Version  string          `json:"version"`
	Seed     uint64          `json:"seed"`
	Inputs   []ngf.ValueInfo `json:"inputs"`
	Outputs  []ngf.ValueInfo `json:"outputs"`
	Nodes    int             `json:"nodes"`
	Tensors  int             `json:"tensors"`
}

// ListHandler listet alle gebauten Artefakte aus dem Manifest auf
func (s *Server) ListHandler(c *gin.Context) {
	builds, err := s.store.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	models := make([]ModelResponse, 0, len(builds))
	for _, b := range builds {
		models = append(models, ModelResponse{
			Name:       b.Name,
			ID:         b.ID,
			Digest:     b.Digest,
			Size:       b.Size,
			Seed:       b.Seed,
			Version:    b.Version,
			ModifiedAt: b.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"models": models})
}

// lookupBuild holt einen Manifest-Eintrag und meldet 404 bei
// unbekannten Namen
func (s *Server) lookupBuild(c *gin.Context) (*store.Build, bool) {
	name := c.Param("name")
	b, err := s.store.Get(name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("model %q not found", name)})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return nil, false
	}
	return b, true
}

// ShowHandler dekodiert ein Artefakt und liefert seine Metadaten
func (s *Server) ShowHandler(c *gin.Context) {
	b, ok := s.lookupBuild(c)
	if !ok {
		return
	}

	f, err := os.Open(b.Path)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer f.Close()

	file, err := ngf.Decode(f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("decode %s: %s", b.Path, err)})
		return
	}

	c.JSON(http.StatusOK, ShowResponse{
		Name:     file.KV.GraphName(),
		Producer: file.KV.Producer(),
		Version:  file.KV.String("general.version"),
		Seed:     file.KV.Seed(),
		Inputs:   file.Inputs,
		Outputs:  file.Outputs,
		Nodes:    len(file.Nodes),
		Tensors:  len(file.Tensors),
	})
}

// BlobHandler liefert die rohen Artefakt-Bytes aus
func (s *Server) BlobHandler(c *gin.Context) {
	b, ok := s.lookupBuild(c)
	if !ok {
		return
	}

	if _, err := os.Stat(b.Path); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("artifact %s missing on disk", b.Path)})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", b.Name+".ngf"))
	c.File(b.Path)
}
