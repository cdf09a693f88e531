// routes_build.go - Build- und Verifikations-Endpunkte
// Hauptfunktionen: CreateHandler, VerifyHandler
package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/7blacky7/brainforge/envconfig"
	"github.com/7blacky7/brainforge/models"
	"github.com/7blacky7/brainforge/store"
	"github.com/7blacky7/brainforge/verify"
	"github.com/7blacky7/brainforge/version"
)

// CreateRequest fordert einen Build eines registrierten Modells an
type CreateRequest struct {
	Name string  `json:"name" binding:"required"`
	Seed *uint64 `json:"seed"`
}

// VerifyRequest fordert die Pruefung eines gebauten Artefakts an
type VerifyRequest struct {
	Name  string `json:"name" binding:"required"`
	Smoke bool   `json:"smoke"`
}

// VerifyResponse fasst das Pruefergebnis zusammen
type VerifyResponse struct {
	Report *verify.Report `json:"report"`
	Smoke  string         `json:"smoke,omitempty"`
}

// CreateHandler baut ein Modell serverseitig und traegt es ins
// Manifest ein
func (s *Server) CreateHandler(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	def, err := models.Lookup(req.Name)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	seed := envconfig.Seed()
	if req.Seed != nil {
		seed = *req.Seed
	}

	start := time.Now()
	artifact, err := models.WriteFile(envconfig.Models(), def, seed)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("build %s: %s", def.Name, err)})
		return
	}

	if !envconfig.NoVerify() {
		contract := verify.Contract{Input: def.Input, Output: def.Output}
		if _, err := verify.File(artifact.Path, contract); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("verify %s: %s", def.Name, err)})
			return
		}
	}

	build, err := s.store.Record(store.Build{
		Name:    artifact.Name,
		Path:    artifact.Path,
		Digest:  artifact.Digest,
		Size:    artifact.Size,
		Seed:    artifact.Seed,
		Version: version.Version,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("record %s: %s", def.Name, err)})
		return
	}

	slog.Info("built model", "name", def.Name, "seed", seed, "duration", time.Since(start))
	c.JSON(http.StatusOK, build)
}

// VerifyHandler prueft ein gebautes Artefakt gegen seinen Vertrag
func (s *Server) VerifyHandler(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	def, err := models.Lookup(req.Name)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	b, err := s.store.Get(req.Name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("model %q was never built", req.Name)})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	contract := verify.Contract{Input: def.Input, Output: def.Output}
	report, err := verify.File(b.Path, contract)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": fmt.Sprintf("verify %s: %s", req.Name, err)})
		return
	}

	resp := VerifyResponse{Report: report}
	if req.Smoke {
		output, err := verify.Execute(b.Path, verify.Ones(def.Input[len(def.Input)-1]))
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": fmt.Sprintf("execute %s: %s", req.Name, err)})
			return
		}
		if err := def.Smoke(output); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": fmt.Sprintf("smoke %s: %s", req.Name, err)})
			return
		}
		resp.Smoke = "ok"
	}

	c.JSON(http.StatusOK, resp)
}
