package http

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"askbase/internal/adapters/kbstore"
	"askbase/internal/domain/ports"
)

type askRequest struct {
	Question string `json:"question" binding:"required"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"entries": s.holder.Current().Store.Count(),
	})
}

// handleAsk runs one query through the answer engine. Policy outcomes
// (refuse, too short) are 200s; only infrastructure faults produce a 503.
func (s *Server) handleAsk(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be JSON with a question field"})
		return
	}

	plan, err := s.answer.Answer(c.Request.Context(), req.Question, s.holder.Current())
	if err != nil {
		s.logger.Error("answering failed",
			zap.String("request_id", c.GetString("request_id")),
			zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "retrieval backend unavailable"})
		return
	}

	c.JSON(http.StatusOK, plan)
}

// handleSource serves the source document behind an entry, e.g.
// GET /api/source/S3_AME_M1_001/pdf downloads the PDF the answer came from.
func (s *Server) handleSource(c *gin.Context) {
	id := c.Param("id")
	ext := strings.ToLower(c.Param("ext"))

	entry, err := s.holder.Current().Store.Get(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no such entry"})
		return
	}

	rel, ok := entry.Source.Path[ext]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "entry has no " + ext + " source"})
		return
	}

	path := filepath.Join(s.notesDir, filepath.Clean("/"+rel))
	if _, err := os.Stat(path); err != nil {
		s.logger.Warn("source file missing",
			zap.String("entry", id),
			zap.String("path", path))
		c.JSON(http.StatusNotFound, gin.H{"error": "source file not available"})
		return
	}

	c.FileAttachment(path, filepath.Base(path))
}

func (s *Server) handleListEntries(c *gin.Context) {
	entries := s.holder.Current().Store.All()
	c.JSON(http.StatusOK, gin.H{
		"count":   len(entries),
		"entries": entries,
	})
}

func (s *Server) handleCreateEntry(c *gin.Context) {
	var draft kbstore.EntryDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := s.editor.Create(draft)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.rebuild.Refresh(c.Request.Context())
	c.JSON(http.StatusCreated, entry)
}

func (s *Server) handleUpdateEntry(c *gin.Context) {
	var draft kbstore.EntryDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := s.editor.Update(c.Param("id"), draft)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no such entry"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.rebuild.Refresh(c.Request.Context())
	c.JSON(http.StatusOK, entry)
}

func (s *Server) handleDeleteEntry(c *gin.Context) {
	if err := s.editor.Delete(c.Param("id")); err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no such entry"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.rebuild.Refresh(c.Request.Context())
	c.Status(http.StatusNoContent)
}
