package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Harshith24/rag-video/core"
	"github.com/Harshith24/rag-video/logger"
	"github.com/Harshith24/rag-video/processors"
	"github.com/Harshith24/rag-video/rag"
	"github.com/Harshith24/rag-video/storage"
)

type Handlers struct {
	pipeline *processors.Pipeline
	composer *rag.Composer
	store    storage.ChunkStore
	log      *logger.Logger
}

func NewHandlers(pipeline *processors.Pipeline, composer *rag.Composer, store storage.ChunkStore, log *logger.Logger) *Handlers {
	return &Handlers{pipeline: pipeline, composer: composer, store: store, log: log}
}

func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type ingestRequest struct {
	URL         string `json:"url" binding:"required"`
	Description string `json:"description"`
}

func (h *Handlers) IngestVideo(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
		return
	}

	result, err := h.pipeline.Ingest(c.Request.Context(), req.URL, req.Description)
	if err != nil {
		h.log.Error("ingestion failed", "url", req.URL, "kind", core.KindOf(err), "error", err)
		c.JSON(statusFor(err), gin.H{"error": err.Error(), "kind": core.KindOf(err)})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":             "success",
		"video_id":           result.VideoID,
		"video_description":  result.Description,
		"audio_chunk_count":  result.AudioChunks,
		"visual_chunk_count": result.VisualChunks,
	})
}

type queryRequest struct {
	Question  string `json:"question" binding:"required"`
	VideoID   string `json:"video_id" binding:"required"`
	TopKAudio int    `json:"top_k_audio"`
	TopKVideo int    `json:"top_k_visual"`
}

func (h *Handlers) Query(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Question) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question and video_id are required"})
		return
	}

	answer, err := h.composer.Answer(c.Request.Context(), req.Question, req.VideoID, req.TopKAudio, req.TopKVideo)
	if err != nil {
		h.log.Error("query failed", "video_id", req.VideoID, "kind", core.KindOf(err), "error", err)
		body := gin.H{"error": err.Error(), "kind": core.KindOf(err)}
		if answer != nil && len(answer.Sources) > 0 {
			// Generation died after retrieval succeeded; the sources are
			// still useful to the caller.
			body["sources"] = answer.Sources
		}
		c.JSON(statusFor(err), body)
		return
	}

	c.JSON(http.StatusOK, answer)
}

func (h *Handlers) ListVideos(c *gin.Context) {
	videos, err := h.store.ListVideos(c.Request.Context())
	if err != nil {
		h.log.Error("list videos failed", "error", err)
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	if videos == nil {
		videos = []core.VideoMeta{}
	}
	c.JSON(http.StatusOK, gin.H{"videos": videos})
}

func (h *Handlers) DeleteVideo(c *gin.Context) {
	videoID := c.Param("id")
	removed, err := h.store.DeleteVideo(c.Request.Context(), videoID)
	if err != nil {
		h.log.Error("delete video failed", "video_id", videoID, "error", err)
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"video_id": videoID, "removed_chunks": removed})
}

// statusFor maps the failure taxonomy onto HTTP statuses: upstream
// capability failures are bad gateways, store trouble is unavailability,
// anything untyped is a plain internal error.
func statusFor(err error) int {
	switch core.KindOf(err) {
	case core.KindAcquisition:
		return http.StatusUnprocessableEntity
	case core.KindTranscription, core.KindRecognition, core.KindEmbedding, core.KindGeneration:
		return http.StatusBadGateway
	case core.KindStore:
		return http.StatusServiceUnavailable
	default:
		if errors.Is(err, context.Canceled) {
			return 499
		}
		return http.StatusInternalServerError
	}
}
