// Package server is the thin HTTP shim over the ingestion pipeline and the
// answer composer: routing, CORS, request validation and error mapping only.
package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Harshith24/rag-video/config"
)

func NewRouter(cfg *config.Config, h *Handlers) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", h.HealthCheck)
	router.POST("/ingest-video", h.IngestVideo)
	router.POST("/query", h.Query)
	router.GET("/videos", h.ListVideos)
	router.DELETE("/videos/:id", h.DeleteVideo)

	return router
}
