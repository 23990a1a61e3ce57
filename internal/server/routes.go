package server

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// NewRouter creates the gin engine with all routes configured.
func NewRouter(h *Handlers, logger logrus.FieldLogger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), LoggingMiddleware(logger))
	router.MaxMultipartMemory = 8 << 20

	router.GET("/health", h.Health)
	router.POST("/videos", h.CreateVideo)
	router.GET("/videos", h.ListVideos)
	router.GET("/videos/:id", h.GetVideo)
	router.GET("/outputs/:name", h.Download)
	router.GET("/download/:name", h.Download)

	return router
}
