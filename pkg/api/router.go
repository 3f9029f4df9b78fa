package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Router builds the gin engine with all routes attached.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.requestLogger())

	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	r.GET("/", s.health)
	r.GET("/health", s.health)

	api := r.Group("/api")
	{
		collect := api.Group("/collect")
		{
			collect.POST("/search", s.startSearchCollection)
			collect.GET("/status/:task_id", s.collectionStatus)
			collect.POST("/stop/:task_id", s.stopCollection)
			collect.POST("/keyword/comments", s.startKeywordCollection)
			collect.POST("/video/comments", s.startVideoCollection)
			collect.POST("/user/comments", s.startUserCollection)
		}

		data := api.Group("/data")
		{
			data.GET("/videos", s.getVideos)
			data.GET("/users", s.getUsers)
			data.POST("/reset", s.resetData)
		}

		api.GET("/tasks", s.listTasks)
		api.POST("/analyze", s.analyze)
		api.POST("/export", s.exportData)

		// Synchronous variants: block until harvesting finishes and return
		// the comments inline.
		api.POST("/video/comments", s.videoComments)
		api.POST("/keyword/comments", s.keywordComments)
		api.POST("/user/comments", s.userComments)
	}

	return r
}

// requestLogger logs each request with method, path, status and latency.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		entry := s.logger.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		})
		if len(c.Errors) > 0 {
			entry.Warn(c.Errors.String())
			return
		}
		entry.Debug("Request handled")
	}
}
