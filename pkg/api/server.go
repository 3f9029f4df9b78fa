// Package api exposes the collection engine over HTTP. Routing and handler
// shape follow the usual gin layout: a Server owning its collaborators, one
// method per endpoint, and a shared response envelope.
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/liuwen-dev/douyin-harvester/pkg/analysis"
	"github.com/liuwen-dev/douyin-harvester/pkg/api/response"
	"github.com/liuwen-dev/douyin-harvester/pkg/corpus"
	"github.com/liuwen-dev/douyin-harvester/pkg/export"
	"github.com/liuwen-dev/douyin-harvester/pkg/tasks"
)

// Version reported by the health endpoints.
const Version = "2.0.0"

// Server wires the task manager, corpus and exporter into HTTP handlers.
type Server struct {
	manager  *tasks.Manager
	corpus   *corpus.Store
	exporter *export.Writer
	logger   *logrus.Entry
}

// NewServer returns a Server over the given collaborators.
func NewServer(manager *tasks.Manager, store *corpus.Store, exporter *export.Writer, logger *logrus.Entry) *Server {
	return &Server{
		manager:  manager,
		corpus:   store,
		exporter: exporter,
		logger:   logger,
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "running",
		"service": "douyin-harvester",
		"version": Version,
		"features": []string{
			"collection (keyword search, video/user search)",
			"analysis (interaction, content length, keywords)",
			"export (json, csv)",
			"browser automation",
		},
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// submit creates a background task of the given kind and answers with its id.
func (s *Server) submit(c *gin.Context, kind tasks.Kind) {
	var params tasks.Params
	if err := c.ShouldBindJSON(&params); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	id, err := s.manager.Submit(kind, params)
	if err != nil {
		var verr *tasks.ValidationError
		if errors.As(err, &verr) {
			response.BadRequest(c, verr.Error())
			return
		}
		response.InternalError(c, err.Error())
		return
	}

	response.OK(c, gin.H{
		"task_id":    id,
		"message":    "collection task started",
		"status_url": "/api/collect/status/" + id,
	})
}

func (s *Server) startSearchCollection(c *gin.Context) {
	s.submit(c, tasks.KindSearchCollect)
}

func (s *Server) startKeywordCollection(c *gin.Context) {
	s.submit(c, tasks.KindKeywordSearch)
}

func (s *Server) startVideoCollection(c *gin.Context) {
	s.submit(c, tasks.KindVideoHarvest)
}

func (s *Server) startUserCollection(c *gin.Context) {
	s.submit(c, tasks.KindUserHarvest)
}

func (s *Server) collectionStatus(c *gin.Context) {
	task, err := s.manager.GetStatus(c.Param("task_id"))
	if err != nil {
		response.NotFound(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, task)
}

func (s *Server) stopCollection(c *gin.Context) {
	id := c.Param("task_id")
	if err := s.manager.RequestStop(id); err != nil {
		response.NotFound(c, err.Error())
		return
	}
	response.OK(c, gin.H{"message": "stop requested", "task_id": id})
}

func (s *Server) listTasks(c *gin.Context) {
	all := s.manager.Tasks()
	response.OK(c, gin.H{"count": len(all), "tasks": all})
}

func (s *Server) getVideos(c *gin.Context) {
	videos := s.corpus.Videos()
	response.OK(c, gin.H{"count": len(videos), "data": videos})
}

func (s *Server) getUsers(c *gin.Context) {
	users := s.corpus.Users()
	response.OK(c, gin.H{"count": len(users), "data": users})
}

func (s *Server) resetData(c *gin.Context) {
	s.corpus.Reset()
	response.OK(c, gin.H{"message": "collected data cleared"})
}

// AnalysisRequest selects a corpus and an analysis to run over it.
type AnalysisRequest struct {
	DataType     string `json:"data_type"`     // "video" or "user"
	AnalysisType string `json:"analysis_type"` // "interaction", "content_length", "keywords"
	TopN         int    `json:"top_n,omitempty"`
}

func (s *Server) analyze(c *gin.Context) {
	var req AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	var entries []analysis.Entry
	switch req.DataType {
	case "video", "":
		entries = analysis.VideoEntries(s.corpus.Videos())
	case "user":
		entries = analysis.UserEntries(s.corpus.Users())
	default:
		response.BadRequest(c, "unsupported data_type: "+req.DataType)
		return
	}

	var (
		result any
		err    error
	)
	switch req.AnalysisType {
	case "interaction":
		result, err = analysis.AnalyzeInteraction(entries)
	case "content_length":
		result, err = analysis.AnalyzeContentLength(entries)
	case "keywords":
		result, err = analysis.AnalyzeKeywords(entries, req.TopN)
	default:
		response.BadRequest(c, "unsupported analysis_type: "+req.AnalysisType)
		return
	}
	if err != nil {
		var empty *analysis.EmptyCorpusError
		if errors.As(err, &empty) {
			response.BadRequest(c, err.Error())
			return
		}
		response.InternalError(c, "analysis failed: "+err.Error())
		return
	}

	response.OK(c, gin.H{
		"data_type":     req.DataType,
		"analysis_type": req.AnalysisType,
		"result":        result,
		"timestamp":     time.Now().Format(time.RFC3339),
	})
}

// ExportRequest selects a corpus and an output format.
type ExportRequest struct {
	DataType string `json:"data_type"` // "video" or "user"
	Format   string `json:"format"`    // "json" or "csv"
}

func (s *Server) exportData(c *gin.Context) {
	var req ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	format := export.Format(req.Format)
	var (
		file *export.File
		err  error
	)
	switch req.DataType {
	case "video", "":
		videos := s.corpus.Videos()
		if len(videos) == 0 {
			response.BadRequest(c, "no video data to export")
			return
		}
		file, err = s.exporter.Videos(videos, format)
	case "user":
		users := s.corpus.Users()
		if len(users) == 0 {
			response.BadRequest(c, "no user data to export")
			return
		}
		file, err = s.exporter.Users(users, format)
	default:
		response.BadRequest(c, "unsupported data_type: "+req.DataType)
		return
	}
	if err != nil {
		var unsupported *export.UnsupportedFormatError
		if errors.As(err, &unsupported) {
			response.BadRequest(c, err.Error())
			return
		}
		response.InternalError(c, "export failed: "+err.Error())
		return
	}

	c.FileAttachment(file.Path, file.Name)
}

// runDirect executes a task synchronously and returns its final snapshot, or
// writes the error response and returns a zero task with ok=false.
func (s *Server) runDirect(c *gin.Context, kind tasks.Kind) (tasks.Task, bool) {
	var params tasks.Params
	if err := c.ShouldBindJSON(&params); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return tasks.Task{}, false
	}

	task, err := s.manager.RunDirect(c.Request.Context(), kind, params)
	if err != nil {
		var verr *tasks.ValidationError
		if errors.As(err, &verr) {
			response.BadRequest(c, verr.Error())
			return tasks.Task{}, false
		}
		response.InternalError(c, err.Error())
		return tasks.Task{}, false
	}
	if task.Status == tasks.StatusFailed {
		response.InternalError(c, task.Error)
		return tasks.Task{}, false
	}
	if task.Result == nil {
		response.InternalError(c, "task finished without a result")
		return tasks.Task{}, false
	}
	return task, true
}

func (s *Server) videoComments(c *gin.Context) {
	task, ok := s.runDirect(c, tasks.KindVideoHarvest)
	if !ok {
		return
	}
	res := task.Result
	response.OK(c, gin.H{
		"video_url": res.VideoURL,
		"count":     res.CommentCount,
		"comments":  res.Comments,
	})
}

func (s *Server) keywordComments(c *gin.Context) {
	task, ok := s.runDirect(c, tasks.KindKeywordSearch)
	if !ok {
		return
	}
	res := task.Result
	response.OK(c, gin.H{
		"keyword":       res.Keyword,
		"video_count":   res.VideoCount,
		"comment_count": res.CommentCount,
		"comments":      res.Comments,
		"skipped":       res.Skipped,
	})
}

func (s *Server) userComments(c *gin.Context) {
	task, ok := s.runDirect(c, tasks.KindUserHarvest)
	if !ok {
		return
	}
	res := task.Result
	response.OK(c, gin.H{
		"user_input":    res.UserInput,
		"video_count":   res.VideoCount,
		"comment_count": res.CommentCount,
		"comments":      res.Comments,
	})
}
