package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/LJTian/trend-keywords-bot/internal/pipeline"
	"github.com/LJTian/trend-keywords-bot/internal/storage"
)

// RunStore 运行记录的只读查询
type RunStore interface {
	ListRuns(ctx context.Context, limit int) ([]storage.RunRecord, error)
	GetRun(ctx context.Context, date string) (*storage.RunRecord, error)
}

// Trigger 手动触发一次运行，*scheduler.Scheduler 满足
type Trigger interface {
	Busy() bool
	RunOnce() (*pipeline.Result, error)
}

const triggerGrace = 50 * time.Millisecond

type Server struct {
	store    RunStore
	trigger  Trigger
	pagesDir string
}

func NewServer(store RunStore, trigger Trigger, pagesDir string) *Server {
	return &Server{store: store, trigger: trigger, pagesDir: pagesDir}
}

func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", s.health)

	if s.pagesDir != "" {
		r.Static("/pages", s.pagesDir)
	}

	v1 := r.Group("/api/v1")
	{
		v1.GET("/runs", s.listRuns)
		v1.GET("/runs/:date", s.getRun)
		v1.POST("/runs", s.triggerRun)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func internalError(c *gin.Context) {
	c.JSON(http.StatusInternalServerError, gin.H{
		"code":    "internal_error",
		"message": "internal server error",
	})
}

func (s *Server) listRuns(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"code": "unavailable", "message": "storage disabled"})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		limit = 20
	}

	runs, err := s.store.ListRuns(c.Request.Context(), limit)
	if err != nil {
		internalError(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "success",
		"data":    runs,
	})
}

func (s *Server) getRun(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"code": "unavailable", "message": "storage disabled"})
		return
	}
	date := c.Param("date")
	if _, err := time.Parse("2006-01-02", date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "bad_request", "message": "date must be YYYY-MM-DD"})
		return
	}

	run, err := s.store.GetRun(c.Request.Context(), date)
	if errors.Is(err, storage.ErrRunNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"code": "not_found", "message": "run not found"})
		return
	}
	if err != nil {
		internalError(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "success",
		"data":    run,
	})
}

// triggerRun 异步执行；已有运行进行中时返回 409
func (s *Server) triggerRun(c *gin.Context) {
	if s.trigger == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"code": "unavailable", "message": "trigger disabled"})
		return
	}
	if s.trigger.Busy() {
		runInProgress(c)
		return
	}

	// 被拒绝的触发会立即返回 ErrRunInProgress
	errCh := make(chan error, 1)
	go func() {
		_, err := s.trigger.RunOnce()
		errCh <- err
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, pipeline.ErrRunInProgress) {
			runInProgress(c)
			return
		}
	case <-time.After(triggerGrace):
	}
	c.JSON(http.StatusAccepted, gin.H{"code": "accepted", "message": "run started"})
}

func runInProgress(c *gin.Context) {
	c.JSON(http.StatusConflict, gin.H{"code": "conflict", "message": pipeline.ErrRunInProgress.Error()})
}
