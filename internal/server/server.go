// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the pipeline over HTTP with gin. Each request to
// /v1/answers runs the full pipeline synchronously and returns the result
// with its trace.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pdiddy/groundwork/pkg/types"
)

// Error codes returned in ErrorResponse.Code.
const (
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeGenerationFailed = "GENERATION_FAILED"
	CodeRebuildFailed    = "REBUILD_FAILED"
)

const requestIDHeader = "X-Request-ID"

// Service is what the handlers need from the application.
type Service interface {
	Run(ctx context.Context, request string) (types.Result, error)
	Rebuild(ctx context.Context) (types.IndexStatus, error)
	Status() types.IndexStatus
}

// AnswerRequest is the body of POST /v1/answers.
type AnswerRequest struct {
	Request string `json:"request" binding:"required"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

// Server routes HTTP requests to a Service.
type Server struct {
	svc    Service
	logger *zap.Logger
	engine *gin.Engine
}

// New builds the router.
func New(svc Service, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{svc: svc, logger: logger, engine: gin.New()}
	s.engine.Use(gin.Recovery(), s.requestLogger())

	s.engine.GET("/healthz", s.health)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.engine.Group("/v1")
	{
		v1.POST("/answers", s.answer)
		v1.GET("/index", s.indexStatus)
		v1.POST("/index/rebuild", s.rebuild)
	}
	return s
}

// Handler returns the router as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves on addr until ctx is cancelled, then drains
// in-flight requests for up to 30 seconds.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)

		start := time.Now()
		c.Next()

		s.logger.Info("request",
			zap.String("request_id", id),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "chunks": s.svc.Status().Chunks})
}

func (s *Server) answer(c *gin.Context) {
	var req AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid request body",
			Code:    CodeInvalidRequest,
			Details: err.Error(),
		})
		return
	}

	res, err := s.svc.Run(c.Request.Context(), req.Request)
	if err != nil {
		s.logger.Error("pipeline run failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "pipeline run failed",
			Code:    CodeGenerationFailed,
			Details: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) indexStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.svc.Status())
}

func (s *Server) rebuild(c *gin.Context) {
	status, err := s.svc.Rebuild(c.Request.Context())
	if err != nil {
		s.logger.Error("index rebuild failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "index rebuild failed",
			Code:    CodeRebuildFailed,
			Details: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, status)
}
