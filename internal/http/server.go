// Package http provides the HTTP API for ragchatd.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ragchatd/internal/chat"
	"github.com/fyrsmithlabs/ragchatd/internal/config"
)

// SessionManager is the chat functionality the API exposes.
type SessionManager interface {
	CreateOrContinue(ctx context.Context, sessionID, message string) ([]chat.Message, error)
	Get(sessionID string) ([]chat.Message, error)
	Delete(sessionID string) (bool, error)
}

// Server provides HTTP endpoints for chat sessions.
type Server struct {
	echo    *echo.Echo
	manager SessionManager
	logger  *zap.Logger
	config  config.ServerConfig
}

// NewServer creates a new HTTP server.
func NewServer(manager SessionManager, logger *zap.Logger, cfg config.ServerConfig) (*Server, error) {
	if manager == nil {
		return nil, fmt.Errorf("manager cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			status := c.Response().Status
			if err != nil {
				var httpErr *echo.HTTPError
				if errors.As(err, &httpErr) {
					status = httpErr.Code
				}
			}
			recordHTTPRequest(c.Request().Method, c.Path(), strconv.Itoa(status), duration)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})

	s := &Server{
		echo:    e,
		manager: manager,
		logger:  logger,
		config:  cfg,
	}

	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	s.echo.POST("/chat/create", s.handleCreateChat)
	s.echo.GET("/chat/:session_id", s.handleGetChat)
	s.echo.DELETE("/chat/:session_id", s.handleDeleteChat)
}

// handleHealth returns a simple liveness response.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "API running"})
}

// handleCreateChat appends a message to a session (creating it on first
// use) and returns the full history including the assistant's reply.
func (s *Server) handleCreateChat(c echo.Context) error {
	var req ChatCreateRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid chat create request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	history, err := s.manager.CreateOrContinue(c.Request().Context(), req.SessionID, req.Message)
	if err != nil {
		if errors.Is(err, chat.ErrEmptySession) || errors.Is(err, chat.ErrEmptyMessage) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		s.logger.Error("chat create failed", zap.String("session_id", req.SessionID), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to process message")
	}

	return c.JSON(http.StatusOK, ChatResponse{SessionID: req.SessionID, History: history})
}

// handleGetChat returns the history for a session, 404 when unknown.
func (s *Server) handleGetChat(c echo.Context) error {
	sessionID := c.Param("session_id")

	history, err := s.manager.Get(sessionID)
	if err != nil {
		if errors.Is(err, chat.ErrEmptySession) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		s.logger.Error("chat get failed", zap.String("session_id", sessionID), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to read session")
	}
	if len(history) == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "Chat not found")
	}

	return c.JSON(http.StatusOK, ChatResponse{SessionID: sessionID, History: history})
}

// handleDeleteChat removes a session, 404 when it never existed.
func (s *Server) handleDeleteChat(c echo.Context) error {
	sessionID := c.Param("session_id")

	existed, err := s.manager.Delete(sessionID)
	if err != nil {
		if errors.Is(err, chat.ErrEmptySession) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		s.logger.Error("chat delete failed", zap.String("session_id", sessionID), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete session")
	}
	if !existed {
		return echo.NewHTTPError(http.StatusNotFound, "Chat not found")
	}

	return c.JSON(http.StatusOK, MessageResponse{Message: "Chat deleted successfully"})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}

// ServeHTTP lets the server be driven directly in tests.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}
