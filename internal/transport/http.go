// Package transport exposes the sanitization webhook over HTTP. Handlers stay
// thin: payload bytes go straight to the turn service, which owns validation,
// and responses are its closed field set serialized as-is.
package transport

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/jdutton/n8n-pii-sanitization/internal/domain/session"
	"github.com/jdutton/n8n-pii-sanitization/internal/domain/turn"
)

// TurnService processes detection turns and erasure requests.
type TurnService interface {
	Process(ctx context.Context, raw []byte, scope session.Scope) (*turn.Response, error)
	DeleteSession(ctx context.Context, id string)
}

// Server wires HTTP handlers.
type Server struct {
	service TurnService
}

// Config holds transport settings.
type Config struct {
	// AuthToken enables bearer authentication when non-empty.
	AuthToken string
	// Logger receives request logs. Request bodies are never logged: they
	// carry raw untokenized input.
	Logger RequestLogger
}

// NewServer creates the webhook HTTP server.
func NewServer(service TurnService, cfg Config) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	if cfg.Logger != nil {
		e.Use(requestLogging(cfg.Logger))
	}
	if cfg.AuthToken != "" {
		e.Use(BearerAuth(cfg.AuthToken))
	}

	srv := &Server{service: service}

	e.POST("/webhook", srv.handleSingle)
	e.POST("/webhook/chat", srv.handleChat)
	e.DELETE("/sessions/:id", srv.handleDelete)
	e.GET("/health", srv.handleHealth)

	return e
}

func (s *Server) handleSingle(c echo.Context) error {
	return s.process(c, session.ScopeSingle)
}

func (s *Server) handleChat(c echo.Context) error {
	return s.process(c, session.ScopeChat)
}

func (s *Server) process(c echo.Context, scope session.Scope) error {
	raw, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"status": "error"})
	}

	resp, err := s.service.Process(c.Request().Context(), raw, scope)
	if err != nil {
		if errors.Is(err, session.ErrSessionBusy) || errors.Is(err, context.DeadlineExceeded) {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "busy"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"status": "error"})
	}
	// Malformed payloads are recovered by the service and reported through
	// the response status, so the webhook contract stays a single shape.
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleDelete(c echo.Context) error {
	// Erasure is idempotent and always succeeds, no prior existence check.
	s.service.DeleteSession(c.Request().Context(), c.Param("id"))
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
}
