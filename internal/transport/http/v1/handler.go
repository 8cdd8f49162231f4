// Package v1 provides the HTTP handlers of the status API.
package v1

import (
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/xiaot623/gogo/agentstatus/internal/domain"
	"github.com/xiaot623/gogo/agentstatus/internal/repository"
	"github.com/xiaot623/gogo/agentstatus/internal/service"
)

// SessionHeader scopes requests to a session for session-scoped stores.
const SessionHeader = "X-Session-ID"

// Handler handles HTTP requests.
type Handler struct {
	service  *service.Service
	upgrader websocket.Upgrader
}

// NewHandler creates a new handler.
func NewHandler(service *service.Service) *Handler {
	return &Handler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// RegisterRoutes registers the status routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/v1/status", withSession)
	g.GET("/:run_id", h.GetStatus)
	g.DELETE("/:run_id", h.DeleteStatus)
	g.GET("/:run_id/watch", h.WatchStatus)

	e.GET("/health", h.Health)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": "0.1.0",
	})
}

// withSession copies the session header into the request context.
func withSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if id := c.Request().Header.Get(SessionHeader); id != "" {
			req := c.Request()
			c.SetRequest(req.WithContext(repository.WithSession(req.Context(), id)))
		}
		return next(c)
	}
}

func errorResponse(c echo.Context, err error) error {
	code := http.StatusInternalServerError
	if errors.Is(err, domain.ErrBackendUnavailable) {
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, map[string]string{"error": err.Error()})
}
