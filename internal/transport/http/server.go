// Package http provides the HTTP server implementation for the status service.
package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/xiaot623/gogo/agentstatus/internal/service"
	v1 "github.com/xiaot623/gogo/agentstatus/internal/transport/http/v1"
)

// NewServer creates and configures the HTTP server pollers talk to.
func NewServer(svc *service.Service) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	v1.NewHandler(svc).RegisterRoutes(e)

	return e
}
