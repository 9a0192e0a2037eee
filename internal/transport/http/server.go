// Package http provides the HTTP server of the story service.
package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/82deutschmark/MagicalFarmStories/internal/hub"
	"github.com/82deutschmark/MagicalFarmStories/internal/service"
	v1 "github.com/82deutschmark/MagicalFarmStories/internal/transport/http/v1"
	"github.com/82deutschmark/MagicalFarmStories/internal/transport/ws"
)

// NewServer creates and configures the HTTP server: the JSON API plus the
// progress WebSocket stream.
func NewServer(svc *service.Service, progress *hub.Hub) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.BodyLimit("12M"))

	// Handlers
	v1Handler := v1.NewHandler(svc)
	wsServer := ws.NewServer(progress)

	// Register Routes
	v1Handler.RegisterRoutes(e)
	e.GET("/ws/progress/:channel", wsServer.HandleProgress)

	return e
}
