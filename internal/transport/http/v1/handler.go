// Package v1 provides the public HTTP handlers of the story service.
package v1

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"

	"github.com/82deutschmark/MagicalFarmStories/internal/domain"
	"github.com/82deutschmark/MagicalFarmStories/internal/service"
)

// Handler handles HTTP requests.
type Handler struct {
	service *service.Service
}

// NewHandler creates a new handler.
func NewHandler(service *service.Service) *Handler {
	return &Handler{
		service: service,
	}
}

// RegisterRoutes registers the API routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)

	api := e.Group("/api")

	// Characters
	api.GET("/farm-images", h.RandomCharacters)
	api.GET("/farm-image/:id", h.GetCharacter)
	api.POST("/farm-image/:id/select", h.SelectCharacter)
	api.POST("/farm-image/:id/analyze", h.AnalyzeCharacter)

	// Generation
	api.POST("/analyze-image", h.AnalyzeImage)
	api.POST("/generate-story", h.GenerateStory)
	api.POST("/generate-illustration", h.GenerateIllustration)

	// Stories
	api.POST("/stories", h.SaveStory)
	api.POST("/save-story", h.SaveStory)
	api.GET("/stories", h.ListStories)
	api.GET("/stories/:id", h.GetStory)

	api.GET("/attempts", h.ListAttempts)

	// Debug tools
	debug := api.Group("/debug")
	debug.GET("/tables/info", h.TableInfo)
	debug.POST("/tables/create", h.CreateTables)
	debug.POST("/tables/drop", h.DropTables)
	debug.POST("/upload-image", h.UploadImage)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": "0.1.0",
	})
}

// errorStatus maps an error code to its HTTP status.
func errorStatus(code string) int {
	switch code {
	case service.CodeInvalidRequest:
		return http.StatusBadRequest
	case service.CodePolicyBlocked:
		return http.StatusUnprocessableEntity
	case service.CodeNotFound:
		return http.StatusNotFound
	case service.CodeRunFailed, service.CodeRunTimeout, service.CodeNoAssistantResponse, service.CodeUpstreamError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c echo.Context, err error) error {
	code := service.ErrorCode(err)
	status := errorStatus(code)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", "method", c.Request().Method, "path", c.Path(), "code", code, "err", err)
	}
	return c.JSON(status, domain.ErrorResponse{Error: err.Error(), Code: code})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: msg, Code: service.CodeInvalidRequest})
}
