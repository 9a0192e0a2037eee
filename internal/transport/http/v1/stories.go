package v1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/82deutschmark/MagicalFarmStories/internal/domain"
)

// GenerateStory writes a story for a character.
// POST /api/generate-story
func (h *Handler) GenerateStory(c echo.Context) error {
	var req domain.GenerateStoryRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	resp, err := h.service.GenerateStory(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// GenerateIllustration draws a picture for a story.
// POST /api/generate-illustration
func (h *Handler) GenerateIllustration(c echo.Context) error {
	var req domain.IllustrationRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	resp, err := h.service.GenerateIllustration(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// SaveStory persists a story.
// POST /api/stories
func (h *Handler) SaveStory(c echo.Context) error {
	var req domain.SaveStoryRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid story data")
	}

	story, err := h.service.SaveStory(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, story)
}

// ListStories returns all saved stories.
// GET /api/stories
func (h *Handler) ListStories(c echo.Context) error {
	stories, err := h.service.ListStories(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, stories)
}

// GetStory returns one saved story.
// GET /api/stories/:id
func (h *Handler) GetStory(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return badRequest(c, "story id must be numeric")
	}

	story, err := h.service.GetStory(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, story)
}

// ListAttempts returns the workflow audit trail.
// GET /api/attempts?character_id=&limit=
func (h *Handler) ListAttempts(c echo.Context) error {
	limit := 50
	if l := c.QueryParam("limit"); l != "" {
		if val, err := strconv.Atoi(l); err == nil {
			limit = val
		}
	}

	attempts, err := h.service.ListAttempts(c.Request().Context(), c.QueryParam("character_id"), limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"attempts": attempts,
	})
}
