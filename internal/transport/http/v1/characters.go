package v1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/82deutschmark/MagicalFarmStories/internal/domain"
)

// RandomCharacters returns a random sample of characters.
// GET /api/farm-images?count=N
func (h *Handler) RandomCharacters(c echo.Context) error {
	count := 0
	if v := c.QueryParam("count"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return badRequest(c, "count must be a positive integer")
		}
		count = n
	}

	characters, err := h.service.RandomCharacters(c.Request().Context(), count)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, characters)
}

// GetCharacter returns one character.
// GET /api/farm-image/:id
func (h *Handler) GetCharacter(c echo.Context) error {
	character, err := h.service.GetCharacter(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, character)
}

// SelectCharacter records a selection of the character.
// POST /api/farm-image/:id/select
func (h *Handler) SelectCharacter(c echo.Context) error {
	character, err := h.service.SelectCharacter(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, character)
}

// AnalyzeCharacter describes a stored character image and saves the result.
// POST /api/farm-image/:id/analyze
func (h *Handler) AnalyzeCharacter(c echo.Context) error {
	character, resp, err := h.service.AnalyzeCharacter(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"character":   character,
		"description": resp.Description,
		"thread_id":   resp.ThreadID,
		"attempt_id":  resp.AttemptID,
	})
}

// AnalyzeImage describes an uploaded image.
// POST /api/analyze-image
func (h *Handler) AnalyzeImage(c echo.Context) error {
	var req domain.AnalyzeImageRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.ImageBase64 == "" {
		return badRequest(c, "image data required")
	}

	resp, err := h.service.AnalyzeImage(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}
