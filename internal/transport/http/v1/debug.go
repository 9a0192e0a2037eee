package v1

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
)

const maxUploadSize = 10 << 20

// TableInfo lists database tables and row counts.
// GET /api/debug/tables/info
func (h *Handler) TableInfo(c echo.Context) error {
	tables, err := h.service.TableInfo(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"tables": tables,
	})
}

// CreateTables applies schema migrations.
// POST /api/debug/tables/create
func (h *Handler) CreateTables(c echo.Context) error {
	if err := h.service.CreateTables(c.Request().Context()); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "tables created"})
}

// DropTables removes all application tables.
// POST /api/debug/tables/drop
func (h *Handler) DropTables(c echo.Context) error {
	if err := h.service.DropTables(c.Request().Context()); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "tables dropped"})
}

// UploadImage stores a multipart image upload as a new character.
// POST /api/debug/upload-image
func (h *Handler) UploadImage(c echo.Context) error {
	file, err := c.FormFile("image")
	if err != nil {
		return badRequest(c, "no image uploaded")
	}
	if file.Size > maxUploadSize {
		return badRequest(c, "image too large")
	}

	src, err := file.Open()
	if err != nil {
		return badRequest(c, "failed to read upload")
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, maxUploadSize+1))
	if err != nil {
		return badRequest(c, "failed to read upload")
	}

	character, err := h.service.UploadImage(c.Request().Context(), file.Filename, data)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, character)
}
