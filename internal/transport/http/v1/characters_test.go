package v1

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/82deutschmark/MagicalFarmStories/internal/domain"
)

func TestRandomCharacters(t *testing.T) {
	e := echo.New()
	h, db := newTestHandler(t)
	for _, id := range []string{"a", "b", "c", "d"} {
		seedCharacter(t, db, id)
	}

	t.Run("default count", func(t *testing.T) {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/farm-images", nil), rec)
		require.NoError(t, h.RandomCharacters(c))
		assert.Equal(t, http.StatusOK, rec.Code)

		var characters []domain.Character
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &characters))
		assert.Len(t, characters, 3)
	})

	t.Run("explicit count", func(t *testing.T) {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/farm-images?count=2", nil), rec)
		require.NoError(t, h.RandomCharacters(c))

		var characters []domain.Character
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &characters))
		assert.Len(t, characters, 2)
	})

	t.Run("invalid count", func(t *testing.T) {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/farm-images?count=abc", nil), rec)
		require.NoError(t, h.RandomCharacters(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGetAndSelectCharacter(t *testing.T) {
	e := echo.New()
	h, db := newTestHandler(t)
	seedCharacter(t, db, "daisy")

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/farm-image/ghost", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues("ghost")
	require.NoError(t, h.GetCharacter(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"not_found"`)

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodPost, "/api/farm-image/daisy/select", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues("daisy")
	require.NoError(t, h.SelectCharacter(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var character domain.Character
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &character))
	assert.Equal(t, 1, character.SelectionCount)
}

func TestAnalyzeCharacter(t *testing.T) {
	e := echo.New()
	h, db := newTestHandler(t)
	seedCharacter(t, db, "daisy")

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/api/farm-image/daisy/analyze", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues("daisy")
	require.NoError(t, h.AnalyzeCharacter(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "[MOCK]")
}

func TestAnalyzeImageValidation(t *testing.T) {
	e := echo.New()
	h, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/analyze-image", `{}`), rec)
	require.NoError(t, h.AnalyzeImage(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	c = e.NewContext(jsonRequest(http.MethodPost, "/api/analyze-image", `{"imageBase64":"data:image/png;base64,abc"}`), rec)
	require.NoError(t, h.AnalyzeImage(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp domain.AnalyzeImageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Description)
}

func TestCharacterResponseFieldNames(t *testing.T) {
	e := echo.New()
	h, db := newTestHandler(t)
	seedCharacter(t, db, "daisy")

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/farm-images?count=1", nil), rec)
	require.NoError(t, h.RandomCharacters(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var images []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &images))
	require.Len(t, images, 1)
	image := images[0]
	assert.Equal(t, "daisy", image["storyMakerId"])
	assert.Equal(t, "aGVsbG8=", image["imageBase64"])
	assert.Equal(t, "daisy.png", image["originalFileName"])
	assert.Equal(t, false, image["analyzedByAI"])
	assert.Equal(t, float64(0), image["selectionCount"])
	assert.Contains(t, image, "createdAt")
	assert.NotContains(t, image, "story_maker_id")
}
