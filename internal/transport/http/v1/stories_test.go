package v1

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/82deutschmark/MagicalFarmStories/internal/domain"
)

func TestGenerateStory(t *testing.T) {
	e := echo.New()
	h, _ := newTestHandler(t)

	t.Run("Allowed", func(t *testing.T) {
		rec := httptest.NewRecorder()
		c := e.NewContext(jsonRequest(http.MethodPost, "/api/generate-story",
			`{"characterName":"Daisy","characterDescription":"a brown cow","additionalPrompt":"a rainbow"}`), rec)
		require.NoError(t, h.GenerateStory(c))
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp domain.GenerateStoryResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Contains(t, resp.Story, "Once upon a time")
	})

	t.Run("Blocked By Policy", func(t *testing.T) {
		rec := httptest.NewRecorder()
		c := e.NewContext(jsonRequest(http.MethodPost, "/api/generate-story", `{"characterName":""}`), rec)
		require.NoError(t, h.GenerateStory(c))
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "character name is required")
	})

	t.Run("Unknown Character", func(t *testing.T) {
		rec := httptest.NewRecorder()
		c := e.NewContext(jsonRequest(http.MethodPost, "/api/generate-story", `{"characterId":"ghost","characterName":"Ghost"}`), rec)
		require.NoError(t, h.GenerateStory(c))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestGenerateIllustration(t *testing.T) {
	e := echo.New()
	h, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/generate-illustration", `{"storyText":""}`), rec)
	require.NoError(t, h.GenerateIllustration(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	c = e.NewContext(jsonRequest(http.MethodPost, "/api/generate-illustration", `{"storyText":"Daisy flies"}`), rec)
	require.NoError(t, h.GenerateIllustration(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp domain.IllustrationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.ImageURL)
}

func TestSaveListAndGetStory(t *testing.T) {
	e := echo.New()
	h, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/stories", `{"character":"Daisy"}`), rec)
	require.NoError(t, h.SaveStory(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	c = e.NewContext(jsonRequest(http.MethodPost, "/api/stories",
		`{"character":"Daisy","characterImageId":"daisy","storyText":"Once upon a time","illustration":"https://img/d.png"}`), rec)
	require.NoError(t, h.SaveStory(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var saved domain.Story
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &saved))
	assert.NotZero(t, saved.ID)
	assert.Equal(t, "https://img/d.png", saved.Illustration)

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/api/stories", nil), rec)
	require.NoError(t, h.ListStories(c))
	var stories []domain.Story
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stories))
	assert.Len(t, stories, 1)

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/api/stories/x", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues("x")
	require.NoError(t, h.GetStory(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/api/stories/999", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues("999")
	require.NoError(t, h.GetStory(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListAttempts(t *testing.T) {
	e := echo.New()
	h, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/generate-story", `{"characterName":"Billy"}`), rec)
	require.NoError(t, h.GenerateStory(c))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/api/attempts?limit=5", nil), rec)
	require.NoError(t, h.ListAttempts(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Attempts []domain.Attempt `json:"attempts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Attempts, 1)
	assert.Equal(t, domain.AttemptKindStory, resp.Attempts[0].Kind)
	assert.Equal(t, domain.RunStatusCompleted, resp.Attempts[0].Status)
}

func TestSavedStoryReadsBackWithRequestFieldNames(t *testing.T) {
	e := echo.New()
	h, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/stories",
		`{"character":"Daisy","characterImageId":"daisy","storyText":"Once upon a time"}`), rec)
	require.NoError(t, h.SaveStory(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var saved struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &saved))

	id := strconv.FormatInt(saved.ID, 10)
	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/api/stories/"+id, nil), rec)
	c.SetParamNames("id")
	c.SetParamValues(id)
	require.NoError(t, h.GetStory(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var story map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &story))
	assert.Equal(t, "daisy", story["characterImageId"])
	assert.Equal(t, "Once upon a time", story["storyText"])
	assert.Contains(t, story, "createdAt")
}
