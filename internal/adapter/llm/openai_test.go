package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/82deutschmark/MagicalFarmStories/internal/adapter/assistants"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *OpenAIClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewOpenAIClient(Options{
		APIKey:      "sk-test",
		BaseURL:     server.URL,
		VisionModel: "gpt-4o",
		StoryModel:  "gpt-4-turbo",
		ImageModel:  "dall-e-3",
		Timeout:     time.Second,
	})
}

func TestOpenAIClientDescribeImage(t *testing.T) {
	var got map[string]interface{}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"c1","object":"chat.completion","created":1,"model":"gpt-4o",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"A fluffy sheep."}}]}`)
	})

	text, err := client.DescribeImage(context.Background(), "Describe", "data:image/png;base64,AAAA")
	require.NoError(t, err)
	assert.Equal(t, "A fluffy sheep.", text)

	assert.Equal(t, "gpt-4o", got["model"])
	assert.EqualValues(t, describeMaxTokens, got["max_tokens"])
	messages := got["messages"].([]interface{})
	content := messages[0].(map[string]interface{})["content"].([]interface{})
	require.Len(t, content, 2)
	assert.Equal(t, "image_url", content[1].(map[string]interface{})["type"])
}

func TestOpenAIClientWriteStory(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-4-turbo", body["model"])
		assert.InDelta(t, storyTemperature, body["temperature"], 0.001)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"c1","object":"chat.completion","created":1,"model":"gpt-4-turbo",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"Once upon a time"}}]}`)
	})

	story, err := client.WriteStory(context.Background(), "Write a story")
	require.NoError(t, err)
	assert.Equal(t, "Once upon a time", story)
}

func TestOpenAIClientIllustrate(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/images/generations", r.URL.Path)
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "dall-e-3", body["model"])
		assert.Equal(t, "1024x1024", body["size"])
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"created":1,"data":[{"url":"https://images.example/farm.png"}]}`)
	})

	url, err := client.Illustrate(context.Background(), "a farm")
	require.NoError(t, err)
	assert.Equal(t, "https://images.example/farm.png", url)
}

func TestOpenAIClientMapsAPIErrors(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"message":"bad prompt","type":"invalid_request_error"}}`)
	})

	_, err := client.WriteStory(context.Background(), "x")
	var reqErr *assistants.RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, http.StatusBadRequest, reqErr.StatusCode)
	assert.Equal(t, "write story", reqErr.Op)
}

func TestMockClient(t *testing.T) {
	m := NewMockClient()
	ctx := context.Background()

	desc, err := m.DescribeImage(ctx, "describe", "data:image/png;base64,AAAA")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(desc, "[MOCK]"))

	_, err = m.DescribeImage(ctx, "describe", "")
	assert.Error(t, err)

	story, err := m.WriteStory(ctx, "Create a story about Daisy\nmore details")
	require.NoError(t, err)
	assert.Contains(t, story, "Create a story about Daisy")
	assert.NotContains(t, story, "more details")

	url, err := m.Illustrate(ctx, "farm")
	require.NoError(t, err)
	assert.NotEmpty(t, url)
}

func TestNewGeneratorMock(t *testing.T) {
	_, ok := NewGenerator(Options{Mock: true}).(*MockClient)
	assert.True(t, ok)
	_, ok = NewGenerator(Options{APIKey: "sk"}).(*OpenAIClient)
	assert.True(t, ok)
}
