// Package assistants provides a client for an Assistants-style thread/run API.
package assistants

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/82deutschmark/MagicalFarmStories/internal/domain"
)

// ErrMalformedResponse is returned when a provider response does not match the expected shape.
var ErrMalformedResponse = errors.New("malformed provider response")

// RequestError is returned for any non-success provider response.
type RequestError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s failed [%d]: %s", e.Op, e.StatusCode, e.Body)
}

// Client is the thread/message/run API client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new assistants client.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// MessageInput is the payload for appending a message to a thread.
type MessageInput struct {
	Role    domain.Role
	Content []domain.ContentPart
}

// RunInput is the payload for dispatching a run.
type RunInput struct {
	AssistantID  string
	Instructions string
}

// wire shapes

type threadObject struct {
	ID        string `json:"id"`
	CreatedAt int64  `json:"created_at"`
}

type textValue struct {
	Value string `json:"value"`
}

type imageURLValue struct {
	URL string `json:"url"`
}

type imageFileValue struct {
	FileID string `json:"file_id"`
}

type contentObject struct {
	Type      string          `json:"type"`
	Text      json.RawMessage `json:"text,omitempty"`
	ImageURL  *imageURLValue  `json:"image_url,omitempty"`
	ImageFile *imageFileValue `json:"image_file,omitempty"`
}

type messageObject struct {
	ID        string          `json:"id"`
	ThreadID  string          `json:"thread_id"`
	RunID     *string         `json:"run_id"`
	Role      string          `json:"role"`
	Content   []contentObject `json:"content"`
	CreatedAt int64           `json:"created_at"`
}

type runObject struct {
	ID          string           `json:"id"`
	ThreadID    string           `json:"thread_id"`
	AssistantID string           `json:"assistant_id"`
	Status      string           `json:"status"`
	LastError   *domain.RunError `json:"last_error"`
	CreatedAt   int64            `json:"created_at"`
}

type messageList struct {
	Data    []messageObject `json:"data"`
	LastID  string          `json:"last_id"`
	HasMore bool            `json:"has_more"`
}

type createMessageBody struct {
	Role    string        `json:"role"`
	Content []contentBody `json:"content"`
}

type contentBody struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ImageURL  *imageURLValue  `json:"image_url,omitempty"`
	ImageFile *imageFileValue `json:"image_file,omitempty"`
}

type createRunBody struct {
	AssistantID  string `json:"assistant_id"`
	Instructions string `json:"instructions,omitempty"`
}

// CreateThread starts a new conversation thread.
func (c *Client) CreateThread(ctx context.Context) (*domain.Thread, error) {
	var obj threadObject
	if err := c.do(ctx, "create thread", http.MethodPost, "/threads", struct{}{}, &obj); err != nil {
		return nil, err
	}
	if obj.ID == "" {
		return nil, fmt.Errorf("%w: thread without id", ErrMalformedResponse)
	}
	return &domain.Thread{ID: obj.ID, CreatedAt: unixTime(obj.CreatedAt)}, nil
}

// CreateMessage appends a message to a thread.
func (c *Client) CreateMessage(ctx context.Context, threadID string, in MessageInput) (*domain.ThreadMessage, error) {
	if len(in.Content) == 0 {
		return nil, fmt.Errorf("message content is required")
	}

	body := createMessageBody{Role: string(in.Role)}
	for _, part := range in.Content {
		switch part.Kind {
		case domain.ContentKindText:
			body.Content = append(body.Content, contentBody{Type: string(part.Kind), Text: part.Text})
		case domain.ContentKindImageURL:
			body.Content = append(body.Content, contentBody{Type: string(part.Kind), ImageURL: &imageURLValue{URL: part.ImageURL}})
		case domain.ContentKindImageFile:
			body.Content = append(body.Content, contentBody{Type: string(part.Kind), ImageFile: &imageFileValue{FileID: part.FileID}})
		default:
			return nil, fmt.Errorf("unsupported content type %q", part.Kind)
		}
	}

	var obj messageObject
	if err := c.do(ctx, "create message", http.MethodPost, threadPath(threadID, "messages"), body, &obj); err != nil {
		return nil, err
	}
	return toMessage(obj)
}

// CreateRun dispatches a run of the assistant against the thread.
func (c *Client) CreateRun(ctx context.Context, threadID string, in RunInput) (*domain.Run, error) {
	if in.AssistantID == "" {
		return nil, fmt.Errorf("assistant id is required")
	}

	var obj runObject
	body := createRunBody{AssistantID: in.AssistantID, Instructions: in.Instructions}
	if err := c.do(ctx, "create run", http.MethodPost, threadPath(threadID, "runs"), body, &obj); err != nil {
		return nil, err
	}
	return toRun(obj)
}

// GetRun fetches the current state of a run.
func (c *Client) GetRun(ctx context.Context, threadID, runID string) (*domain.Run, error) {
	var obj runObject
	if err := c.do(ctx, "get run", http.MethodGet, threadPath(threadID, "runs", runID), nil, &obj); err != nil {
		return nil, err
	}
	return toRun(obj)
}

// ListMessages returns every message of the thread, newest first.
func (c *Client) ListMessages(ctx context.Context, threadID string) ([]domain.ThreadMessage, error) {
	var messages []domain.ThreadMessage
	after := ""
	for {
		query := url.Values{}
		query.Set("order", "desc")
		query.Set("limit", strconv.Itoa(100))
		if after != "" {
			query.Set("after", after)
		}

		var page messageList
		if err := c.do(ctx, "list messages", http.MethodGet, threadPath(threadID, "messages")+"?"+query.Encode(), nil, &page); err != nil {
			return nil, err
		}
		for _, obj := range page.Data {
			msg, err := toMessage(obj)
			if err != nil {
				return nil, err
			}
			messages = append(messages, *msg)
		}

		if !page.HasMore || page.LastID == "" || page.LastID == after {
			return messages, nil
		}
		after = page.LastID
	}
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out interface{}) error {
	var reader io.Reader
	if in != nil {
		body, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal %s request: %w", op, err)
		}
		reader = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", op, err)
	}

	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send %s request: %w", op, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &RequestError{Op: op, StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedResponse, op, err)
	}
	return nil
}

// setHeaders sets common request headers.
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("OpenAI-Beta", "assistants=v2")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

func threadPath(threadID string, segments ...string) string {
	path := "/threads/" + url.PathEscape(threadID)
	for _, s := range segments {
		path += "/" + url.PathEscape(s)
	}
	return path
}

func toRun(obj runObject) (*domain.Run, error) {
	if obj.ID == "" {
		return nil, fmt.Errorf("%w: run without id", ErrMalformedResponse)
	}
	status, err := domain.ParseRunStatus(obj.Status)
	if err != nil {
		return nil, fmt.Errorf("%w: run %s: %v", ErrMalformedResponse, obj.ID, err)
	}
	return &domain.Run{
		ID:          obj.ID,
		ThreadID:    obj.ThreadID,
		AssistantID: obj.AssistantID,
		Status:      status,
		LastError:   obj.LastError,
		CreatedAt:   unixTime(obj.CreatedAt),
	}, nil
}

func toMessage(obj messageObject) (*domain.ThreadMessage, error) {
	if obj.ID == "" {
		return nil, fmt.Errorf("%w: message without id", ErrMalformedResponse)
	}
	role, err := domain.ParseRole(obj.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: message %s: %v", ErrMalformedResponse, obj.ID, err)
	}

	msg := &domain.ThreadMessage{
		ID:        obj.ID,
		ThreadID:  obj.ThreadID,
		Role:      role,
		CreatedAt: unixTime(obj.CreatedAt),
	}
	if obj.RunID != nil {
		msg.RunID = *obj.RunID
	}

	for i, c := range obj.Content {
		part, err := toContentPart(c)
		if err != nil {
			return nil, fmt.Errorf("%w: message %s content %d: %v", ErrMalformedResponse, obj.ID, i, err)
		}
		msg.Content = append(msg.Content, part)
	}
	return msg, nil
}

func toContentPart(c contentObject) (domain.ContentPart, error) {
	kind, err := domain.ParseContentKind(c.Type)
	if err != nil {
		return domain.ContentPart{}, err
	}

	switch kind {
	case domain.ContentKindText:
		if len(c.Text) == 0 || string(c.Text) == "null" {
			return domain.ContentPart{}, fmt.Errorf("text fragment without value")
		}
		// Responses carry {"value": ...}; some proxies echo the request's plain string.
		var tv textValue
		if err := json.Unmarshal(c.Text, &tv); err == nil {
			return domain.TextPart(tv.Value), nil
		}
		var s string
		if err := json.Unmarshal(c.Text, &s); err == nil {
			return domain.TextPart(s), nil
		}
		return domain.ContentPart{}, fmt.Errorf("text fragment without value")
	case domain.ContentKindImageURL:
		if c.ImageURL == nil {
			return domain.ContentPart{}, fmt.Errorf("image_url fragment without url")
		}
		return domain.ImageURLPart(c.ImageURL.URL), nil
	default:
		if c.ImageFile == nil {
			return domain.ContentPart{}, fmt.Errorf("image_file fragment without file_id")
		}
		return domain.ContentPart{Kind: kind, FileID: c.ImageFile.FileID}, nil
	}
}

func unixTime(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}
