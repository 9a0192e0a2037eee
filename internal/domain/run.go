package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// Thread is a provider-held conversation context.
type Thread struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// ContentPart is one typed fragment of a message.
type ContentPart struct {
	Kind     ContentKind `json:"type"`
	Text     string      `json:"text,omitempty"`
	ImageURL string      `json:"image_url,omitempty"`
	FileID   string      `json:"file_id,omitempty"`
}

// TextPart builds a text fragment.
func TextPart(text string) ContentPart {
	return ContentPart{Kind: ContentKindText, Text: text}
}

// ImageURLPart builds an image reference fragment.
func ImageURLPart(url string) ContentPart {
	return ContentPart{Kind: ContentKindImageURL, ImageURL: url}
}

// ThreadMessage is a single message within a thread.
type ThreadMessage struct {
	ID        string        `json:"id"`
	ThreadID  string        `json:"thread_id"`
	RunID     string        `json:"run_id,omitempty"`
	Role      Role          `json:"role"`
	Content   []ContentPart `json:"content"`
	CreatedAt time.Time     `json:"created_at"`
}

// JoinedText concatenates the text fragments of the message in order.
func (m *ThreadMessage) JoinedText() string {
	var parts []string
	for _, part := range m.Content {
		if part.Kind == ContentKindText {
			parts = append(parts, part.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// RunError is the last error reported by the provider for a run.
type RunError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Run is one invocation of an assistant against a thread.
type Run struct {
	ID          string    `json:"id"`
	ThreadID    string    `json:"thread_id"`
	AssistantID string    `json:"assistant_id"`
	Status      RunStatus `json:"status"`
	LastError   *RunError `json:"last_error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Attempt is the local audit record of one workflow execution.
type Attempt struct {
	AttemptID   string          `json:"attempt_id"`
	Kind        AttemptKind     `json:"kind"`
	CharacterID string          `json:"character_id,omitempty"`
	ThreadID    string          `json:"thread_id,omitempty"`
	RunID       string          `json:"run_id,omitempty"`
	Status      RunStatus       `json:"status"`
	Error       json.RawMessage `json:"error,omitempty"`
	StartedAt   time.Time       `json:"started_at"`
	EndedAt     *time.Time      `json:"ended_at,omitempty"`
}

// ProgressEvent is pushed to progress subscribers while a workflow runs.
type ProgressEvent struct {
	Type      string        `json:"type"`
	Ts        int64         `json:"ts"` // Unix milliseconds
	Stage     ProgressStage `json:"stage"`
	AttemptID string        `json:"attempt_id,omitempty"`
	ThreadID  string        `json:"thread_id,omitempty"`
	RunID     string        `json:"run_id,omitempty"`
	Poll      int           `json:"poll,omitempty"`
	Message   string        `json:"message,omitempty"`
}
