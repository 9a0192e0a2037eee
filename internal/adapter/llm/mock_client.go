package llm

import (
	"context"
	"fmt"
	"strings"
)

// MockClient is a deterministic Generator for local development and tests.
type MockClient struct{}

// NewMockClient creates a new mock generator.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// Ensure MockClient implements Generator interface.
var _ Generator = (*MockClient)(nil)

// DescribeImage returns a canned description.
func (m *MockClient) DescribeImage(ctx context.Context, prompt, imageURL string) (string, error) {
	if imageURL == "" {
		return "", fmt.Errorf("image is required")
	}
	return "[MOCK] A cheerful farm friend with bright eyes and a curious, kind personality.", nil
}

// WriteStory echoes the start of the prompt inside a canned story.
func (m *MockClient) WriteStory(ctx context.Context, prompt string) (string, error) {
	return fmt.Sprintf("[MOCK] Once upon a time on Uncle Mark's magical farm...\n%s\n...and they all lived happily ever after.",
		truncate(firstLine(prompt), 100)), nil
}

// Illustrate returns a placeholder image URL.
func (m *MockClient) Illustrate(ctx context.Context, prompt string) (string, error) {
	return "https://example.com/mock-illustration.png", nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}

// truncate shortens s to at most maxLen runes.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
