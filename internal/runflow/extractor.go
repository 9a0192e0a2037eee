package runflow

import (
	"context"
	"fmt"

	"github.com/82deutschmark/MagicalFarmStories/internal/domain"
)

// MessageLister returns all messages of a thread.
type MessageLister interface {
	ListMessages(ctx context.Context, threadID string) ([]domain.ThreadMessage, error)
}

// Extractor reads the assistant's answer once a run has completed.
type Extractor struct {
	messages MessageLister
}

// NewExtractor creates an extractor.
func NewExtractor(messages MessageLister) *Extractor {
	return &Extractor{messages: messages}
}

// Extract returns the text of the most recent assistant message of the
// run's thread, with text fragments joined by newlines.
func (e *Extractor) Extract(ctx context.Context, run *domain.Run) (string, error) {
	if run == nil || run.Status != domain.RunStatusCompleted {
		return "", ErrIncompleteRun
	}

	messages, err := e.messages.ListMessages(ctx, run.ThreadID)
	if err != nil {
		return "", fmt.Errorf("failed to list messages: %w", err)
	}

	latest := LatestAssistantMessage(messages)
	if latest == nil {
		return "", fmt.Errorf("thread %s: %w", run.ThreadID, ErrNoAssistantResponse)
	}
	return latest.JoinedText(), nil
}

// LatestAssistantMessage picks the assistant message with the greatest
// creation time. On ties the earlier entry in the list wins, which for
// newest-first listings is the newer message.
func LatestAssistantMessage(messages []domain.ThreadMessage) *domain.ThreadMessage {
	var latest *domain.ThreadMessage
	for i := range messages {
		msg := &messages[i]
		if msg.Role != domain.RoleAssistant {
			continue
		}
		if latest == nil || msg.CreatedAt.After(latest.CreatedAt) {
			latest = msg
		}
	}
	return latest
}
