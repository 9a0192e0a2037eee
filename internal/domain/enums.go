// Package domain defines the core domain models for the story service.
package domain

import "fmt"

// RunStatus represents the status of an assistant run.
type RunStatus string

const (
	RunStatusQueued     RunStatus = "queued"
	RunStatusInProgress RunStatus = "in_progress"
	RunStatusCompleted  RunStatus = "completed"
	RunStatusFailed     RunStatus = "failed"
	RunStatusCancelled  RunStatus = "cancelled"
)

// ParseRunStatus validates a status string received from the provider.
func ParseRunStatus(s string) (RunStatus, error) {
	switch status := RunStatus(s); status {
	case RunStatusQueued, RunStatusInProgress, RunStatusCompleted, RunStatusFailed, RunStatusCancelled:
		return status, nil
	}
	return "", fmt.Errorf("unknown run status %q", s)
}

// IsTerminal reports whether no further transition can occur.
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunStatusCompleted, RunStatusFailed, RunStatusCancelled:
		return true
	}
	return false
}

// Role is the author of a thread message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ParseRole validates a role string received from the provider.
func ParseRole(s string) (Role, error) {
	switch role := Role(s); role {
	case RoleUser, RoleAssistant:
		return role, nil
	}
	return "", fmt.Errorf("unknown message role %q", s)
}

// ContentKind tags a message content fragment.
type ContentKind string

const (
	ContentKindText      ContentKind = "text"
	ContentKindImageURL  ContentKind = "image_url"
	ContentKindImageFile ContentKind = "image_file"
)

// ParseContentKind validates a content fragment type received from the provider.
func ParseContentKind(s string) (ContentKind, error) {
	switch kind := ContentKind(s); kind {
	case ContentKindText, ContentKindImageURL, ContentKindImageFile:
		return kind, nil
	}
	return "", fmt.Errorf("unknown content type %q", s)
}

// AttemptKind identifies which workflow produced an attempt record.
type AttemptKind string

const (
	AttemptKindAnalysis AttemptKind = "analysis"
	AttemptKindStory    AttemptKind = "story"
)

// ProgressStage names a step of the conversation workflow.
type ProgressStage string

const (
	StageThreadCreated ProgressStage = "thread_created"
	StageMessageAdded  ProgressStage = "message_added"
	StageRunDispatched ProgressStage = "run_dispatched"
	StagePolling       ProgressStage = "polling"
	StageCompleted     ProgressStage = "completed"
	StageFailed        ProgressStage = "failed"
)
