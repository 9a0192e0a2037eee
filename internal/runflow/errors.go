package runflow

import (
	"errors"
	"fmt"

	"github.com/82deutschmark/MagicalFarmStories/internal/domain"
)

var (
	// ErrNoAssistantResponse means a completed run left no assistant-authored message.
	ErrNoAssistantResponse = errors.New("no assistant response")

	// ErrIncompleteRun means messages were requested before the run completed.
	ErrIncompleteRun = errors.New("run has not completed")
)

// RunFailedError is returned when a run ends as failed or cancelled.
type RunFailedError struct {
	RunID     string
	Status    domain.RunStatus
	LastError *domain.RunError
}

func (e *RunFailedError) Error() string {
	if e.LastError != nil && e.LastError.Message != "" {
		return fmt.Sprintf("run %s %s: %s (%s)", e.RunID, e.Status, e.LastError.Message, e.LastError.Code)
	}
	return fmt.Sprintf("run %s %s", e.RunID, e.Status)
}

// RunTimeoutError is returned when the attempt budget runs out before the run is terminal.
type RunTimeoutError struct {
	RunID      string
	Attempts   int
	LastStatus domain.RunStatus
}

func (e *RunTimeoutError) Error() string {
	return fmt.Sprintf("run %s still %s after %d polls", e.RunID, e.LastStatus, e.Attempts)
}
