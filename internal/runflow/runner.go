// Package runflow drives the thread → message → run → poll → extract
// workflow against an assistants backend.
package runflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/82deutschmark/MagicalFarmStories/internal/adapter/assistants"
	"github.com/82deutschmark/MagicalFarmStories/internal/domain"
)

// Backend is the thread/message/run API the runner talks to.
type Backend interface {
	CreateThread(ctx context.Context) (*domain.Thread, error)
	CreateMessage(ctx context.Context, threadID string, in assistants.MessageInput) (*domain.ThreadMessage, error)
	CreateRun(ctx context.Context, threadID string, in assistants.RunInput) (*domain.Run, error)
	RunGetter
	MessageLister
}

var _ Backend = (*assistants.Client)(nil)

// Request describes one question put to an assistant.
type Request struct {
	AssistantID  string
	Instructions string
	Text         string
	ImageURL     string
	MaxAttempts  int
	Interval     time.Duration
}

// Result is the outcome of Ask. ThreadID and RunID are filled in as far as
// the workflow got, even when Ask fails.
type Result struct {
	ThreadID string
	RunID    string
	Text     string
}

// Progress reports a workflow stage to an Observer.
type Progress struct {
	Stage    domain.ProgressStage
	ThreadID string
	RunID    string
	Poll     int
	Status   domain.RunStatus
	Err      error
}

// Observer receives progress notifications. It must not block.
type Observer func(Progress)

// Runner executes the five workflow stages sequentially.
type Runner struct {
	backend   Backend
	poller    *Poller
	extractor *Extractor
}

// NewRunner creates a runner. A nil sleeper uses RealSleeper.
func NewRunner(backend Backend, sleeper Sleeper) *Runner {
	return &Runner{
		backend:   backend,
		poller:    NewPoller(backend, sleeper),
		extractor: NewExtractor(backend),
	}
}

// Ask opens a fresh thread, submits the request as a user message, runs the
// assistant, waits for it and returns the assistant's reply.
func (r *Runner) Ask(ctx context.Context, req Request, observe Observer) (*Result, error) {
	if observe == nil {
		observe = func(Progress) {}
	}
	result := &Result{}

	fail := func(err error) (*Result, error) {
		observe(Progress{Stage: domain.StageFailed, ThreadID: result.ThreadID, RunID: result.RunID, Err: err})
		return result, err
	}

	if req.AssistantID == "" {
		return fail(fmt.Errorf("assistant id is required"))
	}
	content := []domain.ContentPart{}
	if text := strings.TrimSpace(req.Text); text != "" {
		content = append(content, domain.TextPart(text))
	}
	if req.ImageURL != "" {
		content = append(content, domain.ImageURLPart(req.ImageURL))
	}
	if len(content) == 0 {
		return fail(fmt.Errorf("request needs text or an image"))
	}

	thread, err := r.backend.CreateThread(ctx)
	if err != nil {
		return fail(fmt.Errorf("failed to create thread: %w", err))
	}
	result.ThreadID = thread.ID
	observe(Progress{Stage: domain.StageThreadCreated, ThreadID: thread.ID})

	if _, err := r.backend.CreateMessage(ctx, thread.ID, assistants.MessageInput{Role: domain.RoleUser, Content: content}); err != nil {
		return fail(fmt.Errorf("failed to add message: %w", err))
	}
	observe(Progress{Stage: domain.StageMessageAdded, ThreadID: thread.ID})

	run, err := r.backend.CreateRun(ctx, thread.ID, assistants.RunInput{AssistantID: req.AssistantID, Instructions: req.Instructions})
	if err != nil {
		return fail(fmt.Errorf("failed to dispatch run: %w", err))
	}
	result.RunID = run.ID
	observe(Progress{Stage: domain.StageRunDispatched, ThreadID: thread.ID, RunID: run.ID, Status: run.Status})

	run, err = r.poller.AwaitCompletion(ctx, thread.ID, run.ID, PollOptions{
		MaxAttempts: req.MaxAttempts,
		Interval:    req.Interval,
		OnPoll: func(poll int, polled *domain.Run) {
			observe(Progress{Stage: domain.StagePolling, ThreadID: thread.ID, RunID: polled.ID, Poll: poll, Status: polled.Status})
		},
	})
	if err != nil {
		return fail(err)
	}
	if run.ThreadID == "" {
		run.ThreadID = thread.ID
	}

	text, err := r.extractor.Extract(ctx, run)
	if err != nil {
		return fail(err)
	}
	result.Text = text
	observe(Progress{Stage: domain.StageCompleted, ThreadID: thread.ID, RunID: run.ID, Status: run.Status})
	return result, nil
}
