package runflow

import (
	"context"
	"fmt"
	"time"

	"github.com/82deutschmark/MagicalFarmStories/internal/domain"
)

// RunGetter fetches the current state of a run.
type RunGetter interface {
	GetRun(ctx context.Context, threadID, runID string) (*domain.Run, error)
}

// PollOptions bounds a poll loop.
type PollOptions struct {
	MaxAttempts int
	Interval    time.Duration

	// OnPoll, if set, is called after every successful status fetch.
	OnPoll func(poll int, run *domain.Run)
}

func (o PollOptions) validate() error {
	if o.MaxAttempts <= 0 {
		return fmt.Errorf("max attempts must be positive, got %d", o.MaxAttempts)
	}
	if o.Interval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", o.Interval)
	}
	return nil
}

// Poller drives a run from submission to a terminal status.
type Poller struct {
	runs    RunGetter
	sleeper Sleeper
}

// NewPoller creates a poller. A nil sleeper uses RealSleeper.
func NewPoller(runs RunGetter, sleeper Sleeper) *Poller {
	if sleeper == nil {
		sleeper = RealSleeper
	}
	return &Poller{runs: runs, sleeper: sleeper}
}

// AwaitCompletion polls the run until it completes, fails, or the attempt
// budget is spent. Exactly one status request is issued per attempt and the
// interval is constant. Request errors are returned immediately.
func (p *Poller) AwaitCompletion(ctx context.Context, threadID, runID string, opts PollOptions) (*domain.Run, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	var last domain.RunStatus
	for poll := 1; poll <= opts.MaxAttempts; poll++ {
		run, err := p.runs.GetRun(ctx, threadID, runID)
		if err != nil {
			return nil, fmt.Errorf("poll %d of run %s: %w", poll, runID, err)
		}
		if opts.OnPoll != nil {
			opts.OnPoll(poll, run)
		}

		switch run.Status {
		case domain.RunStatusCompleted:
			return run, nil
		case domain.RunStatusFailed, domain.RunStatusCancelled:
			return run, &RunFailedError{RunID: runID, Status: run.Status, LastError: run.LastError}
		}
		last = run.Status

		if poll == opts.MaxAttempts {
			break
		}
		if err := p.sleeper.Sleep(ctx, opts.Interval); err != nil {
			return nil, fmt.Errorf("waiting for run %s: %w", runID, err)
		}
	}

	return nil, &RunTimeoutError{RunID: runID, Attempts: opts.MaxAttempts, LastStatus: last}
}
