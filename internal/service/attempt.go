package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/82deutschmark/MagicalFarmStories/internal/domain"
	"github.com/82deutschmark/MagicalFarmStories/internal/runflow"
)

// attempt tracks one workflow execution: it keeps the audit row current and
// forwards stage changes to progress subscribers. Failures here are logged
// and never fail the workflow itself.
type attempt struct {
	svc     *Service
	record  *domain.Attempt
	channel string
}

func (s *Service) startAttempt(ctx context.Context, kind domain.AttemptKind, characterID, channel string) *attempt {
	a := &attempt{
		svc:     s,
		channel: channel,
		record: &domain.Attempt{
			AttemptID:   "att_" + uuid.New().String(),
			Kind:        kind,
			CharacterID: characterID,
			Status:      domain.RunStatusQueued,
			StartedAt:   time.Now().UTC(),
		},
	}
	if err := s.store.CreateAttempt(ctx, a.record); err != nil {
		log.Error("failed to record attempt", "attempt_id", a.record.AttemptID, "err", err)
	}
	return a
}

// observe is a runflow.Observer.
func (a *attempt) observe(p runflow.Progress) {
	if p.ThreadID != "" {
		a.record.ThreadID = p.ThreadID
	}
	if p.RunID != "" {
		a.record.RunID = p.RunID
	}
	if p.Status != "" {
		a.record.Status = p.Status
	}

	event := domain.ProgressEvent{
		Stage:     p.Stage,
		AttemptID: a.record.AttemptID,
		ThreadID:  p.ThreadID,
		RunID:     p.RunID,
		Poll:      p.Poll,
	}
	if p.Err != nil {
		event.Message = p.Err.Error()
	}
	log.Debug("workflow progress", "attempt_id", a.record.AttemptID, "stage", p.Stage, "poll", p.Poll, "status", p.Status)
	a.publish(event)
}

func (a *attempt) publish(event domain.ProgressEvent) {
	if a.svc.progress == nil || a.channel == "" {
		return
	}
	a.svc.progress.Publish(a.channel, event)
}

// finish stores the outcome. It uses a detached context so the audit row is
// written even when the request was cancelled.
func (a *attempt) finish(err error) {
	now := time.Now().UTC()
	a.record.EndedAt = &now

	if err == nil {
		a.record.Status = domain.RunStatusCompleted
	} else {
		var runFailed *runflow.RunFailedError
		if errors.As(err, &runFailed) {
			a.record.Status = runFailed.Status
		} else {
			a.record.Status = domain.RunStatusFailed
		}
		a.record.Error, _ = json.Marshal(domain.ErrorResponse{Error: err.Error(), Code: ErrorCode(err)})
		log.Warn("workflow failed", "attempt_id", a.record.AttemptID, "kind", a.record.Kind,
			"thread_id", a.record.ThreadID, "run_id", a.record.RunID, "err", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if updateErr := a.svc.store.UpdateAttempt(ctx, a.record); updateErr != nil {
		log.Error("failed to update attempt", "attempt_id", a.record.AttemptID, "err", updateErr)
	}
}

// ask runs a question through the assistant when one is configured and
// through fallback otherwise.
func (a *attempt) ask(ctx context.Context, req runflow.Request, fallback func(context.Context) (string, error)) (string, error) {
	if req.AssistantID == "" {
		a.publish(domain.ProgressEvent{Stage: domain.StageRunDispatched, AttemptID: a.record.AttemptID})
		text, err := fallback(ctx)
		if err != nil {
			a.publish(domain.ProgressEvent{Stage: domain.StageFailed, AttemptID: a.record.AttemptID, Message: err.Error()})
			a.finish(err)
			return "", err
		}
		a.publish(domain.ProgressEvent{Stage: domain.StageCompleted, AttemptID: a.record.AttemptID})
		a.finish(nil)
		return text, nil
	}

	result, err := a.svc.runner.Ask(ctx, req, a.observe)
	a.finish(err)
	if err != nil {
		return "", err
	}
	return result.Text, nil
}
