package runflow

import (
	"context"
	"time"

	"github.com/82deutschmark/MagicalFarmStories/internal/adapter/assistants"
	"github.com/82deutschmark/MagicalFarmStories/internal/domain"
)

type fakeBackend struct {
	statuses  []domain.RunStatus
	lastError *domain.RunError
	getRunErr error
	polls     int

	messages []domain.ThreadMessage
	listErr  error

	createThreadErr error
	submitted       []assistants.MessageInput
	runInputs       []assistants.RunInput
}

func (f *fakeBackend) CreateThread(ctx context.Context) (*domain.Thread, error) {
	if f.createThreadErr != nil {
		return nil, f.createThreadErr
	}
	return &domain.Thread{ID: "thread_1"}, nil
}

func (f *fakeBackend) CreateMessage(ctx context.Context, threadID string, in assistants.MessageInput) (*domain.ThreadMessage, error) {
	f.submitted = append(f.submitted, in)
	return &domain.ThreadMessage{ID: "msg_user", ThreadID: threadID, Role: in.Role, Content: in.Content}, nil
}

func (f *fakeBackend) CreateRun(ctx context.Context, threadID string, in assistants.RunInput) (*domain.Run, error) {
	f.runInputs = append(f.runInputs, in)
	return &domain.Run{ID: "run_1", ThreadID: threadID, AssistantID: in.AssistantID, Status: domain.RunStatusQueued}, nil
}

func (f *fakeBackend) GetRun(ctx context.Context, threadID, runID string) (*domain.Run, error) {
	f.polls++
	if f.getRunErr != nil {
		return nil, f.getRunErr
	}
	idx := f.polls - 1
	if idx >= len(f.statuses) {
		idx = len(f.statuses) - 1
	}
	status := f.statuses[idx]
	run := &domain.Run{ID: runID, ThreadID: threadID, Status: status}
	if status == domain.RunStatusFailed || status == domain.RunStatusCancelled {
		run.LastError = f.lastError
	}
	return run, nil
}

func (f *fakeBackend) ListMessages(ctx context.Context, threadID string) ([]domain.ThreadMessage, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.messages, nil
}

type recordingSleeper struct {
	sleeps []time.Duration
}

func (s *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.sleeps = append(s.sleeps, d)
	return ctx.Err()
}

func assistantMessage(id string, createdAt int64, texts ...string) domain.ThreadMessage {
	msg := domain.ThreadMessage{ID: id, ThreadID: "thread_1", Role: domain.RoleAssistant, CreatedAt: time.Unix(createdAt, 0)}
	for _, text := range texts {
		msg.Content = append(msg.Content, domain.TextPart(text))
	}
	return msg
}
