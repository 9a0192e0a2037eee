package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/82deutschmark/MagicalFarmStories/internal/adapter/assistants"
	"github.com/82deutschmark/MagicalFarmStories/internal/adapter/llm"
	"github.com/82deutschmark/MagicalFarmStories/internal/config"
	"github.com/82deutschmark/MagicalFarmStories/internal/domain"
	"github.com/82deutschmark/MagicalFarmStories/internal/policy"
	"github.com/82deutschmark/MagicalFarmStories/internal/repository"
	"github.com/82deutschmark/MagicalFarmStories/internal/runflow"
	"github.com/82deutschmark/MagicalFarmStories/tests/helpers"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events map[string][]domain.ProgressEvent
}

func (p *recordingPublisher) Publish(channel string, event domain.ProgressEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.events == nil {
		p.events = map[string][]domain.ProgressEvent{}
	}
	p.events[channel] = append(p.events[channel], event)
}

func (p *recordingPublisher) stages(channel string) []domain.ProgressStage {
	p.mu.Lock()
	defer p.mu.Unlock()
	var stages []domain.ProgressStage
	for _, e := range p.events[channel] {
		stages = append(stages, e.Stage)
	}
	return stages
}

// fakeAssistant serves a single-thread Assistants API.
type fakeAssistant struct {
	mu        sync.Mutex
	statuses  []string
	polls     int
	reply     string
	lastError string
	messages  []map[string]interface{}
}

func (f *fakeAssistant) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/threads":
		fmt.Fprint(w, `{"id":"thread_1","created_at":1700000000}`)
	case r.Method == http.MethodPost && r.URL.Path == "/threads/thread_1/messages":
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.messages = append(f.messages, body)
		fmt.Fprint(w, `{"id":"msg_user","thread_id":"thread_1","role":"user","created_at":1700000001,
			"content":[{"type":"text","text":{"value":"prompt"}}]}`)
	case r.Method == http.MethodPost && r.URL.Path == "/threads/thread_1/runs":
		fmt.Fprint(w, `{"id":"run_1","thread_id":"thread_1","assistant_id":"asst_1","status":"queued"}`)
	case r.Method == http.MethodGet && r.URL.Path == "/threads/thread_1/runs/run_1":
		i := f.polls
		if i >= len(f.statuses) {
			i = len(f.statuses) - 1
		}
		f.polls++
		lastError := "null"
		if f.lastError != "" {
			lastError = fmt.Sprintf(`{"code":"server_error","message":%q}`, f.lastError)
		}
		fmt.Fprintf(w, `{"id":"run_1","thread_id":"thread_1","assistant_id":"asst_1","status":%q,"last_error":%s}`, f.statuses[i], lastError)
	case r.Method == http.MethodGet && r.URL.Path == "/threads/thread_1/messages":
		data := []string{`{"id":"msg_user","role":"user","created_at":1700000001,"content":[{"type":"text","text":{"value":"prompt"}}]}`}
		if f.reply != "" {
			data = append([]string{fmt.Sprintf(`{"id":"msg_reply","role":"assistant","created_at":1700000005,
				"content":[{"type":"text","text":{"value":%q}}]}`, f.reply)}, data...)
		}
		fmt.Fprintf(w, `{"data":[%s],"has_more":false}`, strings.Join(data, ","))
	default:
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":{"message":"unknown route"}}`)
	}
}

func testConfig() *config.Config {
	return &config.Config{
		AssistantID:          "asst_1",
		AnalysisAssistantID:  "asst_1",
		PollInterval:         10 * time.Millisecond,
		StoryPollAttempts:    3,
		AnalysisPollAttempts: 3,
		Mode:                 "MOCK",
	}
}

type testEnv struct {
	svc       *Service
	store     repository.Store
	publisher *recordingPublisher
}

func newTestEnv(t *testing.T, assistant *fakeAssistant) *testEnv {
	t.Helper()
	ctx := context.Background()

	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	require.NoError(t, err)

	var runner *runflow.Runner
	if assistant != nil {
		server := httptest.NewServer(assistant)
		t.Cleanup(server.Close)
		noSleep := runflow.SleeperFunc(func(context.Context, time.Duration) error { return nil })
		runner = runflow.NewRunner(assistants.NewClient(server.URL, "test-key", time.Second), noSleep)
	}

	db := helpers.NewTestSQLiteStore(t)
	publisher := &recordingPublisher{}
	svc := New(db, runner, llm.NewMockClient(), testConfig(), policyEngine, publisher)
	return &testEnv{svc: svc, store: db, publisher: publisher}
}

func (env *testEnv) seedCharacter(t *testing.T, id, description string) {
	t.Helper()
	c := &domain.Character{StoryMakerID: id, ImageBase64: "aGVsbG8=", OriginalFileName: id + ".png", Description: description}
	require.NoError(t, env.store.CreateCharacter(context.Background(), c))
}
