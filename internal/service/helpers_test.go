package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xiaot623/gogo/agentstatus/internal/config"
	"github.com/xiaot623/gogo/agentstatus/internal/domain"
	"github.com/xiaot623/gogo/agentstatus/internal/logging"
	"github.com/xiaot623/gogo/agentstatus/internal/repository"
	"github.com/xiaot623/gogo/agentstatus/internal/tools"
	"github.com/xiaot623/gogo/agentstatus/policy"
)

var testEpoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// steppingClock advances by one millisecond on every read so that records
// stamped from separate reads are distinguishable.
func steppingClock() func() time.Time {
	var mu sync.Mutex
	current := testEpoch
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(time.Millisecond)
		return current
	}
}

func newTestService(t *testing.T, engine *policy.Engine) (*Service, *repository.MemoryStore) {
	t.Helper()
	store := repository.NewMemoryStore()
	registry := tools.NewRegistry()
	require.NoError(t, registry.Register(tools.Definition{Name: "search", FeedbackMessage: "Searching"}))

	cfg := &config.Config{StatusTTL: time.Hour, SweepInterval: time.Minute, WatchInterval: 5 * time.Millisecond}
	svc := New(store, engine, registry, cfg, logging.NoOpLogger{})
	svc.now = steppingClock()
	return svc, store
}

func testAgent(tracking ...domain.RecordType) *domain.Agent {
	return &domain.Agent{
		ID:               "a",
		Label:            "Agent A",
		ProviderName:     "openai",
		ModelName:        "gpt-4o",
		ModelConfig:      map[string]any{"temperature": 0.2},
		DetailedTracking: tracking,
	}
}

func started(agent *domain.Agent, trace domain.Trace, runnerID string, loop int) *domain.AgentStartedEvent {
	return &domain.AgentStartedEvent{Trace: trace, Agent: agent, AgentRunnerID: runnerID, LoopCount: loop}
}

func finished(agent *domain.Agent, trace domain.Trace, runnerID string) *domain.AgentFinishedEvent {
	return &domain.AgentFinishedEvent{Trace: trace, Agent: agent, AgentRunnerID: runnerID}
}

func request(agent *domain.Agent, trace domain.Trace, runnerID string, loop int) *domain.AgentRequestEvent {
	return &domain.AgentRequestEvent{
		Trace:         trace,
		Agent:         agent,
		AgentRunnerID: runnerID,
		LoopCount:     loop,
		ChatInput:     map[string]any{"messages": []any{"hi"}},
		SystemPrompt:  "You are helpful.",
		ChatHistory:   []domain.ChatMessage{{Role: "user", Text: "hi"}},
	}
}

func response(agent *domain.Agent, trace domain.Trace, runnerID string, text *string, calls ...*domain.ToolCall) *domain.AgentResponseEvent {
	return &domain.AgentResponseEvent{
		Trace:         trace,
		Agent:         agent,
		AgentRunnerID: runnerID,
		Response: domain.ProviderOutput{
			Data:  map[string]any{"id": "resp_1"},
			Text:  text,
			Tools: calls,
		},
	}
}

func searchTool() domain.ExecutableTool {
	return domain.ExecutableTool{
		ToolsID:        "call_1",
		FunctionName:   "search",
		Parameters:     []domain.ToolParameter{{Label: "query", Value: "go"}, {Label: "limit", Value: 3}},
		ReadableOutput: "3 results",
	}
}

func toolPre(agent *domain.Agent, trace domain.Trace, runnerID string) *domain.ToolPreExecuteEvent {
	return &domain.ToolPreExecuteEvent{Trace: trace, Agent: agent, RunnerID: runnerID, Tool: searchTool(), ToolID: "call_1", ProgressMessage: "Looking it up"}
}

func toolDone(agent *domain.Agent, trace domain.Trace, runnerID string) *domain.ToolFinishedEvent {
	return &domain.ToolFinishedEvent{Trace: trace, Agent: agent, RunnerID: runnerID, Tool: searchTool(), ToolID: "call_1", ProgressMessage: "Done"}
}

// runFullLoop drives one root agent through a single loop that calls a tool.
func runFullLoop(t *testing.T, svc *Service, agent *domain.Agent, trace domain.Trace) {
	t.Helper()
	ctx := context.Background()
	text := "let me search"
	events := []domain.Event{
		started(agent, trace, "r1a", 0),
		request(agent, trace, "r1a", 0),
		response(agent, trace, "r1a", &text, &domain.ToolCall{ToolID: "call_1", Name: "search", Arguments: `{"query":"go"}`}),
		toolPre(agent, trace, "r1a"),
		toolDone(agent, trace, "r1a"),
		finished(agent, trace, "r1a"),
	}
	for _, ev := range events {
		require.NoError(t, svc.Dispatch(ctx, ev))
	}
}

func recordTypes(update *domain.StatusUpdate) []domain.RecordType {
	out := make([]domain.RecordType, 0, update.Len())
	for _, rec := range update.Items {
		out = append(out, rec.Type())
	}
	return out
}
