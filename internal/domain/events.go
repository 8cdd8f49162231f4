package domain

import (
	"encoding/json"
	"fmt"
)

// Agent is the static definition of an agent as seen by the status
// pipeline.
type Agent struct {
	ID           string         `json:"id"`
	Label        string         `json:"label"`
	ProviderName string         `json:"provider_name,omitempty"`
	ModelName    string         `json:"model_name,omitempty"`
	ModelConfig  map[string]any `json:"model_config,omitempty"`
	// DetailedTracking restricts which record types are produced for this
	// agent. Empty means every type.
	DetailedTracking []RecordType `json:"detailed_tracking,omitempty"`
}

// Trace identifies where an event belongs. An empty RunID means the run is
// untracked; an empty CallerID means the event comes from the root
// invocation.
type Trace struct {
	RunID    string `json:"run_id,omitempty"`
	CallerID string `json:"caller_id,omitempty"`
}

// Tracked reports whether records should be produced for the event at all.
func (t Trace) Tracked() bool { return t.RunID != "" }

// TraceInfo returns the trace so that every event embedding it satisfies
// Event.
func (t Trace) TraceInfo() Trace { return t }

// Event is a lifecycle event delivered by the agent execution loop.
type Event interface {
	Kind() EventKind
	TraceInfo() Trace
}

// ChatMessage is one entry of an agent's chat history.
type ChatMessage struct {
	Role  string     `json:"role"`
	Text  string     `json:"text"`
	Tools []ToolCall `json:"tools,omitempty"`
}

// ToMap returns the plain mapping stored in chat history records.
func (m ChatMessage) ToMap() map[string]any {
	out := map[string]any{
		"role": m.Role,
		"text": m.Text,
	}
	if len(m.Tools) > 0 {
		tools := make([]any, 0, len(m.Tools))
		for _, t := range m.Tools {
			tools = append(tools, map[string]any{
				"tool_id":   t.ToolID,
				"name":      t.Name,
				"arguments": t.Arguments,
			})
		}
		out["tools"] = tools
	}
	return out
}

// ToolCall is a tool invocation requested by the provider.
type ToolCall struct {
	ToolID    string `json:"tool_id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ProviderOutput is the normalized provider answer for one loop.
type ProviderOutput struct {
	Data map[string]any `json:"data"`
	// Text is nil when the provider produced no text at all.
	Text *string `json:"text,omitempty"`
	// Tools may contain nil entries for selections that did not resolve.
	Tools []*ToolCall `json:"tools,omitempty"`
}

// ToolParameter is one declared tool parameter and its current value.
type ToolParameter struct {
	Label string `json:"label"`
	Value any    `json:"value"`
}

// ExecutableTool is a tool about to run or just finished.
type ExecutableTool struct {
	ToolsID        string          `json:"tools_id"`
	FunctionName   string          `json:"function_name"`
	Parameters     []ToolParameter `json:"parameters,omitempty"`
	ReadableOutput string          `json:"readable_output,omitempty"`
}

// AgentStartedEvent is fired at the start of every loop of an agent.
type AgentStartedEvent struct {
	Trace
	Agent         *Agent        `json:"agent"`
	AgentRunnerID string        `json:"agent_runner_id"`
	LoopCount     int           `json:"loop_count"`
	ChatHistory   []ChatMessage `json:"chat_history,omitempty"`
}

func (*AgentStartedEvent) Kind() EventKind { return EventAgentStarted }

// AgentFinishedEvent is fired once an agent invocation returns.
type AgentFinishedEvent struct {
	Trace
	Agent         *Agent        `json:"agent"`
	AgentRunnerID string        `json:"agent_runner_id"`
	LoopCount     int           `json:"loop_count"`
	ChatHistory   []ChatMessage `json:"chat_history,omitempty"`
}

func (*AgentFinishedEvent) Kind() EventKind { return EventAgentFinished }

// AgentRequestEvent is fired right before the provider is called.
type AgentRequestEvent struct {
	Trace
	Agent         *Agent         `json:"agent"`
	AgentRunnerID string         `json:"agent_runner_id"`
	LoopCount     int            `json:"loop_count"`
	ChatInput     map[string]any `json:"chat_input"`
	SystemPrompt  string         `json:"system_prompt"`
	Instructions  string         `json:"instructions,omitempty"`
	ChatHistory   []ChatMessage  `json:"chat_history,omitempty"`
}

func (*AgentRequestEvent) Kind() EventKind { return EventAgentRequest }

// AgentResponseEvent is fired once the provider answered.
type AgentResponseEvent struct {
	Trace
	Agent         *Agent         `json:"agent"`
	AgentRunnerID string         `json:"agent_runner_id"`
	LoopCount     int            `json:"loop_count"`
	Response      ProviderOutput `json:"response"`
}

func (*AgentResponseEvent) Kind() EventKind { return EventAgentResponse }

// ToolPreExecuteEvent is fired right before a tool runs.
type ToolPreExecuteEvent struct {
	Trace
	Agent           *Agent         `json:"agent"`
	RunnerID        string         `json:"runner_id"`
	Tool            ExecutableTool `json:"tool"`
	ToolID          string         `json:"tool_id"`
	ProgressMessage string         `json:"progress_message,omitempty"`
}

func (*ToolPreExecuteEvent) Kind() EventKind { return EventToolPreExecute }

// ToolFinishedEvent is fired after a tool produced its output.
type ToolFinishedEvent struct {
	Trace
	Agent           *Agent         `json:"agent"`
	RunnerID        string         `json:"runner_id"`
	Tool            ExecutableTool `json:"tool"`
	ToolID          string         `json:"tool_id"`
	ProgressMessage string         `json:"progress_message,omitempty"`
}

func (*ToolFinishedEvent) Kind() EventKind { return EventToolFinished }

// DecodeEvent builds the concrete event for kind from its JSON payload.
func DecodeEvent(kind EventKind, payload []byte) (Event, error) {
	var ev Event
	switch kind {
	case EventAgentStarted:
		ev = &AgentStartedEvent{}
	case EventAgentFinished:
		ev = &AgentFinishedEvent{}
	case EventAgentRequest:
		ev = &AgentRequestEvent{}
	case EventAgentResponse:
		ev = &AgentResponseEvent{}
	case EventToolPreExecute:
		ev = &ToolPreExecuteEvent{}
	case EventToolFinished:
		ev = &ToolFinishedEvent{}
	default:
		return nil, fmt.Errorf("unknown event kind %q", kind)
	}
	if err := json.Unmarshal(payload, ev); err != nil {
		return nil, fmt.Errorf("decode %s event: %w", kind, err)
	}
	return ev, nil
}
