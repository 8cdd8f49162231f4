package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEvent(t *testing.T) {
	payload := []byte(`{
		"run_id": "r1",
		"caller_id": "",
		"agent": {"id": "a", "label": "Agent A", "detailed_tracking": ["agent_started"]},
		"agent_runner_id": "r1a",
		"loop_count": 0
	}`)

	ev, err := DecodeEvent(EventAgentStarted, payload)
	require.NoError(t, err)

	started, ok := ev.(*AgentStartedEvent)
	require.True(t, ok)
	assert.Equal(t, EventAgentStarted, started.Kind())
	assert.Equal(t, "r1", started.TraceInfo().RunID)
	assert.True(t, started.Tracked())
	assert.Equal(t, "Agent A", started.Agent.Label)
	assert.Equal(t, []RecordType{RecordAgentStarted}, started.Agent.DetailedTracking)
}

func TestDecodeEventToolFinished(t *testing.T) {
	payload := []byte(`{
		"run_id": "r1",
		"agent": {"id": "a", "label": "A"},
		"runner_id": "r1a",
		"tool_id": "call_1",
		"tool": {
			"tools_id": "call_1",
			"function_name": "search",
			"parameters": [{"label": "q", "value": "x"}],
			"readable_output": "3 hits"
		}
	}`)

	ev, err := DecodeEvent(EventToolFinished, payload)
	require.NoError(t, err)
	finished := ev.(*ToolFinishedEvent)
	assert.Equal(t, "search", finished.Tool.FunctionName)
	assert.Equal(t, "3 hits", finished.Tool.ReadableOutput)
	require.Len(t, finished.Tool.Parameters, 1)
	assert.Equal(t, "x", finished.Tool.Parameters[0].Value)
}

func TestDecodeEventUnknownKind(t *testing.T) {
	_, err := DecodeEvent("agent.exploded", []byte(`{}`))
	assert.Error(t, err)

	_, err = DecodeEvent(EventAgentFinished, []byte(`not json`))
	assert.Error(t, err)
}

func TestTraceUntracked(t *testing.T) {
	assert.False(t, Trace{}.Tracked())
	assert.Nil(t, CallerRef(""))
	require.NotNil(t, CallerRef("parent"))
	assert.Equal(t, "parent", *CallerRef("parent"))
}

func TestChatMessageToMap(t *testing.T) {
	m := ChatMessage{Role: "assistant", Text: "calling", Tools: []ToolCall{{ToolID: "t1", Name: "search", Arguments: `{}`}}}.ToMap()
	assert.Equal(t, "assistant", m["role"])
	tools, ok := m["tools"].([]any)
	require.True(t, ok)
	assert.Len(t, tools, 1)

	plain := ChatMessage{Role: "user", Text: "hi"}.ToMap()
	assert.NotContains(t, plain, "tools")
}
