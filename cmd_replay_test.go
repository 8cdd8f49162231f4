package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/xiaot623/gogo/agentstatus/internal/config"
	"github.com/xiaot623/gogo/agentstatus/internal/domain"
	"github.com/xiaot623/gogo/agentstatus/internal/repository"
)

const replayLog = `
{"kind": "agent.started", "payload": {"run_id": "r1", "agent": {"id": "a", "label": "A"}, "agent_runner_id": "r1a", "loop_count": 0}}
{"kind": "tool.pre_execute", "payload": {"run_id": "r1", "agent": {"id": "a", "label": "A"}, "runner_id": "r1a", "tool_id": "t1", "tool": {"tools_id": "t1", "function_name": "search", "parameters": [{"label": "q", "value": "go"}]}}}

{"kind": "tool.finished", "payload": {"run_id": "r1", "agent": {"id": "a", "label": "A"}, "runner_id": "r1a", "tool_id": "t1", "tool": {"tools_id": "t1", "function_name": "search", "readable_output": "3 hits"}}}
{"kind": "agent.finished", "payload": {"run_id": "r1", "agent": {"id": "a", "label": "A"}, "agent_runner_id": "r1a", "loop_count": 1}}
`

func TestReadEvents(t *testing.T) {
	events, err := readEvents(strings.NewReader(replayLog))
	require.NoError(t, err)
	require.Len(t, events, 4)
	assert.Equal(t, domain.EventAgentStarted, events[0].Kind)
	assert.Equal(t, "r1", events[0].RunID)
	assert.Equal(t, 5, events[2].Line)
}

func TestReadEventsRejectsMalformedLines(t *testing.T) {
	_, err := readEvents(strings.NewReader(`{"kind": "agent.started"`))
	assert.ErrorContains(t, err, "line 1")

	_, err = readEvents(strings.NewReader(`{"kind": 3, "payload": {}}`))
	assert.ErrorContains(t, err, "line 1")
}

func TestReplayLocal(t *testing.T) {
	events, err := readEvents(strings.NewReader(replayLog))
	require.NoError(t, err)

	replayArtifacts = true
	t.Cleanup(func() { replayArtifacts = false })

	var out bytes.Buffer
	require.NoError(t, replayLocal(context.Background(), &out, events))

	dec := json.NewDecoder(&out)
	var trace, artifacts json.RawMessage
	require.NoError(t, dec.Decode(&trace))
	require.NoError(t, dec.Decode(&artifacts))
	assert.False(t, dec.More())

	assert.Equal(t, "r1", gjson.GetBytes(trace, "run_id").String())
	types := gjson.GetBytes(trace, "status.items.#.type").Array()
	require.Len(t, types, 5)
	assert.Equal(t, "agent_started", types[0].String())
	assert.Equal(t, "agent_iteration", types[1].String())
	assert.Equal(t, "agent_finished", types[4].String())
	assert.Equal(t, "3 hits", gjson.GetBytes(artifacts, `artifacts.t1\:1`).String())
}

func TestReplayLocalUnknownKind(t *testing.T) {
	err := replayLocal(context.Background(), &bytes.Buffer{}, []recordedEvent{{Line: 7, Kind: "agent.exploded", Payload: []byte(`{}`)}})
	assert.ErrorContains(t, err, "line 7")
}

func TestOpenStore(t *testing.T) {
	cfg := &config.Config{StoreBackend: config.BackendMemory}
	store, closeFn, err := openStore(cfg)
	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, &repository.MemoryStore{}, store)

	cfg.SessionScoped = true
	store, closeFn, err = openStore(cfg)
	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, &repository.SessionStore{}, store)

	_, _, err = openStore(&config.Config{StoreBackend: "postgres"})
	assert.Error(t, err)
}
