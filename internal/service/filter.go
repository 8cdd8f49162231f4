package service

import (
	"context"
	"slices"

	"github.com/xiaot623/gogo/agentstatus/internal/domain"
	"github.com/xiaot623/gogo/agentstatus/policy"
)

// PolicyEvaluator decides per record whether it may be emitted.
type PolicyEvaluator interface {
	AllowRecord(ctx context.Context, input policy.RecordInput) (bool, error)
}

// Filter holds the emission gates. The run gate and the per-agent type gate
// always apply; the policy gate only when an evaluator is set.
type Filter struct {
	policy PolicyEvaluator
}

// NewFilter returns a Filter. A nil evaluator leaves the policy gate open.
func NewFilter(evaluator PolicyEvaluator) *Filter {
	return &Filter{policy: evaluator}
}

// Tracked is the run gate.
func (f *Filter) Tracked(trace domain.Trace) bool {
	return trace.Tracked()
}

// TypeAllowed is the type gate. An agent without a tracking list records
// everything. The coarse agent_request and agent_response entries also
// cover the provider request and response records.
func TypeAllowed(agent *domain.Agent, t domain.RecordType) bool {
	if agent == nil || len(agent.DetailedTracking) == 0 {
		return true
	}
	tracked := agent.DetailedTracking
	if slices.Contains(tracked, t) {
		return true
	}
	switch t {
	case domain.RecordProviderRequest:
		return slices.Contains(tracked, domain.RecordAgentRequest)
	case domain.RecordProviderResponse:
		return slices.Contains(tracked, domain.RecordAgentResponse)
	}
	return false
}

// Allows applies every gate to rec.
func (f *Filter) Allows(ctx context.Context, agent *domain.Agent, trace domain.Trace, rec domain.Record) (bool, error) {
	if !f.Tracked(trace) {
		return false, nil
	}
	if !TypeAllowed(agent, rec.Type()) {
		return false, nil
	}
	if f.policy == nil {
		return true, nil
	}
	env := rec.Header()
	return f.policy.AllowRecord(ctx, policy.RecordInput{
		RunID:          trace.RunID,
		AgentID:        env.AgentID,
		AgentRunnerID:  env.AgentRunnerID,
		CallingAgentID: env.CallingAgentID,
		RecordType:     string(rec.Type()),
	})
}
