package policy

import (
	"context"
	"fmt"
	"os"

	"github.com/open-policy-agent/opa/rego"
)

// Engine is the OPA policy engine deciding which status records are kept.
type Engine struct {
	query rego.PreparedEvalQuery
}

// RecordInput is the document a policy sees for one candidate record.
type RecordInput struct {
	RunID          string  `json:"run_id"`
	AgentID        string  `json:"agent_id"`
	AgentRunnerID  string  `json:"agent_runner_id"`
	CallingAgentID *string `json:"calling_agent_id"`
	RecordType     string  `json:"record_type"`
}

// NewEngine creates a new policy engine with the given policy content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.status_policy.emit"),
		rego.Module("status_policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// NewEngineFromFile loads the policy module at path. An empty path yields
// the default policy.
func NewEngineFromFile(ctx context.Context, path string) (*Engine, error) {
	if path == "" {
		return NewEngine(ctx, DefaultPolicy)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy %s: %w", path, err)
	}
	return NewEngine(ctx, string(content))
}

// AllowRecord reports whether the policy lets the record be emitted. An
// undefined result counts as allowed; anything but a boolean is an error.
func (e *Engine) AllowRecord(ctx context.Context, input RecordInput) (bool, error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return false, fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return true, nil
	}

	allowed, ok := results[0].Expressions[0].Value.(bool)
	if !ok {
		return false, fmt.Errorf("policy returned %T, want bool", results[0].Expressions[0].Value)
	}
	return allowed, nil
}

// DefaultPolicy is the default policy content.
const DefaultPolicy = `
package status_policy

import rego.v1

default emit := true
`
