package service

import (
	"context"
	"fmt"

	"github.com/xiaot623/gogo/agentstatus/internal/domain"
)

// Dispatch routes ev to its handler.
func (s *Service) Dispatch(ctx context.Context, ev domain.Event) error {
	switch e := ev.(type) {
	case *domain.AgentStartedEvent:
		return s.OnAgentStarted(ctx, e)
	case *domain.AgentFinishedEvent:
		return s.OnAgentFinished(ctx, e)
	case *domain.AgentRequestEvent:
		return s.OnAgentRequest(ctx, e)
	case *domain.AgentResponseEvent:
		return s.OnAgentResponse(ctx, e)
	case *domain.ToolPreExecuteEvent:
		return s.OnToolPreExecute(ctx, e)
	case *domain.ToolFinishedEvent:
		return s.OnToolFinished(ctx, e)
	case nil:
		return fmt.Errorf("nil event")
	default:
		return fmt.Errorf("unsupported event %T", ev)
	}
}

// OnAgentStarted initializes the run for the root invocation and records
// the start and iteration of a loop.
func (s *Service) OnAgentStarted(ctx context.Context, ev *domain.AgentStartedEvent) error {
	if !s.filter.Tracked(ev.Trace) {
		return nil
	}
	if ev.LoopCount == 0 {
		// The run is initialized even when agent_started itself is not tracked,
		// otherwise every later append would fail.
		if ev.CallerID == "" {
			if err := s.store.Start(ctx, ev.RunID); err != nil {
				s.logger.Error("failed to start status update", "run_id", ev.RunID, "error", err)
				return fmt.Errorf("start run %s: %w", ev.RunID, err)
			}
		}
		rec := domain.AgentStarted{
			Envelope: s.envelope(s.microNow(), ev.Agent, ev.AgentRunnerID, ev.Trace),
		}
		if err := s.emit(ctx, ev.Agent, ev.Trace, rec); err != nil {
			return err
		}
	}
	return s.emit(ctx, ev.Agent, ev.Trace, domain.AgentIteration{
		Envelope:  s.envelope(s.microNow(), ev.Agent, ev.AgentRunnerID, ev.Trace),
		LoopCount: ev.LoopCount,
	})
}

// OnAgentFinished records the end of an agent invocation.
func (s *Service) OnAgentFinished(ctx context.Context, ev *domain.AgentFinishedEvent) error {
	if !s.filter.Tracked(ev.Trace) {
		return nil
	}
	return s.emit(ctx, ev.Agent, ev.Trace, domain.AgentFinished{
		Envelope: s.envelope(s.microNow(), ev.Agent, ev.AgentRunnerID, ev.Trace),
	})
}

// OnAgentRequest records the chat history, system prompt and provider
// request of one loop. All three share a single timestamp.
func (s *Service) OnAgentRequest(ctx context.Context, ev *domain.AgentRequestEvent) error {
	if !s.filter.Tracked(ev.Trace) {
		return nil
	}
	env := s.envelope(s.microNow(), ev.Agent, ev.AgentRunnerID, ev.Trace)

	history := make([]map[string]any, 0, len(ev.ChatHistory))
	for _, msg := range ev.ChatHistory {
		history = append(history, msg.ToMap())
	}

	var provider, model string
	var modelConfig map[string]any
	if ev.Agent != nil {
		provider, model, modelConfig = ev.Agent.ProviderName, ev.Agent.ModelName, ev.Agent.ModelConfig
	}

	return s.emitAll(ctx, ev.Agent, ev.Trace,
		domain.AgentChatHistory{Envelope: env, LoopCount: ev.LoopCount, ChatHistory: history},
		domain.SystemMessage{Envelope: env, LoopCount: ev.LoopCount, SystemPrompt: ev.SystemPrompt},
		domain.ProviderRequest{
			Envelope:     env,
			LoopCount:    ev.LoopCount,
			ProviderName: provider,
			ModelName:    model,
			ModelConfig:  modelConfig,
			RequestData:  ev.ChatInput,
		},
	)
}

// OnAgentResponse records the provider response, the generated text when
// there is any, and one ToolSelected per resolved tool call. All records
// share a single timestamp.
func (s *Service) OnAgentResponse(ctx context.Context, ev *domain.AgentResponseEvent) error {
	if !s.filter.Tracked(ev.Trace) {
		return nil
	}
	env := s.envelope(s.microNow(), ev.Agent, ev.AgentRunnerID, ev.Trace)
	resp := ev.Response

	records := []domain.Record{
		domain.ProviderResponse{Envelope: env, LoopCount: ev.LoopCount, ResponseData: resp.Data},
	}
	if resp.Text != nil {
		records = append(records, domain.TextGenerated{Envelope: env, LoopCount: ev.LoopCount, GeneratedText: *resp.Text})
	}
	for _, call := range resp.Tools {
		if call == nil {
			continue
		}
		records = append(records, domain.ToolSelected{
			Envelope:            env,
			ToolID:              call.ToolID,
			ToolName:            call.Name,
			ToolInput:           call.Arguments,
			ToolFeedbackMessage: s.tools.FeedbackMessage(call.Name),
		})
	}
	return s.emitAll(ctx, ev.Agent, ev.Trace, records...)
}

// OnToolPreExecute records a tool about to run with its ordered input.
func (s *Service) OnToolPreExecute(ctx context.Context, ev *domain.ToolPreExecuteEvent) error {
	if !s.filter.Tracked(ev.Trace) {
		return nil
	}
	input, err := toolInput(ev.Tool.Parameters)
	if err != nil {
		return fmt.Errorf("encode tool input for %s: %w", ev.Tool.FunctionName, err)
	}
	return s.emit(ctx, ev.Agent, ev.Trace, domain.ToolStarted{
		Envelope:            s.envelope(s.microNow(), ev.Agent, ev.RunnerID, ev.Trace),
		ToolID:              toolID(ev.Tool, ev.ToolID),
		ToolName:            ev.Tool.FunctionName,
		ToolInput:           input,
		ToolFeedbackMessage: ev.ProgressMessage,
	})
}

// OnToolFinished records the readable output of a finished tool.
func (s *Service) OnToolFinished(ctx context.Context, ev *domain.ToolFinishedEvent) error {
	if !s.filter.Tracked(ev.Trace) {
		return nil
	}
	input, err := toolInput(ev.Tool.Parameters)
	if err != nil {
		return fmt.Errorf("encode tool input for %s: %w", ev.Tool.FunctionName, err)
	}
	return s.emit(ctx, ev.Agent, ev.Trace, domain.ToolFinished{
		Envelope:            s.envelope(s.microNow(), ev.Agent, ev.RunnerID, ev.Trace),
		ToolID:              toolID(ev.Tool, ev.ToolID),
		ToolName:            ev.Tool.FunctionName,
		ToolInput:           input,
		ToolResults:         ev.Tool.ReadableOutput,
		ToolFeedbackMessage: ev.ProgressMessage,
	})
}

func (s *Service) envelope(at float64, agent *domain.Agent, runnerID string, trace domain.Trace) domain.Envelope {
	env := domain.Envelope{
		Time:           at,
		AgentRunnerID:  runnerID,
		CallingAgentID: domain.CallerRef(trace.CallerID),
	}
	if agent != nil {
		env.AgentID = agent.ID
		env.AgentName = agent.Label
	}
	return env
}

// emit appends rec to the run when every gate lets it through.
func (s *Service) emit(ctx context.Context, agent *domain.Agent, trace domain.Trace, rec domain.Record) error {
	ok, err := s.filter.Allows(ctx, agent, trace, rec)
	if err != nil {
		s.logger.Error("status policy failed", "run_id", trace.RunID, "type", rec.Type(), "error", err)
		return fmt.Errorf("filter %s: %w", rec.Type(), err)
	}
	if !ok {
		return nil
	}
	if err := s.store.Append(ctx, trace.RunID, rec); err != nil {
		s.logger.Error("failed to append status record", "run_id", trace.RunID, "type", rec.Type(), "error", err)
		return fmt.Errorf("append %s: %w", rec.Type(), err)
	}
	s.logger.Debug("status record appended", "run_id", trace.RunID, "type", rec.Type(), "agent_runner_id", rec.Header().AgentRunnerID)
	return nil
}

func (s *Service) emitAll(ctx context.Context, agent *domain.Agent, trace domain.Trace, records ...domain.Record) error {
	for _, rec := range records {
		if err := s.emit(ctx, agent, trace, rec); err != nil {
			return err
		}
	}
	return nil
}

func toolID(tool domain.ExecutableTool, fallback string) string {
	if tool.ToolsID != "" {
		return tool.ToolsID
	}
	return fallback
}
