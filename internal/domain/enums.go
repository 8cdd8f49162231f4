// Package domain defines the status records, the producer events and the
// wire format shared by every component of the status pipeline.
package domain

// RecordType is the discriminant stored under the "type" key of every record.
type RecordType string

const (
	// Agent lifecycle.
	RecordAgentStarted     RecordType = "agent_started"
	RecordAgentFinished    RecordType = "agent_finished"
	RecordAgentIteration   RecordType = "agent_iteration"
	RecordAgentResponse    RecordType = "agent_response"
	RecordAgentRequest     RecordType = "agent_request"
	RecordAgentChatHistory RecordType = "agent_chat_history"

	// Provider traffic.
	RecordProviderRequest  RecordType = "ai_provider_request"
	RecordProviderResponse RecordType = "ai_provider_response"

	RecordTextGenerated RecordType = "text_generated"
	RecordSystemMessage RecordType = "system_message"

	// Tools.
	RecordToolSelected RecordType = "tool_selected"
	RecordToolStarted  RecordType = "tool_started"
	RecordToolFinished RecordType = "tool_finished"
)

// RecordTypes lists every known record type in declaration order.
var RecordTypes = []RecordType{
	RecordAgentStarted,
	RecordAgentFinished,
	RecordAgentIteration,
	RecordAgentResponse,
	RecordAgentRequest,
	RecordAgentChatHistory,
	RecordProviderRequest,
	RecordProviderResponse,
	RecordTextGenerated,
	RecordSystemMessage,
	RecordToolSelected,
	RecordToolStarted,
	RecordToolFinished,
}

// Valid reports whether t is one of the known record types.
func (t RecordType) Valid() bool {
	for _, known := range RecordTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Title returns a human readable label for the record type.
func (t RecordType) Title() string {
	switch t {
	case RecordAgentFinished:
		return "Agent Finished"
	case RecordAgentStarted:
		return "Agent Started"
	case RecordToolSelected:
		return "Tool Selected"
	case RecordToolStarted:
		return "Tool Started"
	case RecordToolFinished:
		return "Tool Finished"
	case RecordAgentIteration:
		return "Agent Iterated"
	case RecordAgentResponse:
		return "Agent Responded"
	case RecordAgentRequest:
		return "Agent Requested"
	case RecordAgentChatHistory:
		return "Agent Chat History"
	case RecordProviderRequest:
		return "AI Provider Request"
	case RecordProviderResponse:
		return "AI Provider Response"
	case RecordTextGenerated:
		return "Text Generated"
	case RecordSystemMessage:
		return "System Message"
	}
	return string(t)
}

// EventKind names a producer event on the wire (RPC, replay files).
type EventKind string

const (
	EventAgentStarted   EventKind = "agent.started"
	EventAgentFinished  EventKind = "agent.finished"
	EventAgentRequest   EventKind = "agent.request"
	EventAgentResponse  EventKind = "agent.response"
	EventToolPreExecute EventKind = "tool.pre_execute"
	EventToolFinished   EventKind = "tool.finished"
)
