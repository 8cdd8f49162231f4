package domain

// AgentStarted marks the first loop of an agent invocation.
type AgentStarted struct {
	Envelope
}

func (AgentStarted) Type() RecordType { return RecordAgentStarted }

// AgentFinished marks the end of an agent invocation.
type AgentFinished struct {
	Envelope
}

func (AgentFinished) Type() RecordType { return RecordAgentFinished }

// AgentIteration is emitted once per loop of the agent, including loop 0.
type AgentIteration struct {
	Envelope
	LoopCount int `json:"loop_count"`
}

func (AgentIteration) Type() RecordType { return RecordAgentIteration }

// AgentRequest records the instructions an agent was given for a loop.
type AgentRequest struct {
	Envelope
	LoopCount    int    `json:"loop_count"`
	Instructions string `json:"instructions"`
}

func (AgentRequest) Type() RecordType { return RecordAgentRequest }

// AgentResponse records the text an agent answered with, if any.
type AgentResponse struct {
	Envelope
	LoopCount    int     `json:"loop_count"`
	TextResponse *string `json:"text_response"`
}

func (AgentResponse) Type() RecordType { return RecordAgentResponse }

// AgentChatHistory carries the full chat history sent with a request.
type AgentChatHistory struct {
	Envelope
	LoopCount   int              `json:"loop_count"`
	ChatHistory []map[string]any `json:"chat_history"`
}

func (AgentChatHistory) Type() RecordType { return RecordAgentChatHistory }

// SystemMessage carries the system prompt sent with a request.
type SystemMessage struct {
	Envelope
	LoopCount    int    `json:"loop_count"`
	SystemPrompt string `json:"system_prompt"`
}

func (SystemMessage) Type() RecordType { return RecordSystemMessage }

// ProviderRequest is the raw request handed to the AI provider.
type ProviderRequest struct {
	Envelope
	LoopCount    int            `json:"loop_count"`
	ProviderName string         `json:"provider_name"`
	ModelName    string         `json:"model_name"`
	ModelConfig  map[string]any `json:"config"`
	RequestData  map[string]any `json:"request_data"`
}

func (ProviderRequest) Type() RecordType { return RecordProviderRequest }

// ProviderResponse is the raw response returned by the AI provider.
type ProviderResponse struct {
	Envelope
	LoopCount    int            `json:"loop_count"`
	ResponseData map[string]any `json:"response_data"`
}

func (ProviderResponse) Type() RecordType { return RecordProviderResponse }

// TextGenerated holds the text the provider answered with in one loop.
type TextGenerated struct {
	Envelope
	LoopCount     int    `json:"loop_count"`
	GeneratedText string `json:"text_response"`
}

func (TextGenerated) Type() RecordType { return RecordTextGenerated }

// ToolSelected is emitted for every tool call the provider asked for.
type ToolSelected struct {
	Envelope
	ToolID              string `json:"tool_id"`
	ToolName            string `json:"tool_name"`
	ToolInput           string `json:"tool_input"`
	ToolFeedbackMessage string `json:"tool_feedback_message"`
}

func (ToolSelected) Type() RecordType { return RecordToolSelected }

// ToolStarted has the same shape as ToolSelected and is emitted right before
// the tool executes.
type ToolStarted struct {
	Envelope
	ToolID              string `json:"tool_id"`
	ToolName            string `json:"tool_name"`
	ToolInput           string `json:"tool_input"`
	ToolFeedbackMessage string `json:"tool_feedback_message"`
}

func (ToolStarted) Type() RecordType { return RecordToolStarted }

// ToolFinished carries the readable output of a tool execution.
type ToolFinished struct {
	Envelope
	ToolID              string `json:"tool_id"`
	ToolName            string `json:"tool_name"`
	ToolInput           string `json:"tool_input"`
	ToolResults         string `json:"tool_results"`
	ToolFeedbackMessage string `json:"tool_feedback_message"`
}

func (ToolFinished) Type() RecordType { return RecordToolFinished }
