package tools

func init() {
	MustRegister(Definition{
		Name:            "weather.query",
		Description:     "Look up the current weather for a city.",
		FeedbackMessage: "Checking the weather",
	})
	MustRegister(Definition{
		Name:            "search.web",
		Description:     "Search the web.",
		FeedbackMessage: "Searching the web",
	})
	MustRegister(Definition{
		Name:            "agent.delegate",
		Description:     "Hand a task to a sub-agent.",
		FeedbackMessage: "Asking a sub-agent",
	})
}
