package constant

const (
	ChatSystemPrompt = `You are the assistant of a developer guide about AI-assisted software development and the Model Context Protocol (MCP).

GUIDELINES:
- Answer questions about MCP servers and clients, tools, resources and prompts, AI pair programming and writing status reports.
- Prefer concrete, working examples over theory. Keep code blocks short.
- When guide content is provided below, ground your answer in it and mention the page path so the reader can follow up.
- If a question is outside the guide's scope, say so briefly and answer from general knowledge.
- Length: 2-6 short paragraphs unless the user asks for more.`

	ChatRecommendedContentHeader = "\n\nRELEVANT GUIDE CONTENT:\n"
	ChatCurrentPageTemplate      = "The user is currently reading the page %s."

	ChatWelcomeMessage = "Hi! I can answer questions about AI-assisted development, building MCP servers and writing 4-box status reports. What would you like to know?"
	ChatErrorMessage   = "I'm sorry, I ran into a problem while generating a response. Please try again in a moment."

	// ChatHistoryWindow is how many prior non-system messages accompany a request.
	ChatHistoryWindow = 10
	ChatTitleMaxChars = 30
	ChatTemperature   = 0.7
	ChatMaxTokens     = 1000
)
