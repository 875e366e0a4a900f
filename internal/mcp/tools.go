package mcp

import "github.com/mark3labs/mcp-go/mcp"

var probeToolDef = mcp.NewTool("capability_probe",
	mcp.WithDescription("Report whether the host exposes the language detector, translator and summarizer. "+
		"The probe runs once at startup; the result never changes for the session."),
)

var sendToolDef = mcp.NewTool("message_send",
	mcp.WithDescription("Submit a text. Its language is detected and the message is appended to the conversation. "+
		"Surrounding whitespace is trimmed; empty text is rejected."),
	mcp.WithString("text", mcp.Required(), mcp.Description("Text to add")),
)

var summarizeToolDef = mcp.NewTool("message_summarize",
	mcp.WithDescription("Summarize a message as markdown key points and store the summary on it."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Message ID")),
)

var translateToolDef = mcp.NewTool("message_translate",
	mcp.WithDescription("Translate a message and store the result. Pass target for one language or targets "+
		"to translate into several languages concurrently."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Message ID")),
	mcp.WithString("target", mcp.Description("Target language code, e.g. es")),
	mcp.WithArray("targets",
		mcp.Description("Target language codes, e.g. [\"es\", \"ru\"]"),
		mcp.Items(map[string]any{"type": "string"}),
	),
)

var fetchToolDef = mcp.NewTool("message_fetch",
	mcp.WithDescription("Fetch one message with its language, summary, translations and busy flags."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Message ID")),
)

var listToolDef = mcp.NewTool("conversation_list",
	mcp.WithDescription("List every message in submission order, with the current error banner."),
)

var dismissToolDef = mcp.NewTool("error_dismiss",
	mcp.WithDescription("Clear the current error banner."),
)

var journalListToolDef = mcp.NewTool("journal_list",
	mcp.WithDescription("List recorded host calls, newest first. Only metadata is journaled, never message text."),
	mcp.WithString("operation",
		mcp.Description("Filter by operation"),
		mcp.Enum("detect", "summarize", "translate"),
	),
	mcp.WithNumber("limit", mcp.Description("Max items (default 20, max 100)")),
	mcp.WithNumber("offset", mcp.Description("Pagination offset")),
)
