package router

// Canned user-facing responses. These are the exact strings the frontend
// renders, so they change only deliberately.
const (
	msgUnsupportedChatType = "This chat type is not supported."
	msgNotImplemented      = "This functionality is not implemented yet."
	msgNoResponse          = "I couldn't generate a response for your query. Please try asking in a different way or check if the database contains the requested information."
	msgChartFailedNote     = "\n\n(Chart generation failed, showing text answer only.)"

	errUnsupportedChatType = "Unsupported chat type"
	errNotImplemented      = "Not implemented"
	errNoRelevantResults   = "No relevant results found"
)
