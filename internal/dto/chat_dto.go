package dto

// ChatRequest is the body of POST /api/chat and the session chat endpoint.
type ChatRequest struct {
	Message          string `json:"message" validate:"required"`
	ChatType         string `json:"chat_type" validate:"required"`
	AppFunctionality string `json:"app_functionality"`
}

// GraphData describes the attached chart artifact.
type GraphData struct {
	Type   string `json:"type"`
	Format string `json:"format"`
}

// ChatResponse mirrors what the frontend renders: the answer text plus an
// optional base64 chart as a data URI.
type ChatResponse struct {
	Response  string     `json:"response"`
	Success   bool       `json:"success"`
	Error     string     `json:"error,omitempty"`
	Graph     string     `json:"graph,omitempty"`
	GraphData *GraphData `json:"graph_data,omitempty"`
}

// ChatHistoryResponse returns a session transcript as [user, bot] pairs.
type ChatHistoryResponse struct {
	History [][]string `json:"history"`
}

// ChatTypesResponse lists the chat types the frontend may request.
type ChatTypesResponse struct {
	ChatTypes []string `json:"chat_types"`
}

// ClearSessionResponse reports whether a session existed before deletion.
type ClearSessionResponse struct {
	Cleared bool `json:"cleared"`
}

// RebuildResponse acknowledges an enqueued vector collection rebuild.
type RebuildResponse struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
}
