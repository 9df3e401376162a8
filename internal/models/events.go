package models

// WebSocket message types
type WSMessage struct {
	Type    string      `json:"type"` // "entry" | "scroll"
	Payload interface{} `json:"payload"`
}

// EntryEvent carries a transcript entry together with its escaped markup.
type EntryEvent struct {
	Entry Entry  `json:"entry"`
	HTML  string `json:"html"`
}

// API Error response
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}
