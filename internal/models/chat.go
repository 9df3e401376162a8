package models

import (
	"time"

	"github.com/google/uuid"
)

// Role tags a transcript entry with who produced it.
type Role string

const (
	RoleUser  Role = "user"
	RoleBot   Role = "bot"
	RoleError Role = "error"
)

// Entry is one line of a chat transcript.
type Entry struct {
	ID        uuid.UUID `json:"id"`
	Seq       int64     `json:"seq"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// AskRequest is the payload posted to /ask.
type AskRequest struct {
	Question string `json:"question"`
}

// AskResponse is the reply from /ask. Only Answer is required by clients;
// the remaining fields describe the structured data behind the answer.
type AskResponse struct {
	Answer      *string   `json:"answer"`
	Text        string    `json:"text,omitempty"`
	Type        string    `json:"type,omitempty"` // "rainfall_compare" | "info" | "top_crops" | "llm" | "fallback"
	State       string    `json:"state,omitempty"`
	Labels      []string  `json:"labels,omitempty"`
	Values      []float64 `json:"values,omitempty"`
	Citation    string    `json:"citation,omitempty"`
	Suggestions []string  `json:"suggestions,omitempty"`
}

// NewAskResponse builds a response whose answer and text carry the same sentence.
func NewAskResponse(kind, text string) *AskResponse {
	answer := text
	return &AskResponse{Answer: &answer, Text: text, Type: kind}
}
