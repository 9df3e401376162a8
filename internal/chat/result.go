package chat

import (
	"strings"

	"samarth-chat/internal/models"
)

// Result is the outcome of the network step of one cycle.
type Result struct {
	Response *models.AskResponse
	Err      error
}

func (r Result) OK() bool {
	return r.Err == nil && r.Response != nil
}

// Entry maps the result to the transcript entry it produces. Failures become
// an error entry; a reply without a usable answer falls back to the legacy
// text field and then to the placeholder.
func (r Result) Entry(fallback, errorText string) (models.Role, string) {
	if !r.OK() {
		return models.RoleError, errorText
	}
	if r.Response.Answer != nil && strings.TrimSpace(*r.Response.Answer) != "" {
		return models.RoleBot, *r.Response.Answer
	}
	if strings.TrimSpace(r.Response.Text) != "" {
		return models.RoleBot, r.Response.Text
	}
	return models.RoleBot, fallback
}
