package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"samarth-chat/internal/models"
)

func TestField_ReadAndClear(t *testing.T) {
	f := &Field{}
	f.Set("draft")
	assert.Equal(t, "draft", f.Value())
	assert.Equal(t, "draft", f.ReadAndClear())
	assert.Equal(t, "", f.Value())
	assert.Equal(t, "", f.ReadAndClear())
}

func TestResult_Entry(t *testing.T) {
	tests := []struct {
		name     string
		result   Result
		wantRole string
		wantText string
	}{
		{"nil response", Result{}, "error", ErrorText},
		{"answer", Result{Response: answer("42")}, "bot", "42"},
		{"missing answer", Result{Response: &models.AskResponse{}}, "bot", FallbackAnswer},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			role, text := tc.result.Entry(FallbackAnswer, ErrorText)
			assert.Equal(t, tc.wantRole, string(role))
			assert.Equal(t, tc.wantText, text)
		})
	}
}
