package transcript

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/microcosm-cc/bluemonday"

	"samarth-chat/internal/models"
)

var entryTemplate = template.Must(template.New("entry").Parse(
	`<div class="msg {{.Role}}" data-seq="{{.Seq}}">{{.Body}}</div>`,
))

// Renderer turns entries into HTML fragments. Text is always inserted
// through html/template escaping; Markdown answers are converted and then
// sanitized with a UGC policy.
type Renderer struct {
	markdownAnswers bool
	policy          *bluemonday.Policy
}

func NewRenderer(markdownAnswers bool) *Renderer {
	return &Renderer{
		markdownAnswers: markdownAnswers,
		policy:          bluemonday.UGCPolicy(),
	}
}

// Entry renders a single entry.
func (r *Renderer) Entry(e models.Entry) (template.HTML, error) {
	var body interface{} = e.Text
	if e.Role == models.RoleBot && r.markdownAnswers {
		body = r.markdown(e.Text)
	}

	var buf bytes.Buffer
	err := entryTemplate.Execute(&buf, struct {
		Role models.Role
		Seq  int64
		Body interface{}
	}{e.Role, e.Seq, body})
	if err != nil {
		return "", fmt.Errorf("failed to render entry %d: %w", e.Seq, err)
	}
	return template.HTML(buf.String()), nil
}

// Entries renders entries in order, one fragment per line.
func (r *Renderer) Entries(entries []models.Entry) (template.HTML, error) {
	var b strings.Builder
	for _, e := range entries {
		frag, err := r.Entry(e)
		if err != nil {
			return "", err
		}
		b.WriteString(string(frag))
		b.WriteByte('\n')
	}
	return template.HTML(b.String()), nil
}

func (r *Renderer) markdown(text string) template.HTML {
	html := r.policy.SanitizeBytes(markdown.ToHTML([]byte(text), nil, nil))
	return template.HTML(strings.TrimSpace(string(html)))
}
