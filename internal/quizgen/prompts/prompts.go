package prompts

import (
	"bytes"
	"fmt"
	"sync"
	"text/template"

	"github.com/pavelanni/quizdesk/internal/model"
)

const generateTemplate = `You are a quiz author. Write exam questions based ONLY on the source text below.

SOURCE TEXT:
{{.SourceText}}

INSTRUCTIONS:
- Write exactly {{.Count}} questions of kind "{{.Kind}}".
{{- if eq .Kind "single_choice"}}
- Each question has 2 to 5 answer options, exactly one of them correct.
- True/false questions use exactly the two options "True" and "False".
{{- end}}
{{- if eq .Kind "multi_choice"}}
- Each question has 3 to 6 answer options; any subset of them may be correct.
{{- end}}
{{- if eq .Kind "free_text"}}
- Questions expect a short written answer; do NOT include answer options.
{{- end}}
- If a question refers to source code, put the snippet in the "code" field verbatim and keep it out of "text".
- Questions must be answerable from the source text alone.

Respond ONLY with a JSON object:
{"questions": [{"text": "<prompt>", "code": "<snippet or empty string>", "kind": "{{.Kind}}", "options": [<strings, empty for free_text>]}]}
`

// GenerateData holds template data for the question generation prompt.
type GenerateData struct {
	SourceText string
	Count      int
	Kind       model.QuestionKind
}

var (
	loadOnce    sync.Once
	loadErr     error
	generateTpl *template.Template
)

func load() {
	generateTpl, loadErr = template.New("generate").Parse(generateTemplate)
}

// BuildGenerate renders the system prompt for AI question generation.
func BuildGenerate(data GenerateData) (string, error) {
	loadOnce.Do(load)
	if loadErr != nil {
		return "", fmt.Errorf("parse generate template: %w", loadErr)
	}
	var buf bytes.Buffer
	if err := generateTpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render generate prompt: %w", err)
	}
	return buf.String(), nil
}
