package gemini

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/phrazzld/checklist-api/internal/generation"
)

const defaultPrompt = `You are an assistant working on a shared checklist.

Task: {{.TaskDescription}}
{{- if .Attachments}}

Context documents:
{{- range .Attachments}}
--- {{.Name}} ---
{{.Content}}
{{- end}}
{{- end}}
{{- if .History}}

Discussion so far:
{{- range .History}}
{{indent .Depth}}- {{.Author}}: {{.Text}}
{{- end}}
{{- end}}

Instruction: {{.Instruction}}
`

var promptFuncs = template.FuncMap{
	"indent": func(depth int) string { return strings.Repeat("  ", depth) },
}

// loadPrompt parses the template at path, or the built-in prompt when path
// is empty.
func loadPrompt(path string) (*template.Template, error) {
	text := defaultPrompt
	name := "execution"

	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read prompt template from %s: %v",
				generation.ErrInvalidConfig, path, err)
		}
		text = string(content)
		name = path
	}

	tmpl, err := template.New(name).Funcs(promptFuncs).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse prompt template: %v",
			generation.ErrInvalidConfig, err)
	}
	return tmpl, nil
}

func renderPrompt(tmpl *template.Template, req generation.Request) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, req); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}
	return buf.String(), nil
}
