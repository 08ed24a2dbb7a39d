package services

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"alfredoptarigan/resume-studio/internal/models"
)

//go:embed prompts/*.tmpl
var promptFS embed.FS

var templateFuncs = template.FuncMap{
	"lengthGuide": lengthGuide,
}

// PromptBuilder maps flow names to prompt templates. The wording is opaque
// configuration: defaults are embedded and any <flow>.tmpl file found in the
// override directory replaces the default of the same name.
type PromptBuilder struct {
	templates map[string]*template.Template
}

func NewPromptBuilder(overrideDir string) (*PromptBuilder, error) {
	pb := &PromptBuilder{templates: map[string]*template.Template{}}

	entries, err := fs.ReadDir(promptFS, "prompts")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded prompts: %w", err)
	}

	for _, entry := range entries {
		flow := strings.TrimSuffix(entry.Name(), ".tmpl")
		text, err := promptFS.ReadFile("prompts/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read prompt %s: %w", flow, err)
		}

		if overrideDir != "" {
			custom, err := os.ReadFile(filepath.Join(overrideDir, entry.Name()))
			switch {
			case err == nil:
				text = custom
			case !errors.Is(err, fs.ErrNotExist):
				return nil, fmt.Errorf("failed to read prompt override %s: %w", flow, err)
			}
		}

		if err := pb.Register(flow, string(text)); err != nil {
			return nil, err
		}
	}

	return pb, nil
}

// Register parses text as the template of flow, replacing any previous one.
func (pb *PromptBuilder) Register(flow, text string) error {
	tmpl, err := template.New(flow).Funcs(templateFuncs).Option("missingkey=error").Parse(text)
	if err != nil {
		return fmt.Errorf("failed to parse prompt %s: %w", flow, err)
	}
	pb.templates[flow] = tmpl
	return nil
}

// Build renders the template of flow with data.
func (pb *PromptBuilder) Build(flow string, data any) (string, error) {
	tmpl, ok := pb.templates[flow]
	if !ok {
		return "", fmt.Errorf("no prompt registered for flow %s", flow)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render prompt %s: %w", flow, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// BuildOutputContract describes the JSON shape the model must answer with.
func (pb *PromptBuilder) BuildOutputContract(schema *Schema) string {
	return fmt.Sprintf(`Return your response as a single JSON object that validates against this JSON schema:
%s

Return ONLY the JSON object, with no markdown and no commentary.`, strings.TrimSpace(string(schema.Raw())))
}

func lengthGuide(l models.SummaryLength) string {
	switch l {
	case models.LengthShort:
		return "short: two or three sentences"
	case models.LengthLong:
		return "long: several detailed paragraphs"
	default:
		return "medium: one solid paragraph"
	}
}
