package workspace

import (
	"bytes"
	"fmt"
	"text/template"

	"gopkg.in/yaml.v3"
)

// TemplateError reports a document that failed to render, most commonly a
// reference to a variable absent from the workspace context.
type TemplateError struct {
	Err error
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("rendering document: %v", e.Err)
}

func (e *TemplateError) Unwrap() error { return e.Err }

// ParseError reports document text that is not well-formed YAML.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing document: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Render substitutes context variables into raw document text. Variables
// are referenced Go-template style ({{ .environment }}); a reference to a
// variable missing from the context is an error.
func Render(raw string, context map[string]any) (string, error) {
	tmpl, err := template.New("document").Option("missingkey=error").Parse(raw)
	if err != nil {
		return "", &TemplateError{Err: err}
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, context); err != nil {
		return "", &TemplateError{Err: err}
	}
	return buf.String(), nil
}

// ParseDocument renders raw against context when one is given, then
// unmarshals the resulting YAML into out.
func ParseDocument(raw []byte, context map[string]any, out any) error {
	text := string(raw)
	if context != nil {
		rendered, err := Render(text, context)
		if err != nil {
			return err
		}
		text = rendered
	}

	if err := yaml.Unmarshal([]byte(text), out); err != nil {
		return &ParseError{Err: err}
	}
	return nil
}
