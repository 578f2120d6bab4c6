// Package tmpl renders the small text templates ccdash types into terminals.
package tmpl

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// shellQuote wraps s in single quotes, closing and reopening the quote
// around any embedded single quote.
func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

var funcs = template.FuncMap{
	"shq":   shellQuote,
	"lower": strings.ToLower,
	"title": func(s string) string {
		if s == "" {
			return s
		}
		return strings.ToUpper(s[:1]) + s[1:]
	},
}

func parse(text string) (*template.Template, error) {
	t, err := template.New("").Funcs(funcs).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	return t, nil
}

// Render executes text with data. Unknown keys are an error.
//
// Functions:
//   - shq: single-quote a value for the shell
//   - lower: lowercase a value
//   - title: uppercase the first letter of a value
func Render(text string, data any) (string, error) {
	t, err := parse(text)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}

	return buf.String(), nil
}

// Check renders text against sample and reports whether the result starts
// with prefix. It is used to validate templates at config load time.
func Check(text string, sample any, prefix string) error {
	out, err := Render(text, sample)
	if err != nil {
		return err
	}
	if prefix != "" && !strings.HasPrefix(strings.TrimSpace(out), prefix) {
		return fmt.Errorf("rendered command %q must start with %q", strings.TrimSpace(out), prefix)
	}
	return nil
}
