// Package render writes an environment record in the formats consumed by
// frontend build tooling.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/coffeeshop-env/internal/environment"
)

// Supported output formats.
const (
	FormatJSON       = "json"
	FormatYAML       = "yaml"
	FormatTypeScript = "ts"
)

// Formats lists the accepted format names.
func Formats() []string {
	return []string{FormatJSON, FormatYAML, FormatTypeScript}
}

var tsTemplate = template.Must(template.New("environment.ts").
	Funcs(template.FuncMap{"quote": quote}).
	Parse(`export const environment = {
  production: {{ .Production }},
  apiServerUrl: {{ quote .APIServerURL }},
  auth0: {
    url: {{ quote .Auth0.Domain }},
    audience: {{ quote .Auth0.Audience }},
    clientId: {{ quote .Auth0.ClientID }},
    callbackURL: {{ quote .Auth0.CallbackURL }},
  },
};
`))

// Write renders env to w in the requested format.
func Write(w io.Writer, env environment.Environment, format string) error {
	switch format {
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(env); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(env); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
	case FormatTypeScript:
		if err := tsTemplate.Execute(w, env); err != nil {
			return fmt.Errorf("render typescript: %w", err)
		}
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
	return nil
}

// quote renders a single-quoted TypeScript string literal.
func quote(s string) string {
	q := strconv.Quote(s)
	body := q[1 : len(q)-1]
	out := make([]byte, 0, len(body)+2)
	out = append(out, '\'')
	for i := 0; i < len(body); i++ {
		switch {
		case body[i] == '\\' && i+1 < len(body):
			if body[i+1] != '"' {
				out = append(out, '\\')
			}
			out = append(out, body[i+1])
			i++
		case body[i] == '\'':
			out = append(out, '\\', '\'')
		default:
			out = append(out, body[i])
		}
	}
	out = append(out, '\'')
	return string(out)
}
