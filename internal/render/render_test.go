package render

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/coffeeshop-env/internal/environment"
)

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, environment.Development(), FormatJSON); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	var got environment.Environment
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if got != environment.Development() {
		t.Fatalf("unexpected record %+v", got)
	}
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, environment.Production(), FormatYAML); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	var got environment.Environment
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not YAML: %v", err)
	}
	if got != environment.Production() {
		t.Fatalf("unexpected record %+v", got)
	}
	if !strings.Contains(buf.String(), "apiServerUrl:") {
		t.Fatalf("expected frontend key names, got:\n%s", buf.String())
	}
}

func TestWriteTypeScript(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, environment.Development(), FormatTypeScript); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"export const environment = {",
		"production: false,",
		"apiServerUrl: 'http://coffe-shop-api:5000',",
		"url: 'testmacina.eu',",
		"clientId: 'P9jUymMTPa9sfYVjpjNDUyrfYX9gVpkU',",
		"callbackURL: 'http://localhost:8100',",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestWriteUnknownFormat(t *testing.T) {
	if err := Write(&bytes.Buffer{}, environment.Development(), "toml"); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

func TestQuote(t *testing.T) {
	cases := map[string]string{
		"plain":     "'plain'",
		`it's`:      `'it\'s'`,
		`say "hi"`:  `'say "hi"'`,
		"line\nend": `'line\nend'`,
		`a\"b`:      `'a\\"b'`,
	}
	for input, want := range cases {
		if got := quote(input); got != want {
			t.Fatalf("quote(%q) = %s, want %s", input, got, want)
		}
	}
}
