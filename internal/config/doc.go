// Package config loads the envctl tool configuration from multiple sources
// (YAML files, environment variables, CLI flags) with precedence: CLI flags >
// YAML config > Environment variables > Defaults. It configures the tool and
// its HTTP service, never the frontend record itself.
package config
