package environment

import (
	"sort"
	"strings"
)

// Variant names.
const (
	VariantDevelopment = "development"
	VariantProduction  = "production"
)

// Auth0 carries the identity-provider parameters used by the frontend's
// authentication client.
type Auth0 struct {
	Domain      string `json:"url" yaml:"url"`
	Audience    string `json:"audience" yaml:"audience"`
	ClientID    string `json:"clientId" yaml:"clientId"`
	CallbackURL string `json:"callbackURL" yaml:"callbackURL"`
}

// Environment is the configuration record consumed by the frontend.
type Environment struct {
	Production   bool   `json:"production" yaml:"production"`
	APIServerURL string `json:"apiServerUrl" yaml:"apiServerUrl"`
	Auth0        Auth0  `json:"auth0" yaml:"auth0"`
}

var development = Environment{
	Production:   false,
	APIServerURL: "http://coffe-shop-api:5000",
	Auth0: Auth0{
		Domain:      "testmacina.eu",
		Audience:    "id_access",
		ClientID:    "P9jUymMTPa9sfYVjpjNDUyrfYX9gVpkU",
		CallbackURL: "http://localhost:8100",
	},
}

// Placeholder values; deployments replace them before bundling.
var production = Environment{
	Production:   true,
	APIServerURL: "https://YOUR_API_SERVER_URL",
	Auth0: Auth0{
		Domain:      "YOUR_AUTH0_DOMAIN",
		Audience:    "YOUR_AUTH0_AUDIENCE",
		ClientID:    "YOUR_AUTH0_CLIENT_ID",
		CallbackURL: "https://YOUR_APP_URL",
	},
}

var variants = map[string]Environment{
	VariantDevelopment: development,
	VariantProduction:  production,
}

var aliases = map[string]string{
	"dev":  VariantDevelopment,
	"prod": VariantProduction,
}

// Development returns the record used for local development.
func Development() Environment {
	return development
}

// Production returns the record used for production deployments.
func Production() Environment {
	return production
}

// Lookup returns the record registered under name. Names are
// case-insensitive and accept the short forms "dev" and "prod".
func Lookup(name string) (Environment, bool) {
	env, ok := variants[Canonical(name)]
	return env, ok
}

// Canonical normalises a variant name, resolving short aliases.
func Canonical(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if full, ok := aliases[name]; ok {
		return full
	}
	return name
}

// Variants lists the registered variant names in sorted order.
func Variants() []string {
	names := make([]string, 0, len(variants))
	for name := range variants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
