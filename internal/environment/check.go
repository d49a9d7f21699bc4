package environment

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode"
)

// ErrPlaceholder marks a field that still carries a deployment placeholder.
var ErrPlaceholder = errors.New("placeholder value")

// Whole-token markers; matched case-sensitively so real names such as
// "todolist.eu" pass.
var placeholderTokens = map[string]bool{"TODO": true, "CHANGE_ME": true, "CHANGEME": true}

// Check reports every empty field, malformed URL and unreplaced placeholder
// in env. It is opt-in: nothing in this package calls it on its own.
func Check(env Environment) error {
	var errs []error

	errs = append(errs, checkURL("apiServerUrl", env.APIServerURL, env.Production)...)
	errs = append(errs, checkText("auth0.url", env.Auth0.Domain)...)
	errs = append(errs, checkText("auth0.audience", env.Auth0.Audience)...)
	errs = append(errs, checkText("auth0.clientId", env.Auth0.ClientID)...)
	errs = append(errs, checkURL("auth0.callbackURL", env.Auth0.CallbackURL, env.Production)...)

	return errors.Join(errs...)
}

func checkText(field, value string) []error {
	if strings.TrimSpace(value) == "" {
		return []error{fmt.Errorf("%s: must not be empty", field)}
	}
	if isPlaceholder(value) {
		return []error{fmt.Errorf("%s: %w %q", field, ErrPlaceholder, value)}
	}
	return nil
}

func checkURL(field, value string, production bool) []error {
	if errs := checkText(field, value); errs != nil {
		return errs
	}
	u, err := url.Parse(value)
	if err != nil {
		return []error{fmt.Errorf("%s: %w", field, err)}
	}
	if u.Scheme == "" || u.Host == "" {
		return []error{fmt.Errorf("%s: %q is not an absolute URL", field, value)}
	}
	if production && u.Scheme != "https" {
		return []error{fmt.Errorf("%s: production builds require https, got %q", field, u.Scheme)}
	}
	return nil
}

func isPlaceholder(value string) bool {
	tokens := strings.FieldsFunc(value, func(r rune) bool {
		return !(r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r))
	})
	for _, token := range tokens {
		if strings.HasPrefix(token, "YOUR_") || placeholderTokens[token] {
			return true
		}
	}
	open := strings.Index(value, "<")
	return open >= 0 && strings.Contains(value[open:], ">")
}
