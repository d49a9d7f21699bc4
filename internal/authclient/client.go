// Package authclient derives Auth0 login, logout and token-exchange
// parameters from the environment record and inspects the access tokens the
// identity provider hands back.
package authclient

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/oauth2"

	"github.com/eugenenazirov/coffeeshop-env/internal/environment"
)

const auth0Suffix = ".auth0.com"

var (
	// ErrNoToken is returned when a callback URL carries no access token.
	ErrNoToken = errors.New("no access token in callback")
)

// Client builds Auth0 URLs for one registered application.
type Client struct {
	settings     environment.Auth0
	customDomain bool
}

// Option configures a Client.
type Option func(*Client)

// WithCustomDomain treats the configured domain as a full hostname instead
// of a tenant prefix.
func WithCustomDomain() Option {
	return func(c *Client) {
		c.customDomain = true
	}
}

// New returns a Client for the given Auth0 settings.
func New(settings environment.Auth0, opts ...Option) *Client {
	c := &Client{settings: settings}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Host returns the identity-provider hostname. The domain is a tenant
// prefix ("testmacina.eu" for an EU tenant) completed with .auth0.com.
func (c *Client) Host() string {
	domain := strings.TrimSuffix(strings.TrimSpace(c.settings.Domain), "/")
	if c.customDomain || strings.HasSuffix(domain, auth0Suffix) {
		return domain
	}
	return domain + auth0Suffix
}

// Issuer returns the token issuer URL, with trailing slash as Auth0 emits it.
func (c *Client) Issuer() string {
	return "https://" + c.Host() + "/"
}

// LoginURL builds the implicit-flow authorize link. callbackPath is appended
// to the configured callback URL.
func (c *Client) LoginURL(callbackPath string) string {
	q := url.Values{}
	q.Set("audience", c.settings.Audience)
	q.Set("response_type", "token")
	q.Set("client_id", c.settings.ClientID)
	q.Set("redirect_uri", c.settings.CallbackURL+callbackPath)
	return c.Issuer() + "authorize?" + q.Encode()
}

// LogoutURL builds the Auth0 logout link returning to returnTo, or to the
// callback URL when returnTo is empty.
func (c *Client) LogoutURL(returnTo string) string {
	if returnTo == "" {
		returnTo = c.settings.CallbackURL
	}
	q := url.Values{}
	q.Set("client_id", c.settings.ClientID)
	q.Set("returnTo", returnTo)
	return c.Issuer() + "v2/logout?" + q.Encode()
}

// OAuth2Config returns an authorization-code flow configuration for the
// same application. Public clients leave ClientSecret empty and use PKCE.
func (c *Client) OAuth2Config(scopes ...string) *oauth2.Config {
	if len(scopes) == 0 {
		scopes = []string{"openid", "profile"}
	}
	return &oauth2.Config{
		ClientID: c.settings.ClientID,
		Endpoint: oauth2.Endpoint{
			AuthURL:   c.Issuer() + "authorize",
			TokenURL:  c.Issuer() + "oauth/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
		RedirectURL: c.settings.CallbackURL,
		Scopes:      scopes,
	}
}

// AuthCodeURL returns the authorization-code flow link with the configured
// audience and an S256 PKCE challenge for verifier.
func (c *Client) AuthCodeURL(state, verifier string, opts ...oauth2.AuthCodeOption) string {
	opts = append(opts,
		oauth2.SetAuthURLParam("audience", c.settings.Audience),
		oauth2.S256ChallengeOption(verifier),
	)
	return c.OAuth2Config().AuthCodeURL(state, opts...)
}

// Exchange trades an authorization code for a token using the PKCE verifier
// that produced the challenge.
func (c *Client) Exchange(ctx context.Context, code, verifier string) (*oauth2.Token, error) {
	tok, err := c.OAuth2Config().Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	return tok, nil
}

// TokenFromCallback extracts the access token from the fragment of an
// implicit-flow callback URL.
func TokenFromCallback(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse callback: %w", err)
	}
	fragment, err := url.ParseQuery(u.Fragment)
	if err != nil {
		return "", fmt.Errorf("parse callback fragment: %w", err)
	}
	if token := fragment.Get("access_token"); token != "" {
		return token, nil
	}
	if reason := fragment.Get("error"); reason != "" {
		if desc := fragment.Get("error_description"); desc != "" {
			return "", fmt.Errorf("%w: %s: %s", ErrNoToken, reason, desc)
		}
		return "", fmt.Errorf("%w: %s", ErrNoToken, reason)
	}
	return "", ErrNoToken
}
