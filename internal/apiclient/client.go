// Package apiclient talks to the coffee shop backend whose address comes from
// the environment record's apiServerUrl.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/eugenenazirov/coffeeshop-env/internal/environment"
)

const defaultTimeout = 10 * time.Second

var (
	// ErrUnexpectedStatus is wrapped by every *APIError.
	ErrUnexpectedStatus = errors.New("unexpected response status")
	// ErrInsecureBaseURL is returned for plain-http base URLs in production mode.
	ErrInsecureBaseURL = errors.New("production API server must use https")
)

// Client issues requests against the backend API.
type Client struct {
	base          *url.URL
	production    bool
	allowInsecure bool
	httpClient    *http.Client
	limiter       *rate.Limiter
	logger        *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRateLimit paces outgoing requests. Zero values disable pacing.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 || burst <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// AllowInsecure permits plain-http base URLs in production mode.
func AllowInsecure() Option {
	return func(c *Client) {
		c.allowInsecure = true
	}
}

// New builds a Client from the record's apiServerUrl and production flag.
func New(env environment.Environment, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(env.APIServerURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse apiServerUrl: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("apiServerUrl %q is not an absolute URL", env.APIServerURL)
	}

	c := &Client{
		base:       base,
		production: env.Production,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.production && base.Scheme != "https" && !c.allowInsecure {
		return nil, fmt.Errorf("%w: %s", ErrInsecureBaseURL, env.APIServerURL)
	}

	return c, nil
}

// URL resolves path against the API base address.
func (c *Client) URL(path string) string {
	u := *c.base
	u.Path = c.base.Path + "/" + strings.TrimLeft(path, "/")
	return u.String()
}

// Health checks the backend readiness endpoint.
func (c *Client) Health(ctx context.Context) error {
	var env envelope
	return c.do(ctx, http.MethodGet, "/healthz", "", nil, &env)
}

// Drinks lists drinks in their short representation. Public endpoint.
func (c *Client) Drinks(ctx context.Context) ([]Drink, error) {
	return c.drinks(ctx, http.MethodGet, "/drinks", "", nil)
}

// DrinksDetail lists drinks in their long representation. Requires the
// get:drinks-detail permission.
func (c *Client) DrinksDetail(ctx context.Context, token string) ([]Drink, error) {
	return c.drinks(ctx, http.MethodGet, "/drinks-detail", token, nil)
}

// CreateDrink creates a drink. Requires the post:drinks permission.
func (c *Client) CreateDrink(ctx context.Context, token string, drink Drink) (Drink, error) {
	payload := drinkPayload{Title: drink.Title, Recipe: drink.Recipe}
	return c.singleDrink(ctx, http.MethodPost, "/drinks", token, payload)
}

// UpdateDrink patches the title and/or recipe of drink id. Empty fields are
// left untouched by the backend. Requires the patch:drinks permission.
func (c *Client) UpdateDrink(ctx context.Context, token string, id int, patch Drink) (Drink, error) {
	payload := drinkPayload{Title: patch.Title, Recipe: patch.Recipe}
	return c.singleDrink(ctx, http.MethodPatch, "/drinks/"+strconv.Itoa(id), token, payload)
}

// DeleteDrink removes drink id. Requires the delete:drinks permission.
func (c *Client) DeleteDrink(ctx context.Context, token string, id int) error {
	var env envelope
	return c.do(ctx, http.MethodDelete, "/drinks/"+strconv.Itoa(id), token, nil, &env)
}

func (c *Client) drinks(ctx context.Context, method, path, token string, body any) ([]Drink, error) {
	var env envelope
	if err := c.do(ctx, method, path, token, body, &env); err != nil {
		return nil, err
	}
	return decodeDrinks(env.Drinks)
}

func (c *Client) singleDrink(ctx context.Context, method, path, token string, body any) (Drink, error) {
	drinks, err := c.drinks(ctx, method, path, token, body)
	if err != nil {
		return Drink{}, err
	}
	if len(drinks) == 0 {
		return Drink{}, fmt.Errorf("%s %s: response carried no drink", method, path)
	}
	return drinks[0], nil
}

func (c *Client) do(ctx context.Context, method, path, token string, body any, out *envelope) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit: %w", err)
		}
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.URL(path), reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("api request completed",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp.StatusCode, data)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if !out.Success {
		return newAPIError(resp.StatusCode, data)
	}
	return nil
}
