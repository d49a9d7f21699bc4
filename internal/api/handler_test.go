package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/coffeeshop-env/internal/environment"
	"github.com/eugenenazirov/coffeeshop-env/internal/storage"
)

type controllableClock struct {
	mu  sync.RWMutex
	now time.Time
}

func newControllableClock(initial time.Time) *controllableClock {
	return &controllableClock{now: initial}
}

func (c *controllableClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

func (c *controllableClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func setupTestRouter(t *testing.T, opts ...HandlerOption) (http.Handler, *controllableClock) {
	t.Helper()

	store := storage.NewMemoryStorage()
	clock := newControllableClock(time.Date(2024, 11, 1, 12, 0, 0, 0, time.UTC))

	handler := NewHandler(store, append([]HandlerOption{WithClock(clock.Now)}, opts...)...)
	logger := zaptest.NewLogger(t)
	router := NewRouter(handler, logger, WithLogging(false))

	return router, clock
}

func putVariant(t *testing.T, router http.Handler, variant string) *httptest.ResponseRecorder {
	t.Helper()

	data, err := json.Marshal(map[string]string{"variant": variant})
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPut, "/api/environment", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRequestIDHelpers(t *testing.T) {
	ctx := contextWithRequestID(context.Background(), "abc")
	if got := requestIDFromContext(ctx); got != "abc" {
		t.Fatalf("expected abc, got %s", got)
	}
	resp := httptest.NewRecorder()
	writeInternalError(resp, assertError("boom"))
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 status, got %d", resp.Code)
	}
}

type assertError string

func (a assertError) Error() string { return string(a) }

func TestHealthEndpoint(t *testing.T) {
	router, clock := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body struct {
		Status    string    `json:"status"`
		Timestamp time.Time `json:"timestamp"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if body.Status != "ok" {
		t.Fatalf("expected status ok, got %s", body.Status)
	}
	if !body.Timestamp.Equal(clock.Now()) {
		t.Fatalf("expected timestamp %s, got %s", clock.Now(), body.Timestamp)
	}
}

func TestGetEnvironmentReturnsBundledRecord(t *testing.T) {
	router, clock := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/environment", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body struct {
		Variant     string                  `json:"variant"`
		Environment environment.Environment `json:"environment"`
		UpdatedAt   time.Time               `json:"updatedAt"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if body.Variant != environment.BuildMode {
		t.Fatalf("expected variant %s, got %s", environment.BuildMode, body.Variant)
	}
	if body.Environment != environment.Current() {
		t.Fatalf("expected bundled record, got %+v", body.Environment)
	}
	if !body.UpdatedAt.Equal(clock.Now()) {
		t.Fatalf("expected updatedAt %s, got %s", clock.Now(), body.UpdatedAt)
	}
}

func TestEnvironmentFileUsesFrontendKeys(t *testing.T) {
	router, _ := setupTestRouter(t)
	if rec := putVariant(t, router, "development"); rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/environment.json", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["apiServerUrl"] != "http://coffe-shop-api:5000" {
		t.Fatalf("unexpected apiServerUrl %v", body["apiServerUrl"])
	}
	if body["production"] != false {
		t.Fatalf("unexpected production flag %v", body["production"])
	}
	auth0, ok := body["auth0"].(map[string]any)
	if !ok {
		t.Fatalf("expected auth0 object, got %T", body["auth0"])
	}
	if auth0["url"] != "testmacina.eu" || auth0["callbackURL"] != "http://localhost:8100" {
		t.Fatalf("unexpected auth0 settings %v", auth0)
	}
}

func TestListEnvironments(t *testing.T) {
	router, _ := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/environments", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body struct {
		Variants []string `json:"variants"`
		Active   string   `json:"active"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body.Variants) != len(environment.Variants()) {
		t.Fatalf("expected %v, got %v", environment.Variants(), body.Variants)
	}
	if body.Active != environment.BuildMode {
		t.Fatalf("expected active %s, got %s", environment.BuildMode, body.Active)
	}
}

func TestPutEnvironmentSwitchesVariant(t *testing.T) {
	router, clock := setupTestRouter(t)

	clock.Advance(time.Hour)

	rec := putVariant(t, router, "prod")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body struct {
		Variant     string                  `json:"variant"`
		Environment environment.Environment `json:"environment"`
		UpdatedAt   time.Time               `json:"updatedAt"`
		Message     string                  `json:"message"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if body.Message == "" {
		t.Fatalf("expected success message, got empty string")
	}
	if body.Variant != environment.VariantProduction || !body.Environment.Production {
		t.Fatalf("expected production to be active, got %s", body.Variant)
	}
	if !body.UpdatedAt.Equal(clock.Now()) {
		t.Fatalf("expected updatedAt %s, got %s", clock.Now(), body.UpdatedAt)
	}
}

func TestPutEnvironmentValidatesInput(t *testing.T) {
	router, _ := setupTestRouter(t)

	cases := map[string]string{
		"empty":   "",
		"unknown": "staging",
	}
	for name, variant := range cases {
		t.Run(name, func(t *testing.T) {
			if rec := putVariant(t, router, variant); rec.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d", rec.Code)
			}
		})
	}

	t.Run("malformed json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/api/environment", bytes.NewReader([]byte("{")))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", rec.Code)
		}
	})
}

func TestPutEnvironmentStrictRejectsPlaceholders(t *testing.T) {
	router, _ := setupTestRouter(t, WithStrict(true))

	rec := putVariant(t, router, "production")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", rec.Code)
	}

	var body errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Suggestion == "" {
		t.Fatalf("expected a suggestion for placeholder errors")
	}

	if rec := putVariant(t, router, "development"); rec.Code != http.StatusOK {
		t.Fatalf("expected development to pass strict checks, got %d", rec.Code)
	}
}

func TestConcurrentSwitchesReportTheirOwnStamp(t *testing.T) {
	var (
		mu    sync.Mutex
		ticks int
	)
	base := time.Date(2024, 11, 1, 12, 0, 0, 0, time.UTC)
	ticking := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		ticks++
		return base.Add(time.Duration(ticks) * time.Second)
	}

	handler := NewHandler(storage.NewMemoryStorage(), WithClock(ticking))
	router := NewRouter(handler, zaptest.NewLogger(t), WithLogging(false), WithRateLimit(0, 0))

	type result struct {
		variant   string
		updatedAt time.Time
	}
	results := make(chan result, 40)
	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			want := environment.VariantDevelopment
			if i%2 == 0 {
				want = environment.VariantProduction
			}
			data, _ := json.Marshal(map[string]string{"variant": want})
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/environment", bytes.NewReader(data)))

			var body struct {
				Variant   string    `json:"variant"`
				UpdatedAt time.Time `json:"updatedAt"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Errorf("decode: %v", err)
				return
			}
			if body.Variant != want {
				t.Errorf("requested %s, response reported %s", want, body.Variant)
			}
			results <- result{body.Variant, body.UpdatedAt}
		}(i)
	}
	wg.Wait()
	close(results)

	seen := make(map[time.Time]string)
	for r := range results {
		if prev, dup := seen[r.updatedAt]; dup {
			t.Fatalf("stamp %s reported for both %s and %s", r.updatedAt, prev, r.variant)
		}
		seen[r.updatedAt] = r.variant
	}

	name, _, updatedAt := handler.activeSnapshot()
	if seen[updatedAt] != name {
		t.Fatalf("active %s carries stamp %s that belongs to %q", name, updatedAt, seen[updatedAt])
	}
}
