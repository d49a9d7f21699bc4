package application

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/eugenenazirov/coffeeshop-env/internal/api"
	"github.com/eugenenazirov/coffeeshop-env/internal/config"
	"github.com/eugenenazirov/coffeeshop-env/internal/environment"
	"github.com/eugenenazirov/coffeeshop-env/internal/storage"
)

// App encapsulates the application dependencies and HTTP server.
type App struct {
	storage storage.Storage
	handler *api.Handler
	router  http.Handler
	logger  *zap.Logger
	server  *http.Server
}

// New initializes the application with all dependencies from the provided configuration.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	store := storage.NewMemoryStorage()
	if err := store.SetActive(cfg.Variant); err != nil {
		return nil, fmt.Errorf("failed to select variant: %w", err)
	}

	if cfg.Strict {
		_, env := store.Active()
		if err := environment.Check(env); err != nil {
			return nil, fmt.Errorf("variant %s is not deployable: %w", cfg.Variant, err)
		}
	}

	handler := api.NewHandler(store, api.WithStrict(cfg.Strict))
	apiRouter := api.NewRouter(handler, logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
		api.WithAllowedOrigins(frontendOrigins(store)...),
	)

	server := NewServer(cfg, BuildRootHandler(apiRouter))

	return &App{
		storage: store,
		handler: handler,
		router:  apiRouter,
		logger:  logger,
		server:  server,
	}, nil
}

// BuildRootHandler constructs the root HTTP handler that routes API and
// environment file requests and answers everything else with 404.
func BuildRootHandler(apiHandler http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/", apiHandler)
	mux.Handle("/environment.json", apiHandler)
	mux.Handle("/", http.NotFoundHandler())
	return mux
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	addr := cfg.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Start starts the HTTP server in a goroutine and logs the listening address.
func (a *App) Start() error {
	variant, _ := a.storage.Active()
	go func() {
		a.logger.Info("server listening",
			zap.String("addr", a.server.Addr),
			zap.String("variant", variant),
		)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}

// frontendOrigins collects the origins of every variant's callback URL; the
// frontend runs there and fetches its environment cross-origin.
func frontendOrigins(store storage.Storage) []string {
	var origins []string
	for _, name := range store.Names() {
		env, err := store.Get(name)
		if err != nil {
			continue
		}
		u, err := url.Parse(env.Auth0.CallbackURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			continue
		}
		origin := u.Scheme + "://" + u.Host
		if !slices.Contains(origins, origin) {
			origins = append(origins, origin)
		}
	}
	return origins
}
