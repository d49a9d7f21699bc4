package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/coffeeshop-env/internal/apiclient"
	"github.com/eugenenazirov/coffeeshop-env/internal/application"
	"github.com/eugenenazirov/coffeeshop-env/internal/authclient"
	"github.com/eugenenazirov/coffeeshop-env/internal/config"
	"github.com/eugenenazirov/coffeeshop-env/internal/environment"
	"github.com/eugenenazirov/coffeeshop-env/internal/logging"
	"github.com/eugenenazirov/coffeeshop-env/internal/render"
)

var signalNotify = signal.Notify

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "envctl: %v\n", err)
		os.Exit(1)
	}
}

type cli struct {
	app *kingpin.Application

	configFile *string
	variant    *string
	logLevel   *string

	show       *kingpin.CmdClause
	showFormat *string

	check *kingpin.CmdClause

	loginURL  *kingpin.CmdClause
	loginPath *string

	ping        *kingpin.CmdClause
	pingTimeout *time.Duration

	serve          *kingpin.CmdClause
	port           *string
	strict         *bool
	strictSet      bool
	rateLimitRPS   *float64
	rateLimitBurst *int
}

func newCLI() *cli {
	app := kingpin.New("envctl", "Coffee shop frontend environment - inspect, check and serve the configuration record")
	app.Version(environment.BuildMode)

	c := &cli{app: app}
	c.configFile = app.Flag("config", "Path to YAML configuration file").String()
	c.variant = app.Flag("variant", "Environment variant ("+strings.Join(environment.Variants(), ", ")+")").String()
	c.logLevel = app.Flag("log-level", "Log level (debug, info, warn, error)").String()

	c.show = app.Command("show", "Print the selected environment record")
	c.showFormat = c.show.Flag("format", "Output format").Default(render.FormatJSON).Enum(render.Formats()...)

	c.check = app.Command("check", "Report empty fields, malformed URLs and unreplaced placeholders")

	c.loginURL = app.Command("login-url", "Print the Auth0 login link for the selected record")
	c.loginPath = c.loginURL.Flag("path", "Path appended to the callback URL").Default("").String()

	c.ping = app.Command("ping", "Check that the record's API server answers its health endpoint")
	c.pingTimeout = c.ping.Flag("timeout", "Request timeout").Default("5s").Duration()

	c.serve = app.Command("serve", "Serve the active record over HTTP")
	c.port = c.serve.Flag("port", "HTTP port exposed by the service").String()
	c.strict = c.serve.Flag("strict", "Refuse to serve records that still carry placeholders").IsSetByUser(&c.strictSet).Bool()
	c.rateLimitRPS = c.serve.Flag("rate-limit-rps", "Requests per second allowed (set 0 to disable)").Default("-1").Float64()
	c.rateLimitBurst = c.serve.Flag("rate-limit-burst", "Burst capacity for rate limiter (set 0 to disable)").Default("-1").Int()

	return c
}

func (c *cli) overrides(command string) *config.CLIOverrides {
	overrides := &config.CLIOverrides{
		ConfigFile: *c.configFile,
	}

	if *c.variant != "" {
		overrides.Variant = c.variant
	}

	if *c.logLevel != "" {
		overrides.LogLevel = c.logLevel
	}

	if command == c.serve.FullCommand() {
		if *c.port != "" {
			overrides.Port = c.port
		}
		if c.strictSet {
			overrides.Strict = c.strict
		}
		if *c.rateLimitRPS >= 0 {
			overrides.RateLimitRPS = c.rateLimitRPS
		}
		if *c.rateLimitBurst >= 0 {
			overrides.RateLimitBurst = c.rateLimitBurst
		}
	}

	return overrides
}

func run(args []string, stdout io.Writer) error {
	c := newCLI()
	command, err := c.app.Parse(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load(c.overrides(command))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	env, err := cfg.Record()
	if err != nil {
		return err
	}

	switch command {
	case c.show.FullCommand():
		return render.Write(stdout, env, *c.showFormat)

	case c.check.FullCommand():
		if err := environment.Check(env); err != nil {
			return fmt.Errorf("variant %s failed checks:\n%w", cfg.Variant, err)
		}
		_, err := fmt.Fprintf(stdout, "variant %s: ok\n", cfg.Variant)
		return err

	case c.loginURL.FullCommand():
		_, err := fmt.Fprintln(stdout, authclient.New(env.Auth0).LoginURL(*c.loginPath))
		return err

	case c.ping.FullCommand():
		logger, err := logging.New(cfg.LogLevel)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		defer func() {
			_ = logger.Sync()
		}()
		return ping(env, logger, *c.pingTimeout, stdout)

	case c.serve.FullCommand():
		return serve(cfg)
	}

	return fmt.Errorf("unknown command %q", command)
}

func ping(env environment.Environment, logger *zap.Logger, timeout time.Duration, stdout io.Writer) error {
	client, err := apiclient.New(env, apiclient.WithLogger(logger))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := client.Health(ctx); err != nil {
		return fmt.Errorf("ping %s: %w", env.APIServerURL, err)
	}
	_, err = fmt.Fprintf(stdout, "%s: ok\n", env.APIServerURL)
	return err
}

func serve(cfg config.Config) error {
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	app, err := application.New(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize application", zap.Error(err))
	}

	if err := app.Start(); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}

	shutdown(app.Server(), cfg.ShutdownGracePeriod, logger)
	return nil
}

func shutdown(server *http.Server, timeout time.Duration, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("forced close failed", zap.Error(closeErr))
		}
	}
}
