package main

import (
	"os"
	osSignal "os/signal"
	"syscall"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/coffeeshop-env/internal/application"
	"github.com/eugenenazirov/coffeeshop-env/internal/config"
	"github.com/eugenenazirov/coffeeshop-env/internal/environment"
)

func TestShutdownOnSignal(t *testing.T) {
	t.Cleanup(func() {
		signalNotify = osSignal.Notify
	})

	signalNotify = func(ch chan<- os.Signal, sig ...os.Signal) {
		go func() {
			ch <- syscall.SIGTERM
		}()
	}

	logger := zaptest.NewLogger(t)
	app, err := application.New(config.Config{
		Variant:             environment.VariantDevelopment,
		Port:                "127.0.0.1:0",
		ShutdownGracePeriod: time.Second,
		ReadHeaderTimeout:   time.Second,
		LogLevel:            "info",
	}, logger)
	if err != nil {
		t.Fatalf("application.New returned error: %v", err)
	}

	called := make(chan struct{}, 1)
	app.Server().RegisterOnShutdown(func() {
		called <- struct{}{}
	})

	shutdown(app.Server(), time.Millisecond, logger)

	select {
	case <-called:
	case <-time.After(time.Second):
		t.Fatalf("expected server shutdown callback to execute")
	}
}
