package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"carrent/pkg/config"
	"carrent/pkg/contracts"
	"carrent/pkg/middleware"

	"github.com/julienschmidt/httprouter"
)

type shutdownHook struct {
	name string
	fn   func(ctx context.Context) error
}

// Application serves the ops endpoints and tears the process down in order
// on SIGINT/SIGTERM.
type Application struct {
	cfg     *config.Config
	server  *http.Server
	handler http.Handler
	hooks   []shutdownHook
}

func NewApplication(cfg *config.Config) *Application {
	return &Application{cfg: cfg}
}

func (a *Application) SetApp(handlers ...contracts.Handler) {
	router := httprouter.New()
	for _, h := range handlers {
		h.RegisterRoutes(router)
	}

	var opsHandler http.Handler = router
	opsHandler = middleware.RequestTimeout(a.cfg.RequestTimeout)(opsHandler)
	opsHandler = middleware.RequestLogging(a.cfg.Log)(opsHandler)
	opsHandler = middleware.Recovery(a.cfg.Log)(opsHandler)
	a.handler = opsHandler
	a.cfg.Log.Info("Ops endpoints configured with minimal middleware (Recovery + Logging + Timeout)")

	a.server = &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      a.handler,
		ReadTimeout:  a.cfg.ReadTimeout,
		WriteTimeout: a.cfg.WriteTimeout,
		IdleTimeout:  a.cfg.IdleTimeout,
	}
	a.cfg.Log.Info("HTTP server configured", "port", a.cfg.Port)
}

func (a *Application) Handler() http.Handler {
	return a.handler
}

// OnShutdown registers fn to run after the HTTP server stops. Hooks run in
// registration order.
func (a *Application) OnShutdown(name string, fn func(ctx context.Context) error) {
	a.hooks = append(a.hooks, shutdownHook{name: name, fn: fn})
}

// Run serves until a shutdown signal arrives or ctx is done, then shuts down.
func (a *Application) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", a.server.Addr, err)
	}
	return a.Serve(ctx, listener)
}

func (a *Application) Serve(ctx context.Context, listener net.Listener) error {
	serverErrors := make(chan error, 1)

	go func() {
		a.cfg.Log.Info("Starting HTTP server", "address", listener.Addr().String())
		serverErrors <- a.server.Serve(listener)
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		return errors.Join(err, a.runHooks())

	case sig := <-shutdown:
		a.cfg.Log.Info("Shutdown signal received", "signal", sig)

	case <-ctx.Done():
		a.cfg.Log.Info("Shutdown requested", "reason", context.Cause(ctx))
	}

	return a.gracefulShutdown()
}

func (a *Application) gracefulShutdown() error {
	a.cfg.Log.Info("Starting graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.server.Shutdown(ctx); err != nil {
		a.cfg.Log.Error("Server shutdown failed", "error", err)
		if err := a.server.Close(); err != nil {
			errs = append(errs, fmt.Errorf("could not stop server gracefully: %w", err))
		}
	}
	a.cfg.Log.Info("Server stopped gracefully")

	errs = append(errs, a.runHooks())
	return errors.Join(errs...)
}

func (a *Application) runHooks() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	var errs []error
	for _, hook := range a.hooks {
		if err := hook.fn(ctx); err != nil {
			a.cfg.Log.Error("Shutdown step failed", "step", hook.name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", hook.name, err))
			continue
		}
		a.cfg.Log.Info("Shutdown step completed", "step", hook.name)
	}
	return errors.Join(errs...)
}
