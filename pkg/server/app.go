package server

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	pkgcache "github.com/seankirtman/buy-the-dip-tracker/pkg/cache"
	"github.com/seankirtman/buy-the-dip-tracker/pkg/config"
	xhttp "github.com/seankirtman/buy-the-dip-tracker/pkg/http"
	applogger "github.com/seankirtman/buy-the-dip-tracker/pkg/logger"
)

// App encapsulates the application lifecycle: the HTTP server plus the
// shared cache store behind it.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	handler    xhttp.Handler
	store      pkgcache.Store
	httpServer *xhttp.Server
}

// New creates an App with all dependencies.
func New(cfg *config.Config, log *applogger.Logger, handler xhttp.Handler, store pkgcache.Store) *App {
	return &App{
		cfg:     cfg,
		log:     log,
		handler: handler,
		store:   store,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(a.log),
	)

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("server started",
		applogger.Int("port", a.cfg.Server.Port),
		applogger.String("benchmark", a.cfg.Pipeline.Benchmark),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown gracefully stops the HTTP server and closes the cache store.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if closer, ok := a.store.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			a.log.Warn("cache close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
