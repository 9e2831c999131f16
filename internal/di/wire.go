//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"github.com/seankirtman/buy-the-dip-tracker/pkg/config"
	"github.com/seankirtman/buy-the-dip-tracker/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire generates the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,

		// Cache layers
		ProvideCacheStore,
		ProvideCacheService,
		ProvideEventsCache,

		// Provider plumbing
		ProvideRateLimiter,
		ProvideMetrics,

		// Pipeline and HTTP surface
		ProvidePipeline,
		ProvideEventsHandler,

		ProvideApp,
	)
	return &server.App{}, nil
}
