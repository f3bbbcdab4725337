//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"mindgraph/application/ports"
	"mindgraph/infrastructure/cache"
	"mindgraph/infrastructure/config"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideDomainConfig,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideStorage,
	ProvideEventPublisher,
	ProvideMetrics,
	ProvideCache,
	wire.Bind(new(ports.Cache), new(*cache.InMemoryCache)),
	ProvideAnalyzer,
	ProvideDocumentStore,
	ProvideConnectionService,
	ProvideJWTValidator,
	ProvideRateLimiter,
	ProvideRouter,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil
}
