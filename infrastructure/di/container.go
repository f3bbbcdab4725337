package di

import (
	"go.uber.org/zap"

	"mindgraph/application/services"
	"mindgraph/infrastructure/config"
	"mindgraph/interfaces/http/rest"
	"mindgraph/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *zap.Logger
	Storage     *Storage
	Store       *services.DocumentStore
	Connections *services.ConnectionService
	Metrics     *observability.Collector
	Router      *rest.Router
}
