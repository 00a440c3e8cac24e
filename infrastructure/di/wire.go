//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"
	"go.uber.org/zap"

	"partdocs/application/ports"
	"partdocs/domain/core/entities"
	"partdocs/infrastructure/config"
	"partdocs/infrastructure/persistence"
	"partdocs/interfaces/http/rest"
)

// Container holds all application dependencies
type Container struct {
	Config    *config.Config
	Logger    *zap.Logger
	Store     ports.ContainerClient
	Publisher ports.ChangePublisher
	TitleRepo *persistence.Repository[*entities.Title]
	Router    *rest.Router
}

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideContainerClient,
	ProvideChangePublisher,
	ProvideTitleRepository,
	ProvideErrorHandler,
	ProvideTitleHandler,
	ProvideRouter,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil // Wire will replace this
}
