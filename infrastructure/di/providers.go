package di

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"

	"partdocs/application/ports"
	"partdocs/domain/core/entities"
	"partdocs/infrastructure/config"
	"partdocs/infrastructure/messaging/eventbridge"
	"partdocs/infrastructure/persistence"
	"partdocs/infrastructure/persistence/dynamodb"
	"partdocs/interfaces/http/rest"
	"partdocs/interfaces/http/rest/handlers"
	pkgerrors "partdocs/pkg/errors"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideContainerClient creates the DynamoDB-backed container client
func ProvideContainerClient(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.ContainerClient {
	return dynamodb.NewContainer(client, cfg.TableName, logger)
}

// ProvideChangePublisher creates the change publisher. Events are optional;
// a nil publisher disables them.
func ProvideChangePublisher(client *awseventbridge.Client, cfg *config.Config, logger *zap.Logger) ports.ChangePublisher {
	if !cfg.EnableEvents || cfg.EventBusName == "" {
		return nil
	}
	return eventbridge.NewPublisher(client, cfg.EventBusName, logger)
}

// ProvideTitleRepository assembles the title repository from configuration
func ProvideTitleRepository(
	container ports.ContainerClient,
	publisher ports.ChangePublisher,
	cfg *config.Config,
	logger *zap.Logger,
) *persistence.Repository[*entities.Title] {
	opts := []persistence.Option[*entities.Title]{
		persistence.WithRequestOptions[*entities.Title](ports.RequestOptions{
			ConsistentRead: cfg.ConsistentReads,
		}),
	}
	if len(cfg.PartitionProperties) > 0 {
		opts = append(opts, persistence.WithPartitionProperties[*entities.Title](cfg.PartitionProperties...))
	}
	if publisher != nil {
		opts = append(opts, persistence.WithChangePublisher[*entities.Title](publisher))
	}

	return persistence.NewRepository[*entities.Title](
		container,
		persistence.NewJSONSerializer[*entities.Title](),
		logger,
		opts...,
	)
}

// ProvideErrorHandler creates the shared HTTP error handler
func ProvideErrorHandler(cfg *config.Config, logger *zap.Logger) *pkgerrors.ErrorHandler {
	return pkgerrors.NewErrorHandler(logger, cfg.Environment != "production")
}

// ProvideTitleHandler creates the title REST handler
func ProvideTitleHandler(
	repo *persistence.Repository[*entities.Title],
	errorHandler *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *handlers.TitleHandler {
	return handlers.NewTitleHandler(repo, errorHandler, logger)
}

// ProvideRouter creates the HTTP router
func ProvideRouter(cfg *config.Config, titles *handlers.TitleHandler, logger *zap.Logger) *rest.Router {
	return rest.NewRouter(cfg, titles, logger)
}
