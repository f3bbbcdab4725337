package di

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"mindgraph/application/ports"
	"mindgraph/application/services"
	"mindgraph/domain/analysis"
	domainconfig "mindgraph/domain/config"
	"mindgraph/infrastructure/cache"
	"mindgraph/infrastructure/config"
	"mindgraph/infrastructure/messaging/eventbridge"
	"mindgraph/infrastructure/messaging/local"
	"mindgraph/infrastructure/persistence/dynamodb"
	"mindgraph/infrastructure/persistence/file"
	"mindgraph/infrastructure/persistence/memory"
	"mindgraph/infrastructure/persistence/redis"
	"mindgraph/infrastructure/persistence/sql"
	"mindgraph/interfaces/http/rest"
	"mindgraph/pkg/auth"
	"mindgraph/pkg/observability"
)

// Storage groups the repositories of the configured backend
type Storage struct {
	Documents ports.DocumentRepository
	Keywords  ports.KeywordRepository
	Health    ports.HealthChecker
}

type storageBackend interface {
	ports.DocumentRepository
	ports.KeywordRepository
	ports.HealthChecker
}

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}

// ProvideDomainConfig selects the domain rules for the environment
func ProvideDomainConfig(cfg *config.Config) *domainconfig.DomainConfig {
	return cfg.DomainConfig()
}

// ProvideAWSConfig creates AWS configuration. No request is made until a
// client is used, so non-AWS backends pay nothing for it.
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

// ProvideStorage opens the backend named by STORAGE_BACKEND
func ProvideStorage(ctx context.Context, cfg *config.Config, client *awsdynamodb.Client, logger *zap.Logger) (*Storage, func(), error) {
	backend, closer, err := openBackend(ctx, cfg, client, logger)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		if closer == nil {
			return
		}
		if err := closer.Close(); err != nil {
			logger.Warn("Failed to close storage", zap.String("backend", cfg.StorageBackend), zap.Error(err))
		}
	}

	logger.Info("Storage backend ready", zap.String("backend", cfg.StorageBackend))
	return &Storage{Documents: backend, Keywords: backend, Health: backend}, cleanup, nil
}

func openBackend(ctx context.Context, cfg *config.Config, client *awsdynamodb.Client, logger *zap.Logger) (storageBackend, io.Closer, error) {
	switch cfg.StorageBackend {
	case config.BackendMemory:
		return memory.NewRepository(), nil, nil
	case config.BackendFile:
		return file.NewRepository(cfg.DataFile, logger), nil, nil
	case config.BackendDynamoDB:
		return dynamodb.NewDocumentRepository(client, cfg.DynamoDBTable, cfg.IndexName, logger), nil, nil
	case config.BackendRedis:
		rdb, err := redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		repo := redis.NewRepository(rdb, logger)
		return repo, repo, nil
	case config.BackendSQLite, config.BackendPostgres:
		db, err := sql.Open(cfg.StorageBackend, cfg.DatabaseDSN)
		if err != nil {
			return nil, nil, err
		}
		repo := sql.NewRepository(db, logger)
		return repo, repo, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

// ProvideEventPublisher publishes to EventBridge when events are enabled and
// in-process otherwise
func ProvideEventPublisher(cfg *config.Config, client *awseventbridge.Client, logger *zap.Logger) ports.EventPublisher {
	if cfg.EnableEvents {
		return eventbridge.NewPublisher(client, cfg.EventBusName, logger)
	}
	return local.NewPublisher(logger)
}

// ProvideMetrics creates the Prometheus collector
func ProvideMetrics() *observability.Collector {
	return observability.NewCollector("mindgraph")
}

// ProvideCache creates the analysis cache
func ProvideCache(cfg *config.Config) (*cache.InMemoryCache, func()) {
	c := cache.NewInMemoryCache(cfg.CacheSweepInterval)
	return c, c.Close
}

// ProvideAnalyzer creates the connection analyzer
func ProvideAnalyzer(dc *domainconfig.DomainConfig, logger *zap.Logger) *analysis.Analyzer {
	return analysis.NewAnalyzer(dc, logger.Named("analysis"))
}

// ProvideDocumentStore creates the document store
func ProvideDocumentStore(
	storage *Storage,
	publisher ports.EventPublisher,
	analyzer *analysis.Analyzer,
	dc *domainconfig.DomainConfig,
	metrics *observability.Collector,
	logger *zap.Logger,
) *services.DocumentStore {
	return services.NewDocumentStore(storage.Documents, storage.Keywords, publisher, analyzer, dc, metrics, logger.Named("store"))
}

// ProvideConnectionService creates the connection service
func ProvideConnectionService(
	store *services.DocumentStore,
	analyzer *analysis.Analyzer,
	c ports.Cache,
	metrics *observability.Collector,
	logger *zap.Logger,
) *services.ConnectionService {
	return services.NewConnectionService(store, analyzer, c, metrics, logger.Named("connections"))
}

// ProvideJWTValidator creates the token validator. Without a secret only
// gateway-authorized requests are accepted.
func ProvideJWTValidator(cfg *config.Config) (*auth.JWTValidator, error) {
	if cfg.JWTSecret == "" {
		return nil, nil
	}
	return auth.NewJWTValidator(auth.JWTConfig{
		SigningMethod: "HS256",
		SecretKey:     cfg.JWTSecret,
		Issuer:        cfg.JWTIssuer,
	})
}

// ProvideRateLimiter creates the per-owner limiter, or none when disabled
func ProvideRateLimiter(cfg *config.Config) auth.RateLimiter {
	if cfg.RateLimitPerMinute <= 0 {
		return nil
	}
	return auth.NewOwnerRateLimiter(cfg.RateLimitPerMinute)
}

// ProvideRouter creates the HTTP router
func ProvideRouter(
	cfg *config.Config,
	store *services.DocumentStore,
	connections *services.ConnectionService,
	storage *Storage,
	metrics *observability.Collector,
	validator *auth.JWTValidator,
	limiter auth.RateLimiter,
	logger *zap.Logger,
) *rest.Router {
	return rest.NewRouter(store, connections, storage.Health, metrics, rest.Options{
		Validator:      validator,
		TrustGateway:   cfg.TrustGateway || cfg.IsLambda,
		Limiter:        limiter,
		AllowedOrigins: cfg.AllowedOrigins,
		EnableCORS:     cfg.EnableCORS,
		EnableMetrics:  cfg.EnableMetrics,
		Debug:          cfg.IsDevelopment(),
	}, logger.Named("http"))
}
