package di

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mindgraph/infrastructure/config"
	"mindgraph/infrastructure/messaging/eventbridge"
	"mindgraph/infrastructure/messaging/local"
)

func TestProvideStorage(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		cfg     config.Config
		wantErr bool
	}{
		{name: "memory", cfg: config.Config{StorageBackend: config.BackendMemory}},
		{name: "file", cfg: config.Config{StorageBackend: config.BackendFile, DataFile: filepath.Join(dir, "data.json")}},
		{name: "sqlite", cfg: config.Config{StorageBackend: config.BackendSQLite, DatabaseDSN: filepath.Join(dir, "mindgraph.db")}},
		{name: "unknown", cfg: config.Config{StorageBackend: "tape"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage, cleanup, err := ProvideStorage(context.Background(), &tt.cfg, nil, zap.NewNop())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			t.Cleanup(cleanup)

			require.NotNil(t, storage.Documents)
			require.NotNil(t, storage.Keywords)
			assert.NoError(t, storage.Health.Ping(context.Background()))

			docs, err := storage.Documents.ListByOwner(context.Background(), "alice")
			require.NoError(t, err)
			assert.Empty(t, docs)
		})
	}
}

func TestProvideEventPublisher(t *testing.T) {
	publisher := ProvideEventPublisher(&config.Config{}, nil, zap.NewNop())
	assert.IsType(t, &local.Publisher{}, publisher)

	publisher = ProvideEventPublisher(&config.Config{EnableEvents: true, EventBusName: "bus"}, nil, zap.NewNop())
	assert.IsType(t, &eventbridge.Publisher{}, publisher)
}

func TestProvideAuth(t *testing.T) {
	validator, err := ProvideJWTValidator(&config.Config{})
	require.NoError(t, err)
	assert.Nil(t, validator)

	validator, err = ProvideJWTValidator(&config.Config{JWTSecret: "s", JWTIssuer: "mindgraph"})
	require.NoError(t, err)
	assert.NotNil(t, validator)

	assert.Nil(t, ProvideRateLimiter(&config.Config{}))
	assert.NotNil(t, ProvideRateLimiter(&config.Config{RateLimitPerMinute: 10}))
}

func TestProvideLogger(t *testing.T) {
	logger, err := ProvideLogger(&config.Config{Environment: "production", LogLevel: "warn"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.InfoLevel))

	_, err = ProvideLogger(&config.Config{LogLevel: "loud"})
	assert.Error(t, err)
}
