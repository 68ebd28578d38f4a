package migrate

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

func sqliteConfig(t *testing.T, autoMigrate bool) *config.Config {
	t.Helper()
	return &config.Config{
		App: config.AppConfig{Env: config.AppEnvDev},
		DB: config.DBConfig{
			Driver: config.DBDriverSQLite,
			DSN:    "file:" + filepath.Join(t.TempDir(), "storefront.db"),
		},
		FeatureFlags: config.FeatureFlagsConfig{AutoMigrate: autoMigrate},
	}
}

func TestMaybeRunDevAutoMigratesSQLite(t *testing.T) {
	ctx := context.Background()
	cfg := sqliteConfig(t, true)
	client, err := db.New(ctx, cfg.DB, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, MaybeRunDev(ctx, cfg, logger.Nop(), client))

	for _, model := range models.All() {
		assert.True(t, client.DB().Migrator().HasTable(model))
	}
}

func TestMaybeRunDevSkipsWhenDisabled(t *testing.T) {
	ctx := context.Background()
	cfg := sqliteConfig(t, false)
	client, err := db.New(ctx, cfg.DB, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, MaybeRunDev(ctx, cfg, logger.Nop(), client))

	assert.False(t, client.DB().Migrator().HasTable(&models.User{}))
}
