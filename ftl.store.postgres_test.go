package ftl

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPostgresConfig(t *testing.T) {
	cfg := DefaultPostgresConfig()

	assert.Equal(t, PostgresDefaultMaxOpenConns, cfg.MaxOpenConns)
	assert.Equal(t, PostgresDefaultMaxIdleConns, cfg.MaxIdleConns)
	assert.Equal(t, PostgresDefaultConnMaxLifetime, cfg.ConnMaxLifetime)
	assert.Equal(t, PostgresDefaultConnMaxIdleTime, cfg.ConnMaxIdleTime)
	assert.Equal(t, PostgresTablePrefix, cfg.TablePrefix)
	assert.Equal(t, PostgresDefaultQueryTimeout, cfg.QueryTimeout)
	assert.False(t, cfg.AutoMigrate)
	assert.Empty(t, cfg.ConnectionString)
}

func TestPostgresConfig_WithDefaults(t *testing.T) {
	cfg := PostgresConfig{ConnectionString: "postgres://localhost/test", MaxOpenConns: 3, TablePrefix: "x_"}.withDefaults()

	assert.Equal(t, 3, cfg.MaxOpenConns)
	assert.Equal(t, "x_", cfg.TablePrefix)
	assert.Equal(t, PostgresDefaultMaxIdleConns, cfg.MaxIdleConns)
	assert.Equal(t, PostgresDefaultQueryTimeout, cfg.QueryTimeout)

	store := &PostgresStore{config: cfg}
	assert.Equal(t, "x_documents", store.tableName())
	assert.Equal(t, "x_schema_migrations", store.migrationsTableName())
}

func TestPostgresStore_EmptyConnectionString(t *testing.T) {
	_, err := NewPostgresStore(PostgresConfig{})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
	assert.Contains(t, err.Error(), ErrMsgPostgresEmptyConnString)
}

func TestPostgresStore_InvalidConnectionString(t *testing.T) {
	_, err := NewPostgresStore(PostgresConfig{ConnectionString: "invalid://not-a-valid-connection-string"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrMsgPostgresConnectionFailed)
}
