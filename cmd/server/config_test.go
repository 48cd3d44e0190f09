package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/crm")
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("FILTER_STATEMENT_TIMEOUT", "")
	t.Setenv("CUSTOM_FIELD_CACHE", "")

	cfg, err := loadConfig()
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/crm", cfg.DatabaseURL)
	assert.NotEmpty(t, cfg.JWTSecret)
	assert.False(t, cfg.CustomFieldCache)
	assert.Equal(t, 10*time.Second, cfg.FilterStatementTimeout)
	assert.True(t, cfg.development())
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://db/crm")
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("JWT_TTL", "2h")
	t.Setenv("DB_MAX_CONNS", "50")
	t.Setenv("CUSTOM_FIELD_CACHE", "true")
	t.Setenv("FILTER_STATEMENT_TIMEOUT", "bogus")

	cfg, err := loadConfig()
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.Equal(t, 2*time.Hour, cfg.JWTTTL)
	assert.Equal(t, int32(50), cfg.DBMaxConns)
	assert.True(t, cfg.CustomFieldCache)
	assert.Equal(t, 10*time.Second, cfg.FilterStatementTimeout)
	assert.False(t, cfg.development())
}

func TestLoadConfig_RequiredVariables(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	_, err := loadConfig()
	assert.ErrorContains(t, err, "DATABASE_URL")

	t.Setenv("DATABASE_URL", "postgres://db/crm")
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")
	_, err = loadConfig()
	assert.ErrorContains(t, err, "JWT_SECRET")
}
