package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/estaleiro?sslmode=disable")
	t.Setenv("JWT_SECRET_KEY", "segredo")

	cfg := LoadConfig()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 5*time.Second, cfg.DBTimeout)
	assert.Equal(t, 300*time.Second, cfg.SLACacheTTL)
	assert.Equal(t, "picking:events", cfg.PickingChannel)
	assert.Equal(t, 3, cfg.ForecastHorizonDays)
	assert.Equal(t, "America/Sao_Paulo", cfg.FactoryTimezone)
	assert.Equal(t, 30*time.Second, cfg.SSEHeartbeat)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/estaleiro")
	t.Setenv("JWT_SECRET_KEY", "segredo")
	t.Setenv("FORECAST_HORIZON_DAYS", "5")
	t.Setenv("DB_TIMEOUT_SEC", "2")
	t.Setenv("RATE_LIMIT_MAX_REQUESTS", "abc") // inválido: mantém o padrão

	cfg := LoadConfig()

	assert.Equal(t, 5, cfg.ForecastHorizonDays)
	assert.Equal(t, 2*time.Second, cfg.DBTimeout)
	assert.Equal(t, 100, cfg.RateLimitMaxRequests)
}

func TestConfig_Location(t *testing.T) {
	cfg := &Config{FactoryTimezone: "UTC"}
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)

	cfg.FactoryTimezone = "Marte/Olympus"
	_, err = cfg.Location()
	assert.Error(t, err)
}

func TestLoadToolConfig_DoesNotRequireDatabaseOrSecret(t *testing.T) {
	// t.Setenv restaura o valor original ao fim do teste.
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET_KEY", "")
	require.NoError(t, os.Unsetenv("DATABASE_URL"))
	require.NoError(t, os.Unsetenv("JWT_SECRET_KEY"))
	t.Setenv("REDIS_ADDR", "redis:6379")

	cfg := LoadToolConfig()

	assert.Empty(t, cfg.DatabaseURL)
	assert.Empty(t, cfg.JWTSecretKey)
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.Equal(t, 300*time.Second, cfg.SLACacheTTL)
}
