package main

import (
	"os"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unsetDatabaseURL(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "")
	require.NoError(t, os.Unsetenv("DATABASE_URL"))
	t.Setenv("JWT_SECRET_KEY", "")
	require.NoError(t, os.Unsetenv("JWT_SECRET_KEY"))
}

func TestOpenEnv_WithoutDatabaseNeedsOnlyRedis(t *testing.T) {
	unsetDatabaseURL(t)
	// Endereço sem servidor: o PING falha, mas o comando segue com o cliente.
	t.Setenv("REDIS_ADDR", "127.0.0.1:1")

	cmd := &cobra.Command{}
	cmd.Flags().BoolP("verbose", "v", false, "")

	e, err := openEnv(cmd, false)

	require.NoError(t, err)
	defer e.Close()
	assert.Nil(t, e.db)
	assert.NotNil(t, e.cache)
	assert.Empty(t, e.cfg.DatabaseURL)
}

func TestOpenEnv_DatabaseRequiredForForecast(t *testing.T) {
	unsetDatabaseURL(t)

	cmd := &cobra.Command{}
	cmd.Flags().BoolP("verbose", "v", false, "")

	_, err := openEnv(cmd, true)

	assert.ErrorIs(t, err, errNoDatabase)
}
