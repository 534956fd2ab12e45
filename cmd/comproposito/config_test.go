package main

import (
	"os"
	"path/filepath"
	"testing"

	"comproposito/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func runLoadConfig(t *testing.T, args ...string) (*types.Config, error) {
	t.Helper()

	var (
		cfg     *types.Config
		loadErr error
	)
	app := &cli.App{
		Name:  "comproposito",
		Flags: globalFlags,
		Action: func(c *cli.Context) error {
			cfg, loadErr = loadConfig(c)
			return nil
		},
	}
	require.NoError(t, app.Run(append([]string{"comproposito"}, args...)))

	return cfg, loadErr
}

func TestLoadConfigFromPrefixedEnv(t *testing.T) {
	t.Setenv("CPTEST_DATABASE_URL", "postgres://localhost/comproposito")
	t.Setenv("CPTEST_RESET_CODE_MAX_ATTEMPTS", "5")

	cfg, err := runLoadConfig(t, "--env-prefix", "CPTEST", "--env-file", "")
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/comproposito", cfg.DatabaseURL)
	assert.Equal(t, 5, cfg.ResetCodeMaxAttempts)
	assert.Equal(t, uint(8080), cfg.ServerPort)
	assert.Equal(t, 15, int(cfg.ResetCodeTTLMin))
	assert.Equal(t, "eur", cfg.DonationCurrency)
	assert.Equal(t, "s3", cfg.StorageBackend)
}

func TestLoadConfigRequiresDatabaseURL(t *testing.T) {
	// unprefixed names are the fallback lookup
	t.Setenv("DATABASE_URL", "")

	_, err := runLoadConfig(t, "--env-prefix", "CPTEST_EMPTY", "--env-file", filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoadConfigReadsDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("CPDOTENV_DATABASE_URL=postgres://dotenv/db\nCPDOTENV_SERVER_PORT=9090\n"), 0o600))
	t.Cleanup(func() {
		_ = os.Unsetenv("CPDOTENV_DATABASE_URL")
		_ = os.Unsetenv("CPDOTENV_SERVER_PORT")
	})

	cfg, err := runLoadConfig(t, "--env-prefix", "CPDOTENV", "--env-file", path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://dotenv/db", cfg.DatabaseURL)
	assert.Equal(t, uint(9090), cfg.ServerPort)
}

func TestValidateServeConfig(t *testing.T) {
	err := validateServeConfig(&types.Config{CookieHashKey: "a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COOKIE_BLOCK_KEY")
	assert.Contains(t, err.Error(), "COGNITO_ISSUER_URL")
	assert.NotContains(t, err.Error(), "COOKIE_HASH_KEY")

	assert.NoError(t, validateServeConfig(&types.Config{
		CookieHashKey:    "a",
		CookieBlockKey:   "b",
		CognitoIssuerURL: "https://issuer",
		CognitoClientID:  "client",
	}))
}
