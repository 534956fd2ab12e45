package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"comproposito/pkg/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

// loadDotEnv reads the file into the environment when it exists. Variables
// already set take precedence.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat env file %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func loadConfig(c *cli.Context) (*types.Config, error) {
	if err := loadDotEnv(c.String("env-file")); err != nil {
		return nil, err
	}

	cfg := new(types.Config)
	if err := envconfig.Process(c.String("env-prefix"), cfg); err != nil {
		return nil, fmt.Errorf("process environment config: %w", err)
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("set DATABASE_URL")
	}

	if cfg.ServerPort == 0 {
		cfg.ServerPort = 8080
	}

	if cfg.ReadTimeoutSec == 0 {
		cfg.ReadTimeoutSec = 10
	}

	if cfg.WriteTimeoutSec == 0 {
		cfg.WriteTimeoutSec = 15
	}

	return cfg, nil
}

// validateServeConfig checks what only the HTTP server needs.
func validateServeConfig(cfg *types.Config) error {
	var missing []string
	if cfg.CookieHashKey == "" {
		missing = append(missing, "COOKIE_HASH_KEY")
	}
	if cfg.CookieBlockKey == "" {
		missing = append(missing, "COOKIE_BLOCK_KEY")
	}
	if cfg.CognitoIssuerURL == "" {
		missing = append(missing, "COGNITO_ISSUER_URL")
	}
	if cfg.CognitoClientID == "" {
		missing = append(missing, "COGNITO_CLIENT_ID")
	}
	if len(missing) > 0 {
		return fmt.Errorf("set %v", missing)
	}
	return nil
}

func newLogger(cfg *types.Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if cfg.Environment == "development" {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}

func loadAWSConfig(ctx context.Context) (aws.Config, error) {
	config, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load aws config: %w", err)
	}

	return config, nil
}
