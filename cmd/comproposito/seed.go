package main

import (
	"fmt"
	"os"

	"comproposito/internal/db"
	"comproposito/internal/seed"
	"comproposito/internal/store"

	"github.com/urfave/cli/v2"
)

var seedCommand = &cli.Command{
	Name:  "seed",
	Usage: "Seed the database with the built-in initiatives",
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		logger := newLogger(cfg)

		pool, err := db.Connect(c.Context, cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		logger.Info("connected to database")

		if err := seed.SeedInitiatives(c.Context, store.NewInitiativeRepository(pool), os.Stdout); err != nil {
			return fmt.Errorf("failed to seed initiatives: %w", err)
		}

		logger.Info("initiatives seeded")

		return nil
	},
}
