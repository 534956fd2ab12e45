package main

import (
	"fmt"

	"comproposito/internal/db"
	"comproposito/internal/lifecycle"
	"comproposito/internal/store"

	"github.com/k0kubun/pp/v3"
	"github.com/urfave/cli/v2"
)

var projectCommand = &cli.Command{
	Name:  "project",
	Usage: "Inspect projects",
	Subcommands: []*cli.Command{
		{
			Name:      "show",
			Usage:     "Print a project with its parts and progress",
			ArgsUsage: "<project-id>",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "no-color",
					Usage: "Disable coloured output",
				},
			},
			Action: func(c *cli.Context) error {
				projectID := c.Args().First()
				if projectID == "" {
					return fmt.Errorf("project id is required")
				}

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

				projectRepo := store.NewProjectRepository(pool)
				manager := lifecycle.NewManager(
					logger, projectRepo, projectRepo,
					store.NewRequestRepository(pool), store.NewContributorRepository(pool),
				)

				project, err := manager.ProjectWithProgress(c.Context, projectID)
				if err != nil {
					return err
				}

				printer := pp.New()
				printer.SetColoringEnabled(!c.Bool("no-color"))
				printer.Println(project)

				return nil
			},
		},
	},
}
