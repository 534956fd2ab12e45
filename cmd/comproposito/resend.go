package main

import (
	"fmt"
	"time"

	"comproposito/internal/allocation"
	"comproposito/internal/db"
	"comproposito/internal/notify"
	"comproposito/internal/store"

	"github.com/urfave/cli/v2"
)

var resendCommand = &cli.Command{
	Name:      "resend",
	Usage:     "Re-send allocation e-mails to every volunteer holding parts in a project",
	ArgsUsage: "<project-id>",
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

		contributorRepo := store.NewContributorRepository(pool)
		projectRepo := store.NewProjectRepository(pool)

		dispatcher, err := notify.New(cfg, logger, contributorRepo, projectRepo, newSender(cfg, logger))
		if err != nil {
			return err
		}

		engine := allocation.NewEngine(
			logger, projectRepo, projectRepo, contributorRepo, dispatcher,
			time.Duration(cfg.ResendDelayMS)*time.Millisecond,
		)

		report, err := engine.ResendProject(c.Context, projectID, func(r allocation.ResendReport) {
			fmt.Printf("%d/%d sent, %d failed\n", r.Succeeded+r.Failed, r.Total, r.Failed)
		})
		if err != nil {
			return err
		}

		for _, f := range report.Failures {
			fmt.Printf("  %s: %s\n", f.ContributorID, f.Error)
		}
		fmt.Printf("done: %d succeeded, %d failed\n", report.Succeeded, report.Failed)

		return nil
	},
}
