package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var globalFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "env-prefix",
		Aliases: []string{"p"},
		Usage:   "Environment variable prefix",
		Value:   "APP",
	},
	&cli.StringFlag{
		Name:    "env-file",
		Aliases: []string{"e"},
		Usage:   "Optional .env file loaded before reading the environment",
		Value:   ".env",
	},
}

func main() {
	app := &cli.App{
		Name:  "comproposito",
		Usage: "Coordination backend for volunteer 3D printing of mobility aids",
		Flags: globalFlags,
		Commands: []*cli.Command{
			serveCommand,
			migrateCommand,
			seedCommand,
			resendCommand,
			projectCommand,
			nanoidCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("application failed")
	}
}
