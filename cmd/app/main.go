// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package main

import (
	"context"
	"fmt"
	"os"

	"codeberg.org/oliverandrich/inkwell/internal/config"
	"codeberg.org/oliverandrich/inkwell/internal/server"
	"github.com/urfave/cli/v3"
)

// Version information (set via ldflags during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func newCommand() *cli.Command {
	return &cli.Command{
		Name:    "inkwell",
		Usage:   "A small blog with email-verified registration",
		Version: fmt.Sprintf("%s (built %s)", Version, BuildTime),
		Flags:   config.Flags(),
		Action:  server.Run,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the web server (default)",
				Action: server.Run,
			},
			migrateCommand(),
			sessionsCommand(),
			categoryCommand(),
			tagCommand(),
			postCommand(),
		},
	}
}

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
