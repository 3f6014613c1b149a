package main

import (
	"context"
	"os"

	"github.com/desertthunder/trackcast/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	runner := NewRunner(RunnerOpts{
		Config: config,
		Logger: logger,
	})

	app := &cli.Command{
		Name:     "trackcast",
		Usage:    "Local now-playing overlay for broadcasting software",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}

func configFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create config, initialize the database, and write the default settings document",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Setup,
	}
}

func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authenticate with Spotify using OAuth2",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "id",
				Usage: "Spotify application client id (persisted on first use)",
			},
			&cli.StringFlag{
				Name:  "secret",
				Usage: "Spotify application client secret (persisted on first use)",
			},
		},
		Action: r.Auth,
	}
}

func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Run the overlay server and background sync loops",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Serve,
	}
}

func settingsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "settings",
		Usage: "Read and write the overlay settings document",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List all settings variables",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{Name: "json", Usage: "Output as JSON"},
				},
				Action: r.SettingsList,
			},
			{
				Name:      "get",
				Usage:     "Print one settings variable",
				Flags:     []cli.Flag{configFlag()},
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Action:    r.SettingsGet,
			},
			{
				Name:      "set",
				Usage:     "Update one settings variable",
				Flags:     []cli.Flag{configFlag()},
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}, &cli.StringArg{Name: "value"}},
				Action:    r.SettingsSet,
			},
		},
	}
}

func statusCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "Run the overlay with an interactive terminal status view",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Status,
	}
}
