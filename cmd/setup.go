package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/trackcast/internal/shared"
	"github.com/desertthunder/trackcast/internal/store"
	"github.com/urfave/cli/v3"
)

// Setup creates the config file, initializes the database, runs migrations,
// and writes the default settings document.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
	}

	config := r.reloadConfig(cmd)

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, _, _, err := r.openStores(config)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := store.OpenSettings(config.Settings.Path, r.logger); err != nil {
		return fmt.Errorf("failed to initialize settings document: %w", err)
	}

	r.logger.Info("setup complete", "database", config.Database.Path, "settings", config.Settings.Path)

	r.writePlain("✓ Setup complete\n")
	r.writePlain("Next: trackcast auth --id <client_id> --secret <client_secret>\n")
	return nil
}
