package main

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/desertthunder/trackcast/internal/shared"
	"github.com/desertthunder/trackcast/internal/store"
	"github.com/urfave/cli/v3"
)

func (r *Runner) openSettings(cmd *cli.Command) (*store.SettingsStore, error) {
	config := r.reloadConfig(cmd)
	return store.OpenSettings(config.Settings.Path, r.logger)
}

// SettingsList prints every variable in the settings document.
func (r *Runner) SettingsList(ctx context.Context, cmd *cli.Command) error {
	settings, err := r.openSettings(cmd)
	if err != nil {
		return err
	}

	all := settings.All()
	if cmd.Bool("json") {
		return r.writeJSON(all, true)
	}

	for _, name := range slices.Sorted(maps.Keys(all)) {
		r.writePlainln("%s: %s", name, all[name])
	}
	return nil
}

// SettingsGet prints the value of a single variable.
func (r *Runner) SettingsGet(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("name")
	if name == "" {
		return fmt.Errorf("%w: name", shared.ErrMissingArgument)
	}

	settings, err := r.openSettings(cmd)
	if err != nil {
		return err
	}

	value, ok := settings.Get(name)
	if !ok {
		return fmt.Errorf("%w: %s", shared.ErrUnknownSetting, name)
	}
	return r.writePlainln("%s", value)
}

// SettingsSet updates one variable and rewrites the settings document. A
// running overlay picks the change up through its file watcher.
func (r *Runner) SettingsSet(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("name")
	value := cmd.StringArg("value")
	if name == "" || value == "" {
		return fmt.Errorf("%w: name and value", shared.ErrMissingArgument)
	}

	settings, err := r.openSettings(cmd)
	if err != nil {
		return err
	}

	if _, ok := settings.Get(name); !ok {
		return fmt.Errorf("%w: %s", shared.ErrUnknownSetting, name)
	}
	if err := settings.Set(name, value); err != nil {
		return err
	}
	return r.writePlainln("✓ %s = %s", name, value)
}
