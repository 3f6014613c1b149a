package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/trackcast/internal/shared"
	"github.com/desertthunder/trackcast/internal/ui"
	"github.com/urfave/cli/v3"
)

// Status runs the overlay like serve does, but attaches an interactive
// terminal view instead of printing log lines. Logs go to a file so they do
// not fight the TUI for the terminal.
func (r *Runner) Status(ctx context.Context, cmd *cli.Command) error {
	config := r.reloadConfig(cmd)

	logPath := config.Server.LogPath
	if logPath == "" {
		logPath = "./trackcast.log"
	}
	logger, err := shared.NewFileLogger(logPath)
	if err != nil {
		return err
	}
	r.SetLogger(logger)

	db, creds, registration, err := r.openStores(config)
	if err != nil {
		return err
	}
	defer db.Close()

	o, err := r.buildOverlay(config, creds, registration)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverErrors := o.start(ctx, r)
	defer o.shutdown(r)

	program := tea.NewProgram(ui.NewModel(o.states, creds, o.url()), tea.WithContext(ctx))

	go func() {
		select {
		case <-ctx.Done():
		case err := <-serverErrors:
			logger.Error("overlay server error", "error", err)
			program.Quit()
		}
	}()

	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("status view error: %w", err)
	}
	return nil
}
