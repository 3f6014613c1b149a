package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/desertthunder/trackcast/internal/server"
	"github.com/desertthunder/trackcast/internal/shared"
	"github.com/desertthunder/trackcast/internal/state"
	"github.com/desertthunder/trackcast/internal/store"
	"github.com/desertthunder/trackcast/internal/tasks"
	"github.com/desertthunder/trackcast/internal/web"
	"github.com/urfave/cli/v3"
)

// overlay bundles everything a running overlay needs: stores, loops, and the
// HTTP server. Built once, used by both serve and status.
type overlay struct {
	config   *shared.Config
	creds    *store.CredentialStore
	settings *store.SettingsStore
	states   *state.Store
	manager  *tasks.TokenManager
	poller   *tasks.Poller
	exporter *tasks.Exporter
	server   *http.Server
}

// buildOverlay wires the background loops and HTTP surface from config and the
// opened stores.
func (r *Runner) buildOverlay(config *shared.Config, creds *store.CredentialStore, registration *store.RegistrationStore) (*overlay, error) {
	reg, err := registration.Load()
	if err != nil {
		return nil, err
	}

	settings, err := store.OpenSettings(config.Settings.Path, r.logger)
	if err != nil {
		return nil, err
	}

	renderer, err := web.NewRenderer()
	if err != nil {
		return nil, err
	}

	client := r.newClient(config)
	states := state.NewStore()

	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(r.logger))
	router.Handler(server.NewOverlayHandler(server.OverlayHandlerOpts{
		State:        states,
		Settings:     settings,
		Renderer:     renderer,
		PollInterval: config.Poller.PollInterval(),
		Logger:       r.logger,
	}))

	return &overlay{
		config:   config,
		creds:    creds,
		settings: settings,
		states:   states,
		manager: tasks.NewTokenManager(tasks.TokenManagerOpts{
			Source:        client,
			Credentials:   creds,
			Registration:  reg,
			CheckInterval: config.Poller.RefreshCheck(),
			ExpiryMargin:  config.Poller.ExpiryMargin(),
			Logger:        r.logger,
		}),
		poller: tasks.NewPoller(tasks.PollerOpts{
			Source:       client,
			Credentials:  creds,
			State:        states,
			PollInterval: config.Poller.PollInterval(),
			IdleWait:     config.Poller.IdleWait(),
			Logger:       r.logger,
		}),
		exporter: tasks.NewExporter(tasks.ExporterOpts{
			State:    states,
			Settings: settings,
			Path:     config.Export.Path,
			Interval: config.Poller.PollInterval(),
			Logger:   r.logger,
		}),
		server: &http.Server{
			Addr:    config.Server.Addr(),
			Handler: router,
		},
	}, nil
}

// start launches the loops and the HTTP server. The returned channel reports a
// listener failure; everything else winds down when ctx is cancelled.
func (o *overlay) start(ctx context.Context, r *Runner) <-chan error {
	if err := o.settings.Watch(ctx); err != nil {
		r.logger.Warn("settings live reload unavailable", "error", err)
	}

	go func() {
		if err := o.manager.Run(ctx); errors.Is(err, shared.ErrNoRefreshToken) {
			r.logger.Warn("authentication required, token manager idle", "hint", "run: trackcast auth")
		}
	}()
	go o.poller.Run(ctx)
	go o.exporter.Run(ctx)

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Info("overlay available", "url", o.url())
		if err := o.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	return serverErrors
}

func (o *overlay) url() string {
	return fmt.Sprintf("http://%s/", o.config.Server.Addr())
}

func (o *overlay) shutdown(r *Runner) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := o.server.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down overlay server", "error", err)
	}
}

// Serve runs the overlay server and the background sync loops until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	config := r.reloadConfig(cmd)

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

	if !creds.Current().Authenticated() {
		r.writePlain("⚠ Not authenticated yet. The overlay stays blank until you run: trackcast auth\n")
	}
	r.writePlain("→ Overlay running at %s (Ctrl+C to stop)\n", o.url())

	select {
	case <-ctx.Done():
		r.logger.Info("shutting down")
	case err := <-serverErrors:
		return fmt.Errorf("overlay server error: %w", err)
	}

	o.shutdown(r)
	return nil
}
