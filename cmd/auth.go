package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/trackcast/internal/server"
	"github.com/desertthunder/trackcast/internal/shared"
	"github.com/desertthunder/trackcast/internal/store"
	"github.com/urfave/cli/v3"
)

// callbackWait bounds how long the auth flow waits for the browser redirect.
const callbackWait = 120 * time.Second

// Auth performs the OAuth2 authorization flow for Spotify.
//
// Starts a local HTTP server for the redirect, opens the browser for user
// consent, exchanges the authorization code for tokens, and persists the
// resulting credentials.
func (r *Runner) Auth(ctx context.Context, cmd *cli.Command) error {
	config := r.reloadConfig(cmd)

	db, creds, registration, err := r.openStores(config)
	if err != nil {
		return err
	}
	defer db.Close()

	if id, secret := cmd.String("id"), cmd.String("secret"); id != "" || secret != "" {
		if id == "" || secret == "" {
			return fmt.Errorf("%w: --id and --secret must be provided together", shared.ErrMissingArgument)
		}
		if err := registration.Save(store.Registration{ClientID: id, ClientSecret: secret}); err != nil {
			return fmt.Errorf("failed to save client registration: %w", err)
		}
		r.logger.Info("client registration saved")
	}

	reg, err := registration.Load()
	if err != nil {
		return err
	}
	if !reg.Complete() {
		return fmt.Errorf("%w: run trackcast auth --id <client_id> --secret <client_secret>", shared.ErrMissingClient)
	}

	client := r.newClient(config)
	state := shared.GenerateState()
	callback := server.NewCallbackHandler(state)

	router := server.NewBasicRouter()
	router.Handler(callback)

	httpServer := &http.Server{
		Addr:    config.Server.Addr(),
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Info("starting callback server", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	time.Sleep(100 * time.Millisecond)

	authURL := client.AuthURL(reg.ClientID, state)
	r.writePlain("→ Opening browser for Spotify authorization...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warn("failed to open browser automatically", "error", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	codeChan := make(chan string, 1)
	waitErrors := make(chan error, 1)
	go func() {
		code, err := callback.Wait(ctx, callbackWait)
		if err != nil {
			waitErrors <- err
			return
		}
		codeChan <- code
	}()

	var code string
	select {
	case code = <-codeChan:
	case err := <-waitErrors:
		shutdownServer(httpServer, r)
		return err
	case err := <-serverErrors:
		return fmt.Errorf("callback server error: %w", err)
	}

	shutdownServer(httpServer, r)

	token, err := client.ExchangeCode(ctx, reg.ClientID, reg.ClientSecret, code)
	if err != nil {
		return err
	}

	expiresIn := token.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = 3600
	}

	err = creds.Replace(store.Credentials{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    time.Now().Add(time.Duration(expiresIn) * time.Second).UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to persist credentials: %w", err)
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("You can now run: trackcast serve\n")

	return nil
}

func shutdownServer(httpServer *http.Server, r *Runner) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down callback server", "error", err)
	}
}
