package tasks

import (
	"context"
	"database/sql"
	"testing"

	"github.com/desertthunder/trackcast/internal/services"
	"github.com/desertthunder/trackcast/internal/shared"
	"github.com/desertthunder/trackcast/internal/store"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	// One connection keeps every query on the same in-memory database.
	shared.ConfigureDatabase(db, 1, 1)

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return db
}

func newTestCredentials(t *testing.T, seed store.Credentials) *store.CredentialStore {
	t.Helper()

	creds, err := store.NewCredentialStore(newTestDB(t))
	if err != nil {
		t.Fatalf("failed to create credential store: %v", err)
	}
	if seed != (store.Credentials{}) {
		if err := creds.Replace(seed); err != nil {
			t.Fatalf("failed to seed credentials: %v", err)
		}
	}
	return creds
}

// stubTokenSource records refresh calls and plays back a canned response.
type stubTokenSource struct {
	calls    int
	response *services.TokenResponse
	err      error
}

func (s *stubTokenSource) Refresh(ctx context.Context, clientID, clientSecret, refreshToken string) (*services.TokenResponse, error) {
	s.calls++
	return s.response, s.err
}

// stubPlaybackSource plays back a canned poll result.
type stubPlaybackSource struct {
	calls   int
	playing *services.CurrentlyPlaying
	outcome services.PollOutcome
	err     error
}

func (s *stubPlaybackSource) CurrentPlayback(ctx context.Context, accessToken string) (*services.CurrentlyPlaying, services.PollOutcome, error) {
	s.calls++
	return s.playing, s.outcome, s.err
}
