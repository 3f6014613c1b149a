package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/desertthunder/trackcast/internal/services"
	"github.com/desertthunder/trackcast/internal/shared"
	"github.com/desertthunder/trackcast/internal/state"
	"github.com/desertthunder/trackcast/internal/store"
)

func TestPollOnce(t *testing.T) {
	t.Run("Playing Track", func(t *testing.T) {
		source := &stubPlaybackSource{
			outcome: services.OutcomeTrack,
			playing: &services.CurrentlyPlaying{
				IsPlaying:  true,
				ProgressMS: 30000,
				Item: &services.TrackItem{
					Name:       "Test Track",
					DurationMS: 200000,
					Artists:    []services.TrackArtist{{Name: "First"}},
					Album: services.TrackAlbum{
						Name:   "Test Album",
						Images: []services.TrackImage{{URL: "https://img/640"}},
					},
				},
			},
		}
		states := state.NewStore()
		poller := NewPoller(PollerOpts{Source: source, State: states})

		poller.PollOnce(context.Background(), "access")

		snap := states.Snapshot()
		if !snap.HasTrack || !snap.IsPlaying {
			t.Error("expected an active playing snapshot")
		}
		if snap.Title != "Test Track" || snap.Album != "Test Album" {
			t.Errorf("unexpected track fields: %+v", snap)
		}
		if snap.Progress != 30*time.Second || snap.Duration != 200*time.Second {
			t.Errorf("expected millisecond conversion, got %v / %v", snap.Progress, snap.Duration)
		}
		if snap.ArtworkURL != "https://img/640" {
			t.Errorf("unexpected artwork URL %q", snap.ArtworkURL)
		}
	})

	t.Run("Null Item Clears The Track", func(t *testing.T) {
		source := &stubPlaybackSource{
			outcome: services.OutcomeTrack,
			playing: &services.CurrentlyPlaying{IsPlaying: true, Item: nil},
		}
		states := state.NewStore()
		states.SetTrack(state.Snapshot{IsPlaying: true, Title: "Old"})

		NewPoller(PollerOpts{Source: source, State: states}).PollOnce(context.Background(), "access")

		if snap := states.Snapshot(); snap.HasTrack {
			t.Error("expected the snapshot to go idle on a null item")
		}
	})

	t.Run("No Content Clears The Track", func(t *testing.T) {
		source := &stubPlaybackSource{outcome: services.OutcomeNoContent}
		states := state.NewStore()
		states.SetTrack(state.Snapshot{IsPlaying: true, Title: "Old"})

		NewPoller(PollerOpts{Source: source, State: states}).PollOnce(context.Background(), "access")

		if snap := states.Snapshot(); snap.HasTrack {
			t.Error("expected the snapshot to go idle on 204")
		}
	})

	t.Run("Rate Limit Keeps The Snapshot", func(t *testing.T) {
		source := &stubPlaybackSource{outcome: services.OutcomeRateLimited}
		states := state.NewStore()
		states.SetTrack(state.Snapshot{IsPlaying: true, Title: "Old"})

		NewPoller(PollerOpts{Source: source, State: states}).PollOnce(context.Background(), "access")

		if snap := states.Snapshot(); !snap.HasTrack || snap.Title != "Old" {
			t.Error("expected the last-known-good snapshot to survive a rate limit")
		}
	})

	t.Run("Error Keeps The Snapshot", func(t *testing.T) {
		source := &stubPlaybackSource{outcome: services.OutcomeError, err: shared.ErrAPIRequest}
		states := state.NewStore()
		states.SetTrack(state.Snapshot{IsPlaying: true, Title: "Old"})

		NewPoller(PollerOpts{Source: source, State: states}).PollOnce(context.Background(), "access")

		if snap := states.Snapshot(); !snap.HasTrack || snap.Title != "Old" {
			t.Error("expected the last-known-good snapshot to survive an error")
		}
	})
}

func TestPollerRun(t *testing.T) {
	t.Run("Waits Without An Access Token", func(t *testing.T) {
		source := &stubPlaybackSource{outcome: services.OutcomeNoContent}
		creds := newTestCredentials(t, store.Credentials{})
		poller := NewPoller(PollerOpts{
			Source:      source,
			Credentials: creds,
			State:       state.NewStore(),
			IdleWait:    5 * time.Millisecond,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		if err := poller.Run(ctx); err != nil {
			t.Fatalf("expected a clean stop, got %v", err)
		}
		if source.calls != 0 {
			t.Errorf("expected no playback calls without a token, got %d", source.calls)
		}
	})

	t.Run("Polls Once A Token Appears", func(t *testing.T) {
		source := &stubPlaybackSource{outcome: services.OutcomeNoContent}
		creds := newTestCredentials(t, store.Credentials{AccessToken: "access", RefreshToken: "refresh"})
		states := state.NewStore()
		poller := NewPoller(PollerOpts{
			Source:       source,
			Credentials:  creds,
			State:        states,
			PollInterval: 10 * time.Millisecond,
			SpinWait:     time.Millisecond,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
		defer cancel()

		if err := poller.Run(ctx); err != nil {
			t.Fatalf("expected a clean stop, got %v", err)
		}
		if source.calls == 0 {
			t.Error("expected at least one playback call")
		}
		if states.Snapshot().LastPolledAt.IsZero() {
			t.Error("expected the snapshot to record the poll time")
		}
	})
}
