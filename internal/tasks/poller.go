package tasks

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/trackcast/internal/services"
	"github.com/desertthunder/trackcast/internal/shared"
	"github.com/desertthunder/trackcast/internal/state"
	"github.com/desertthunder/trackcast/internal/store"
	"golang.org/x/time/rate"
)

// PlaybackSource fetches the current playback state. Implemented by
// [services.Client]; tests substitute a stub.
type PlaybackSource interface {
	CurrentPlayback(ctx context.Context, accessToken string) (*services.CurrentlyPlaying, services.PollOutcome, error)
}

// PollerOpts contains the dependencies and cadences for a Poller.
type PollerOpts struct {
	Source      PlaybackSource
	Credentials *store.CredentialStore
	State       *state.Store
	// PollInterval is the minimum spacing between playback fetches (default 2s).
	PollInterval time.Duration
	// IdleWait is the sleep while waiting for an access token (default 1s).
	IdleWait time.Duration
	// SpinWait is the sleep when the limiter says it is too early to poll
	// (default 100ms). Decouples the outer loop from the network cadence.
	SpinWait time.Duration
	Logger   *log.Logger
}

// Poller keeps the shared state fresh at a bounded rate. Polls are strictly
// sequential; there is never more than one playback request in flight.
type Poller struct {
	source   PlaybackSource
	creds    *store.CredentialStore
	state    *state.Store
	limiter  *rate.Limiter
	idleWait time.Duration
	spinWait time.Duration
	logger   *log.Logger
}

// NewPoller creates a Poller with the provided options.
func NewPoller(opts PollerOpts) *Poller {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 2 * time.Second
	}
	if opts.IdleWait <= 0 {
		opts.IdleWait = time.Second
	}
	if opts.SpinWait <= 0 {
		opts.SpinWait = 100 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &Poller{
		source:   opts.Source,
		creds:    opts.Credentials,
		state:    opts.State,
		limiter:  rate.NewLimiter(rate.Every(opts.PollInterval), 1),
		idleWait: opts.IdleWait,
		spinWait: opts.SpinWait,
		logger:   opts.Logger,
	}
}

// Run drives the poll loop until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("playback poller started")

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("playback poller stopped")
			return nil
		default:
		}

		current := p.creds.Current()
		if current.AccessToken == "" {
			// Waiting for the token manager to produce a token.
			if !sleepCtx(ctx, p.idleWait) {
				return nil
			}
			continue
		}

		if !p.limiter.Allow() {
			if !sleepCtx(ctx, p.spinWait) {
				return nil
			}
			continue
		}

		p.PollOnce(ctx, current.AccessToken)
	}
}

// PollOnce performs one playback fetch and publishes the outcome.
//
// Errors and rate-limit skips leave the snapshot untouched: a stale track is
// better than a blank overlay during a transient outage.
func (p *Poller) PollOnce(ctx context.Context, accessToken string) {
	playing, outcome, err := p.source.CurrentPlayback(ctx, accessToken)

	switch outcome {
	case services.OutcomeTrack:
		if playing.Item == nil {
			// 200 with a null item: restricted content or a decode gap.
			p.state.SetIdle()
			return
		}
		p.state.SetTrack(state.Snapshot{
			IsPlaying:  playing.IsPlaying,
			Title:      playing.Item.Name,
			Artists:    playing.Item.ArtistNames(),
			Album:      playing.Item.Album.Name,
			ArtworkURL: playing.Item.ArtworkURL(),
			Progress:   time.Duration(playing.ProgressMS) * time.Millisecond,
			Duration:   time.Duration(playing.Item.DurationMS) * time.Millisecond,
		})
	case services.OutcomeNoContent:
		p.state.SetIdle()
	case services.OutcomeRateLimited:
		p.logger.Debug("playback poll rate limited, pause absorbed")
	case services.OutcomeError:
		p.logger.Warn("playback poll failed", "error", err)
	}
}

// sleepCtx sleeps for d or until ctx is cancelled, reporting whether the full
// sleep elapsed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
