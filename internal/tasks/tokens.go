package tasks

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/trackcast/internal/services"
	"github.com/desertthunder/trackcast/internal/shared"
	"github.com/desertthunder/trackcast/internal/store"
)

// TokenSource performs the refresh-token exchange. Implemented by
// [services.Client]; tests substitute a stub.
type TokenSource interface {
	Refresh(ctx context.Context, clientID, clientSecret, refreshToken string) (*services.TokenResponse, error)
}

// TokenManagerOpts contains the dependencies and cadences for a TokenManager.
type TokenManagerOpts struct {
	Source       TokenSource
	Credentials  *store.CredentialStore
	Registration store.Registration
	// CheckInterval is the sleep between expiry checks (default 10s).
	CheckInterval time.Duration
	// ExpiryMargin is how long before expiry a refresh is forced (default 30s).
	ExpiryMargin time.Duration
	Logger       *log.Logger
	Now          func() time.Time
}

// TokenManager guarantees that a reader of the credential store finds an
// access token valid at least ExpiryMargin into the future, or learns that
// renewal is impossible.
type TokenManager struct {
	source   TokenSource
	creds    *store.CredentialStore
	reg      store.Registration
	interval time.Duration
	margin   time.Duration
	logger   *log.Logger
	now      func() time.Time
}

// NewTokenManager creates a TokenManager with the provided options.
func NewTokenManager(opts TokenManagerOpts) *TokenManager {
	if opts.CheckInterval <= 0 {
		opts.CheckInterval = 10 * time.Second
	}
	if opts.ExpiryMargin <= 0 {
		opts.ExpiryMargin = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &TokenManager{
		source:   opts.Source,
		creds:    opts.Credentials,
		reg:      opts.Registration,
		interval: opts.CheckInterval,
		margin:   opts.ExpiryMargin,
		logger:   opts.Logger,
		now:      opts.Now,
	}
}

// Run drives the refresh loop until ctx is cancelled.
//
// It returns [shared.ErrNoRefreshToken] immediately, without any HTTP call,
// when no refresh token exists at start: that state is "authentication
// required", not something the loop can repair by retrying.
func (m *TokenManager) Run(ctx context.Context) error {
	if !m.creds.Current().Authenticated() {
		return shared.ErrNoRefreshToken
	}

	m.logger.Info("token manager started", "check_interval", m.interval, "expiry_margin", m.margin)

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("token manager stopped")
			return nil
		default:
		}

		m.RefreshIfNeeded(ctx)

		select {
		case <-ctx.Done():
			m.logger.Info("token manager stopped")
			return nil
		case <-time.After(m.interval):
		}
	}
}

// RefreshIfNeeded performs at most one refresh attempt. A failed attempt is
// logged and swallowed; the existing credentials stay untouched so the poller
// keeps working until the old token actually dies.
func (m *TokenManager) RefreshIfNeeded(ctx context.Context) {
	current := m.creds.Current()
	if !current.NeedsRefresh(m.now(), m.margin) {
		return
	}

	resp, err := m.source.Refresh(ctx, m.reg.ClientID, m.reg.ClientSecret, current.RefreshToken)
	if err != nil {
		m.logger.Warn("token refresh failed", "error", err)
		return
	}

	next := current
	next.AccessToken = resp.AccessToken
	// Spotify only rotates the refresh token occasionally; keep the old one
	// unless a replacement arrived.
	if resp.RefreshToken != "" {
		next.RefreshToken = resp.RefreshToken
	}

	expiresIn := resp.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = 3600
	}
	next.ExpiresAt = m.now().Add(time.Duration(expiresIn) * time.Second).UTC()

	if err := m.creds.Replace(next); err != nil {
		m.logger.Error("failed to persist refreshed credentials", "error", err)
		return
	}

	m.logger.Debug("access token refreshed", "expires_at", next.ExpiresAt)
}
