// Spotify API client for the token and currently-playing endpoints.
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/desertthunder/trackcast/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL     = "https://accounts.spotify.com/authorize"
	spotifyTokenURL    = "https://accounts.spotify.com/api/token"
	spotifyPlaybackURL = "https://api.spotify.com/v1/me/player/currently-playing"

	tokenTimeout    = 10 * time.Second
	playbackTimeout = 5 * time.Second
)

// Scopes are the Spotify authorization scopes the overlay needs.
var Scopes = []string{"user-read-currently-playing", "user-read-playback-state"}

// PollOutcome classifies the result of a playback fetch.
type PollOutcome int

const (
	OutcomeTrack       PollOutcome = iota // 2xx with a parsed body
	OutcomeNoContent                      // 204, nothing playing or no active device
	OutcomeRateLimited                    // 429, pause absorbed by the client
	OutcomeError                          // network failure or unexpected status
)

func (o PollOutcome) String() string {
	switch o {
	case OutcomeTrack:
		return "track"
	case OutcomeNoContent:
		return "no_content"
	case OutcomeRateLimited:
		return "rate_limited"
	default:
		return "error"
	}
}

// TokenResponse is the accounts endpoint's reply to an exchange or refresh.
//
// RefreshToken is empty on most refreshes; Spotify only rotates it occasionally.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	Scope        string `json:"scope"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
}

// TrackArtist represents an artist on the playing track.
type TrackArtist struct {
	Name string `json:"name"`
}

// TrackImage represents an album image resource.
type TrackImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// TrackAlbum represents the album on the playing track.
type TrackAlbum struct {
	Name   string       `json:"name"`
	Images []TrackImage `json:"images"`
}

// TrackItem represents the track object from the currently-playing response.
type TrackItem struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	DurationMS int           `json:"duration_ms"`
	Artists    []TrackArtist `json:"artists"`
	Album      TrackAlbum    `json:"album"`
}

// ArtistNames returns the ordered artist names.
func (t *TrackItem) ArtistNames() []string {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		names = append(names, a.Name)
	}
	return names
}

// ArtworkURL returns the first (largest) album image URL, or "".
func (t *TrackItem) ArtworkURL() string {
	if len(t.Album.Images) == 0 {
		return ""
	}
	return t.Album.Images[0].URL
}

// CurrentlyPlaying represents the currently-playing object.
//
// Item is a pointer because Spotify returns null for podcasts the client
// cannot decode and for restricted content.
type CurrentlyPlaying struct {
	IsPlaying  bool       `json:"is_playing"`
	ProgressMS int        `json:"progress_ms"`
	Timestamp  int64      `json:"timestamp"`
	Item       *TrackItem `json:"item"`
}

// ClientOpts configures a [Client]. Zero values select production defaults.
type ClientOpts struct {
	TokenURL       string
	PlaybackURL    string
	RedirectURI    string
	RateLimitPause time.Duration
	HTTPClient     *http.Client // base transport, timeouts applied per call
}

// Client is a stateless Spotify Web API client. It holds no tokens; callers
// pass credentials into each request.
type Client struct {
	tokenURL       string
	playbackURL    string
	redirectURI    string
	rateLimitPause time.Duration
	httpClient     *http.Client
}

// NewClient creates a Spotify client with the given options.
func NewClient(opts ClientOpts) *Client {
	if opts.TokenURL == "" {
		opts.TokenURL = spotifyTokenURL
	}
	if opts.PlaybackURL == "" {
		opts.PlaybackURL = spotifyPlaybackURL
	}
	if opts.RateLimitPause <= 0 {
		opts.RateLimitPause = 2 * time.Second
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}

	return &Client{
		tokenURL:       opts.TokenURL,
		playbackURL:    opts.PlaybackURL,
		redirectURI:    opts.RedirectURI,
		rateLimitPause: opts.RateLimitPause,
		httpClient:     opts.HTTPClient,
	}
}

// AuthURL builds the authorization URL the user visits to grant access.
func (c *Client) AuthURL(clientID, state string) string {
	config := &oauth2.Config{
		ClientID:    clientID,
		RedirectURL: c.redirectURI,
		Scopes:      Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: c.tokenURL,
		},
	}
	return config.AuthCodeURL(state, oauth2.SetAuthURLParam("show_dialog", "true"))
}

// postToken performs one token-endpoint request with Basic auth.
func (c *Client) postToken(ctx context.Context, clientID, clientSecret string, form url.Values) (*TokenResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, tokenTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}

	req.SetBasicAuth(clientID, clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: token endpoint returned status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	var token TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}

	return &token, nil
}

// ExchangeCode trades an authorization code for the initial token set.
func (c *Client) ExchangeCode(ctx context.Context, clientID, clientSecret, code string) (*TokenResponse, error) {
	form := url.Values{
		"grant_type":   {"authorization_code"},
		"code":         {code},
		"redirect_uri": {c.redirectURI},
	}

	token, err := c.postToken(ctx, clientID, clientSecret, form)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrExchangeFailed, err)
	}
	return token, nil
}

// Refresh renews the access token with a refresh token.
func (c *Client) Refresh(ctx context.Context, clientID, clientSecret, refreshToken string) (*TokenResponse, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}

	token, err := c.postToken(ctx, clientID, clientSecret, form)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}
	return token, nil
}

// CurrentPlayback fetches the playback state with Bearer auth.
//
// On 429 the call sleeps for the configured pause and reports
// [OutcomeRateLimited]; the caller treats it as a non-fatal skip, never as a
// generic error.
func (c *Client) CurrentPlayback(ctx context.Context, accessToken string) (*CurrentlyPlaying, PollOutcome, error) {
	reqCtx, cancel := context.WithTimeout(ctx, playbackTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.playbackURL, nil)
	if err != nil {
		return nil, OutcomeError, fmt.Errorf("failed to create playback request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, OutcomeError, fmt.Errorf("playback request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNoContent:
		return nil, OutcomeNoContent, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		select {
		case <-time.After(c.rateLimitPause):
		case <-ctx.Done():
		}
		return nil, OutcomeRateLimited, nil
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, OutcomeError, fmt.Errorf("%w: playback endpoint returned status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	var playing CurrentlyPlaying
	if err := json.NewDecoder(resp.Body).Decode(&playing); err != nil {
		return nil, OutcomeError, fmt.Errorf("failed to decode playback response: %w", err)
	}

	return &playing, OutcomeTrack, nil
}
