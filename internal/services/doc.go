// Package services implements the stateless Spotify Web API client.
//
// # Request shapes
//
// Exactly two request families are modeled, matching what the overlay needs:
//
//  1. Token operations ([Client.ExchangeCode], [Client.Refresh]) against the
//     accounts token endpoint, authenticated with HTTP Basic
//     base64(client_id:client_secret). Non-2xx responses are hard errors and
//     are never retried here.
//  2. Playback fetch ([Client.CurrentPlayback]) against the currently-playing
//     endpoint with Bearer auth.
//
// # Typed outcomes
//
// CurrentPlayback translates status codes into a [PollOutcome] instead of
// collapsing everything into an error:
//
//   - 204 → [OutcomeNoContent] : nothing playing or no active device
//   - 429 → [OutcomeRateLimited] : the client absorbs a fixed pause before
//     returning, since Spotify does not reliably honor Retry-After here
//   - 2xx → [OutcomeTrack] with the parsed body
//   - anything else → [OutcomeError], propagated to the caller
//
// The poller switches on the outcome, which keeps the "swallow transient
// failures" policy an explicit branch rather than a blanket recover.
//
// Endpoint URLs are configurable so tests can point the client at httptest
// servers.
package services
