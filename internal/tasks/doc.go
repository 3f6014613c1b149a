// Package tasks implements the background loops that keep the overlay live.
//
// Three loops run as independent goroutines:
//
//   - [TokenManager] : renews the access token before expiry using the refresh
//     token, mutating the credential store.
//   - [Poller] : fetches playback state on a bounded cadence and publishes
//     snapshots into the shared state store.
//   - [Exporter] : periodically writes the derived display payload to disk for
//     image/file consumers, when the settings document enables it.
//
// The token manager and the poller never talk to each other; they share only
// the credential store. Each loop observes its context at the top of every
// iteration and exits at the next checkpoint without cancelling in-flight
// HTTP calls, which are bounded by the client's own request timeouts.
package tasks
