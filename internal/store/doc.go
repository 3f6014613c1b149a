// Package store implements the three durable records the overlay core depends on.
//
// Two live in SQLite as flat key-value tables:
//   - [CredentialStore] : access token, refresh token, and expiry
//   - [RegistrationStore] : the Spotify application's client id and secret
//
// The third, [SettingsStore], is a human-editable CSS custom-property document
// read by the presentation layer and polled by web clients for live
// reconfiguration. It is parsed once into a map on open, rewritten atomically
// on every mutation, and reloaded when fsnotify reports an external edit.
//
// All three survive process restarts. A missing credentials or registration
// record means "unauthenticated", never an error.
package store
