// Package ui implements a terminal status view using bubbletea's Elm architecture.
//
// The view is a read-only consumer of the state query interface: once per
// second it copies the shared snapshot, derives the display payload, and
// renders the current track with a progress bar. While unauthenticated or
// idle it shows a spinner instead.
//
// Keyboard bindings (o open overlay in browser, q quit) are declared with
// charmbracelet/bubbles/key and surfaced via bubbles/help.
package ui
