// Package server provides HTTP routing, middleware, and the overlay's web
// surface.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first),
// following the standard Go pattern. The [BasicRouter] implementation uses
// [http.ServeMux] internally with method filtering.
//
// # Overlay Surface
//
// [OverlayHandler] serves the browser-source page plus the partial and JSON
// queries it polls:
//
//	GET /                 → overlay page with the settings document inlined
//	GET /track-html       → rendered track partial for in-place refresh
//	GET /now-playing.json → derived display payload
//	GET /settings.json    → raw settings map for live client reconfiguration
//
// All of these read the same immutable snapshot copy; none of them mutate
// anything.
//
// # OAuth Callback
//
// [CallbackHandler] receives the provider's authorization redirect during the
// one-time auth flow. It validates the state parameter (CSRF protection) and
// deposits the code into a single-slot channel the CLI flow consumes with a
// bounded wait; a newer code replaces an unconsumed older one.
package server
