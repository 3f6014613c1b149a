package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/trackcast/internal/formatter"
	"github.com/desertthunder/trackcast/internal/shared"
	"github.com/desertthunder/trackcast/internal/state"
	"github.com/desertthunder/trackcast/internal/store"
	"github.com/desertthunder/trackcast/internal/web"
)

// OverlayHandler serves the browser-source surface: the overlay page, the
// rendered track partial, and the JSON queries the presentation layer polls.
//
// It only ever reads (the snapshot through [state.Store.Snapshot], the
// settings document through [store.SettingsStore]), so any number of OBS
// sources can poll concurrently without touching the poller.
type OverlayHandler struct {
	state        *state.Store
	settings     *store.SettingsStore
	renderer     *web.Renderer
	pollInterval time.Duration
	logger       *log.Logger
}

// OverlayHandlerOpts contains the dependencies for an OverlayHandler.
type OverlayHandlerOpts struct {
	State        *state.Store
	Settings     *store.SettingsStore
	Renderer     *web.Renderer
	PollInterval time.Duration
	Logger       *log.Logger
}

// NewOverlayHandler creates an OverlayHandler with the provided options.
func NewOverlayHandler(opts OverlayHandlerOpts) *OverlayHandler {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 2 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &OverlayHandler{
		state:        opts.State,
		settings:     opts.Settings,
		renderer:     opts.Renderer,
		pollInterval: opts.PollInterval,
		logger:       opts.Logger,
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *OverlayHandler) Routes() []string {
	return []string{"/{$}", "/track-html", "/now-playing.json", "/settings.json"}
}

// ServeHTTP dispatches to the route implementations.
func (h *OverlayHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/":
		h.servePage(w)
	case "/track-html":
		h.serveTrackPartial(w)
	case "/now-playing.json":
		h.serveJSON(w, formatter.Derive(h.state.Snapshot()))
	case "/settings.json":
		h.serveJSON(w, h.settings.All())
	default:
		http.NotFound(w, r)
	}
}

func (h *OverlayHandler) servePage(w http.ResponseWriter) {
	display := formatter.Derive(h.state.Snapshot())

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := h.renderer.Page(w, web.PageData{
		Settings:       h.settings.Document(),
		Display:        display,
		PollIntervalMS: int(h.pollInterval / time.Millisecond),
	})
	if err != nil {
		h.logger.Error("failed to render overlay page", "error", err)
	}
}

func (h *OverlayHandler) serveTrackPartial(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.renderer.Track(w, formatter.Derive(h.state.Snapshot())); err != nil {
		h.logger.Error("failed to render track partial", "error", err)
	}
}

func (h *OverlayHandler) serveJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}
