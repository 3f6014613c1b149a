package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/trackcast/internal/formatter"
	"github.com/desertthunder/trackcast/internal/state"
	"github.com/desertthunder/trackcast/internal/store"
	"github.com/desertthunder/trackcast/internal/web"
)

func newTestHandler(t *testing.T) (*OverlayHandler, *state.Store) {
	t.Helper()

	settings, err := store.OpenSettings(filepath.Join(t.TempDir(), "styles.css"), nil)
	if err != nil {
		t.Fatalf("failed to open settings: %v", err)
	}
	renderer, err := web.NewRenderer()
	if err != nil {
		t.Fatalf("failed to create renderer: %v", err)
	}

	states := state.NewStore()
	handler := NewOverlayHandler(OverlayHandlerOpts{
		State:        states,
		Settings:     settings,
		Renderer:     renderer,
		PollInterval: 2 * time.Second,
	})
	return handler, states
}

func TestOverlayHandler(t *testing.T) {
	t.Run("Overlay Page", func(t *testing.T) {
		handler, states := newTestHandler(t)
		states.SetTrack(state.Snapshot{
			IsPlaying: true,
			Title:     "Test Track",
			Artists:   []string{"First"},
			Progress:  30 * time.Second,
			Duration:  200 * time.Second,
		})

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		body := rec.Body.String()
		if !strings.Contains(body, "--bg-color") {
			t.Error("expected the settings document inlined in the page")
		}
		if !strings.Contains(body, "Test Track") {
			t.Error("expected the current track in the first paint")
		}
		if !strings.Contains(body, "2000") {
			t.Error("expected the poll interval in the refresh script")
		}
	})

	t.Run("Track Partial", func(t *testing.T) {
		t.Run("With A Track", func(t *testing.T) {
			handler, states := newTestHandler(t)
			states.SetTrack(state.Snapshot{IsPlaying: true, Title: "Test Track", Artists: []string{"First"}})

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/track-html", nil))

			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), "Test Track") {
				t.Error("expected the track in the partial")
			}
		})

		t.Run("Idle", func(t *testing.T) {
			handler, _ := newTestHandler(t)

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/track-html", nil))

			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}
			if strings.Contains(rec.Body.String(), "progress") {
				t.Error("expected no progress markup while idle")
			}
		})
	})

	t.Run("Now Playing JSON", func(t *testing.T) {
		handler, states := newTestHandler(t)
		states.SetTrack(state.Snapshot{
			IsPlaying: true,
			Title:     "Test Track",
			Artists:   []string{"First", "Second"},
			Progress:  30 * time.Second,
			Duration:  200 * time.Second,
		})

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/now-playing.json", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if got := rec.Header().Get("Content-Type"); got != "application/json" {
			t.Errorf("expected JSON content type, got %q", got)
		}

		var display formatter.Display
		if err := json.Unmarshal(rec.Body.Bytes(), &display); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if display.Title != "Test Track" || display.Artists != "First, Second" {
			t.Errorf("unexpected payload: %+v", display)
		}
		if display.Elapsed != "0:30" || display.Percent != 15.0 {
			t.Errorf("unexpected progress: %+v", display)
		}
	})

	t.Run("Settings JSON", func(t *testing.T) {
		handler, _ := newTestHandler(t)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/settings.json", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		var vars map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &vars); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if vars["--bg-color"] == "" {
			t.Error("expected the default variables in the response")
		}
	})

	t.Run("Unknown Route", func(t *testing.T) {
		handler, _ := newTestHandler(t)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})
}

func TestBasicRouter(t *testing.T) {
	handler, _ := newTestHandler(t)

	router := NewBasicRouter()
	router.Use(RequestLogger(nil))
	router.Handler(handler)

	server := httptest.NewServer(router)
	defer server.Close()

	resp, err := http.Get(server.URL + "/now-playing.json")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 through the router, got %d", resp.StatusCode)
	}
}
