package tasks

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/desertthunder/trackcast/internal/formatter"
	"github.com/desertthunder/trackcast/internal/state"
	"github.com/desertthunder/trackcast/internal/store"
)

func newTestSettings(t *testing.T) *store.SettingsStore {
	t.Helper()

	settings, err := store.OpenSettings(filepath.Join(t.TempDir(), "styles.css"), nil)
	if err != nil {
		t.Fatalf("failed to open settings: %v", err)
	}
	return settings
}

func TestExporter(t *testing.T) {
	t.Run("Export Writes The Display Payload", func(t *testing.T) {
		states := state.NewStore()
		states.SetTrack(state.Snapshot{
			IsPlaying: true,
			Title:     "Test Track",
			Artists:   []string{"First", "Second"},
			Progress:  30 * time.Second,
			Duration:  200 * time.Second,
		})

		path := filepath.Join(t.TempDir(), "now_playing.json")
		exporter := NewExporter(ExporterOpts{State: states, Settings: newTestSettings(t), Path: path})

		if err := exporter.Export(); err != nil {
			t.Fatalf("failed to export: %v", err)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read export: %v", err)
		}

		var display formatter.Display
		if err := json.Unmarshal(data, &display); err != nil {
			t.Fatalf("export is not valid JSON: %v", err)
		}
		if !display.HasTrack || display.Title != "Test Track" {
			t.Errorf("unexpected payload: %+v", display)
		}
		if display.Artists != "First, Second" {
			t.Errorf("expected joined artists, got %q", display.Artists)
		}
		if display.Percent != 15.0 {
			t.Errorf("expected 15.0 percent, got %v", display.Percent)
		}
	})

	t.Run("Run Honors The Settings Toggle", func(t *testing.T) {
		t.Run("Disabled By Default", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "now_playing.json")
			exporter := NewExporter(ExporterOpts{
				State:    state.NewStore(),
				Settings: newTestSettings(t),
				Path:     path,
				Interval: 5 * time.Millisecond,
			})

			ctx, cancel := context.WithTimeout(context.Background(), 40*time.Millisecond)
			defer cancel()
			exporter.Run(ctx)

			if _, err := os.Stat(path); !os.IsNotExist(err) {
				t.Error("expected no export file while the toggle is off")
			}
		})

		t.Run("Enabled", func(t *testing.T) {
			settings := newTestSettings(t)
			if err := settings.Set("--export-display", "flex"); err != nil {
				t.Fatalf("failed to enable export: %v", err)
			}

			path := filepath.Join(t.TempDir(), "now_playing.json")
			exporter := NewExporter(ExporterOpts{
				State:    state.NewStore(),
				Settings: settings,
				Path:     path,
				Interval: 5 * time.Millisecond,
			})

			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()
			exporter.Run(ctx)

			if _, err := os.Stat(path); err != nil {
				t.Errorf("expected an export file while the toggle is on: %v", err)
			}
		})
	})
}
