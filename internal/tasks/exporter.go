package tasks

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/trackcast/internal/formatter"
	"github.com/desertthunder/trackcast/internal/shared"
	"github.com/desertthunder/trackcast/internal/state"
	"github.com/desertthunder/trackcast/internal/store"
)

// exportToggle is the settings variable gating the exporter.
const exportToggle = "--export-display"

// ExporterOpts contains the dependencies for an Exporter.
type ExporterOpts struct {
	State    *state.Store
	Settings *store.SettingsStore
	Path     string
	// Interval is the write cadence (defaults to the poll cadence, 2s).
	Interval time.Duration
	Logger   *log.Logger
}

// Exporter periodically writes the derived display payload to a JSON file for
// external consumers (image renderers, stream decks). It is a pure reader of
// the state store and never mutates anything but its output file.
type Exporter struct {
	state    *state.Store
	settings *store.SettingsStore
	path     string
	interval time.Duration
	logger   *log.Logger
}

// NewExporter creates an Exporter with the provided options.
func NewExporter(opts ExporterOpts) *Exporter {
	if opts.Interval <= 0 {
		opts.Interval = 2 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Path == "" {
		opts.Path = "./now_playing.json"
	}

	return &Exporter{
		state:    opts.State,
		settings: opts.Settings,
		path:     opts.Path,
		interval: opts.Interval,
		logger:   opts.Logger,
	}
}

// Run drives the export loop until ctx is cancelled. The settings toggle is
// re-read every tick so the exporter can be enabled and disabled live.
func (e *Exporter) Run(ctx context.Context) error {
	e.logger.Info("snapshot exporter started", "path", e.path, "interval", e.interval)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("snapshot exporter stopped")
			return nil
		case <-ticker.C:
			if !e.settings.Enabled(exportToggle) {
				continue
			}
			if err := e.Export(); err != nil {
				e.logger.Warn("snapshot export failed", "error", err)
			}
		}
	}
}

// Export writes the current display payload once, via temp file + rename so a
// consumer mid-read never sees a torn document.
func (e *Exporter) Export() error {
	display := formatter.Derive(e.state.Snapshot())

	data, err := shared.MarshalJSON(display, true)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(e.path), ".export-*")
	if err != nil {
		return err
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	return os.Rename(tmp.Name(), e.path)
}
