// Package web renders the overlay page served to broadcasting software.
//
// The page inlines the current settings document as CSS custom properties and
// refreshes its track section by fetching /track-html at the poll cadence, so
// a plain OBS browser source stays live without any client configuration.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/desertthunder/trackcast/internal/formatter"
)

//go:embed templates/*.html
var templateFiles embed.FS

// PageData is the model for the full overlay page.
type PageData struct {
	// Settings is the raw CSS :root block from the settings document.
	Settings string
	Display  formatter.Display
	// PollIntervalMS is how often the page refetches the track partial.
	PollIntervalMS int
}

// Renderer renders the overlay page and its track partial.
type Renderer struct {
	page  *template.Template
	track *template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	page, err := template.ParseFS(templateFiles, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse page template: %w", err)
	}

	track, err := template.ParseFS(templateFiles, "templates/track.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse track template: %w", err)
	}

	return &Renderer{page: page, track: track}, nil
}

// Track renders the track partial for the given display payload.
func (r *Renderer) Track(w io.Writer, display formatter.Display) error {
	return r.track.Execute(w, display)
}

// Page renders the full overlay page with the track partial inlined for the
// first paint.
func (r *Renderer) Page(w io.Writer, data PageData) error {
	var buf bytes.Buffer
	if err := r.Track(&buf, data.Display); err != nil {
		return err
	}

	model := struct {
		Settings       template.CSS
		Track          template.HTML
		PollIntervalMS int
	}{
		Settings:       template.CSS(data.Settings),
		Track:          template.HTML(buf.String()),
		PollIntervalMS: data.PollIntervalMS,
	}

	return r.page.Execute(w, model)
}
