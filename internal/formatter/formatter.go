// package formatter derives the read-only display payload served to the
// overlay page, the JSON endpoint, and the snapshot exporter.
package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/trackcast/internal/state"
)

// Display is the derived presentation payload. It is recomputed on every query
// from the immutable snapshot copy, so two queries with no intervening poll
// produce identical output.
type Display struct {
	HasTrack   bool   `json:"has_track"`
	IsPlaying  bool   `json:"is_playing"`
	Title      string `json:"title,omitempty"`
	Artists    string `json:"artists,omitempty"`
	Album      string `json:"album,omitempty"`
	ArtworkURL string `json:"artwork_url,omitempty"`
	Elapsed    string `json:"elapsed,omitempty"`
	Total      string `json:"total,omitempty"`
	// Percent is playback progress clamped to [0, 100].
	Percent float64 `json:"percent"`
	// LastPlayingAt feeds the client-side fade-out timer.
	LastPlayingAt *time.Time `json:"last_playing_at,omitempty"`
	// LastPolledAt lets consumers show staleness during provider outages.
	LastPolledAt time.Time `json:"last_polled_at,omitzero"`
}

// FormatTime renders a duration as M:SS with unbounded minutes
// (125s -> "2:05", 3600s -> "60:00").
func FormatTime(d time.Duration) string {
	seconds := int(d / time.Second)
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// ProgressPercent returns min(100, progress/duration*100). A zero or missing
// duration falls back to a divisor of 1 rather than dividing by zero, and the
// clamp then caps the result at 100.
func ProgressPercent(progress, duration time.Duration) float64 {
	if duration <= 0 {
		duration = 1
	}
	pct := float64(progress) / float64(duration) * 100
	if pct > 100 {
		return 100
	}
	if pct < 0 {
		return 0
	}
	return pct
}

// Derive computes the display payload from a snapshot.
//
// IsPlaying is forced false whenever HasTrack is false, regardless of what the
// snapshot stores, so no consumer can misread an idle snapshot as playing.
func Derive(snap state.Snapshot) Display {
	d := Display{
		HasTrack:      snap.HasTrack,
		LastPlayingAt: snap.LastPlayingAt,
		LastPolledAt:  snap.LastPolledAt,
	}

	if !snap.HasTrack {
		return d
	}

	d.IsPlaying = snap.IsPlaying
	d.Title = snap.Title
	d.Artists = strings.Join(snap.Artists, ", ")
	d.Album = snap.Album
	d.ArtworkURL = snap.ArtworkURL
	d.Elapsed = FormatTime(snap.Progress)
	d.Total = FormatTime(snap.Duration)
	d.Percent = ProgressPercent(snap.Progress, snap.Duration)
	return d
}
