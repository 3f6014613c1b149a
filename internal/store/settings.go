package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultSettings is the settings document written when none exists.
//
// The variable scheme itself belongs to the presentation layer; the core only
// guarantees atomic read/write of the document. --fade-wait and
// --export-display are the operational values collaborators read.
const DefaultSettings = `:root {
    /* Color Variables */
    --bg-color: #00ff00;
    --text-primary: #eee;
    --text-secondary: #cfcfcf;
    --text-tertiary: #9a9a9a;
    --progress-bg: rgba(255, 0, 0);
    --progress-start: rgba(94, 255, 155);
    --progress-end: rgba(0, 176, 255);
    --card-bg: rgba(30, 30, 30);
    --card-shadow: 0 8px 32px rgba(0, 0, 0);

    /* Card Toggle: set to 'none' to display directly on background, 'flex' to show card */
    --card-display: flex;

    /* Seconds the overlay keeps showing a track after playback stops */
    --fade-wait: 8;

    /* Snapshot export toggle: 'flex' to enable the JSON exporter */
    --export-display: none;
}
`

// SettingsStore provides typed access to the CSS custom-property document.
//
// The on-disk form stays human-editable text; in-memory access never re-parses
// it. Mutations rewrite the whole document atomically (temp file + rename),
// which drops hand-written comments outside the default template.
type SettingsStore struct {
	mu     sync.RWMutex
	path   string
	vars   map[string]string
	order  []string
	logger *log.Logger
}

// OpenSettings loads the settings document at path, creating the default
// document first when none exists.
func OpenSettings(path string, logger *log.Logger) (*SettingsStore, error) {
	s := &SettingsStore{path: path, logger: logger}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.WriteFile(path, []byte(DefaultSettings), 0644); err != nil {
			return nil, fmt.Errorf("failed to create settings document: %w", err)
		}
	}

	if err := s.reload(); err != nil {
		return nil, err
	}

	return s, nil
}

// reload re-parses the on-disk document into the in-memory map.
func (s *SettingsStore) reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("failed to read settings document: %w", err)
	}

	vars := make(map[string]string)
	var order []string

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "--") {
			continue
		}

		name, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}

		name = strings.TrimSpace(name)
		value = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(value), ";"))
		if _, seen := vars[name]; !seen {
			order = append(order, name)
		}
		vars[name] = value
	}

	s.mu.Lock()
	s.vars = vars
	s.order = order
	s.mu.Unlock()

	return nil
}

// Get returns the raw value of a variable.
func (s *SettingsStore) Get(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.vars[name]
	return value, ok
}

// Enabled interprets a display-toggle variable: anything other than "none",
// "false", or "0" counts as enabled.
func (s *SettingsStore) Enabled(name string) bool {
	value, ok := s.Get(name)
	if !ok {
		return false
	}
	switch strings.ToLower(value) {
	case "", "none", "false", "0":
		return false
	}
	return true
}

// Seconds interprets a variable as a duration in whole seconds, falling back
// to def when the variable is absent or malformed.
func (s *SettingsStore) Seconds(name string, def time.Duration) time.Duration {
	value, ok := s.Get(name)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return def
	}
	return time.Duration(n) * time.Second
}

// All returns a copy of the settings map.
func (s *SettingsStore) All() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]string, len(s.vars))
	for k, v := range s.vars {
		out[k] = v
	}
	return out
}

// Document renders the current variables as a CSS :root block for inlining
// into the overlay page.
func (s *SettingsStore) Document() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var b strings.Builder
	b.WriteString(":root {\n")
	for _, name := range s.order {
		fmt.Fprintf(&b, "    %s: %s;\n", name, s.vars[name])
	}
	b.WriteString("}\n")
	return b.String()
}

// Set updates one variable and rewrites the document atomically.
//
// Unknown variables are appended so the presentation layer can introduce new
// ones without a core change.
func (s *SettingsStore) Set(name, value string) error {
	if !strings.HasPrefix(name, "--") {
		return fmt.Errorf("settings variable must start with --, got %q", name)
	}

	s.mu.Lock()
	if _, seen := s.vars[name]; !seen {
		s.order = append(s.order, name)
	}
	s.vars[name] = value
	s.mu.Unlock()

	return s.write()
}

// write persists the document with a temp-file rename so readers never observe
// a torn file.
func (s *SettingsStore) write() error {
	doc := s.Document()

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".settings-*")
	if err != nil {
		return fmt.Errorf("failed to create temp settings file: %w", err)
	}

	if _, err := tmp.WriteString(doc); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close settings file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace settings document: %w", err)
	}

	return nil
}

// Watch reloads the document when another process edits it, until ctx is
// cancelled. Rename events cover editors that replace the file.
func (s *SettingsStore) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create settings watcher: %w", err)
	}

	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch settings directory: %w", err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != s.path {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if err := s.reload(); err != nil {
					if s.logger != nil {
						s.logger.Warn("failed to reload settings document", "error", err)
					}
					continue
				}
				if s.logger != nil {
					s.logger.Debug("settings document reloaded", "path", s.path)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				if s.logger != nil {
					s.logger.Warn("settings watcher error", "error", err)
				}
			}
		}
	}()

	return nil
}
