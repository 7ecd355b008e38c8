package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/mzyy94/nelprint/internal/tspl"
)

// Settings holds persisted CLI defaults.
type Settings struct {
	Device  string `json:"device"`
	Density int    `json:"density"`
	Copies  int    `json:"copies"`
}

// DefaultSettings returns the defaults used before anything is saved.
func DefaultSettings() Settings {
	return Settings{
		Device:  "/dev/rfcomm0",
		Density: tspl.MaxDensity,
		Copies:  1,
	}
}

// fillDefaults replaces missing or out-of-range fields so a stale or
// hand-edited file cannot leave the CLI with unusable defaults.
func (s *Settings) fillDefaults() {
	def := DefaultSettings()
	if s.Device == "" {
		s.Device = def.Device
	}
	if s.Density < tspl.MinDensity || s.Density > tspl.MaxDensity {
		s.Density = def.Density
	}
	if s.Copies < 1 {
		s.Copies = def.Copies
	}
}

// DefaultDir resolves the settings directory: NELPRINT_CONFIG_DIR when
// set, otherwise nelprint under the user config dir.
func DefaultDir() (string, error) {
	if dir := os.Getenv("NELPRINT_CONFIG_DIR"); dir != "" {
		return dir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "nelprint"), nil
}

// Store provides thread-safe settings persistence backed by a JSON file.
type Store struct {
	mu       sync.RWMutex
	settings Settings
	path     string
}

// NewStore creates a Store that persists settings to dataDir/settings.json.
// If the file does not exist or is invalid, default settings are used.
func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, err
	}
	s := &Store{
		path:     filepath.Join(dataDir, "settings.json"),
		settings: DefaultSettings(),
	}
	s.load()
	return s, nil
}

// NewMemoryStore creates a Store that keeps settings in memory only (no file persistence).
func NewMemoryStore() *Store {
	return &Store{settings: DefaultSettings()}
}

// Get returns a copy of the current settings.
func (s *Store) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Update replaces the settings and persists to disk.
func (s *Store) Update(settings Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
	return s.save()
}

func (s *Store) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return // file missing is OK, use defaults
	}
	var settings Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		slog.Warn("invalid settings file, using defaults", "path", s.path, "err", err)
		return
	}
	settings.fillDefaults()
	s.settings = settings
}

func (s *Store) save() error {
	if s.path == "" {
		return nil // memory-only mode
	}
	data, err := json.MarshalIndent(s.settings, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
