// Package config loads taskbot's TOML configuration.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config holds the runtime settings. Zero values are filled with defaults
// by Load, so a missing file or a partial file both work.
type Config struct {
	// SnapshotPath is where the JSON snapshot lives.
	SnapshotPath string `toml:"snapshot_path"`
	// ArchivePath is the sqlite database holding snapshot history.
	ArchivePath string `toml:"archive_path"`
	// ArchiveEnabled turns snapshot history on.
	ArchiveEnabled bool `toml:"archive_enabled"`
	// StrictLoad makes a corrupt snapshot fatal at startup instead of
	// silently starting with an empty store.
	StrictLoad bool `toml:"strict_load"`
	// SaveRetries is how many extra attempts a failed snapshot write gets.
	SaveRetries int `toml:"save_retries"`
	// AgendaWindow is "trailing" (default) or "upcoming".
	AgendaWindow string `toml:"agenda_window"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		SnapshotPath:   ".taskbot/snapshot.json",
		ArchivePath:    ".taskbot/archive.db",
		ArchiveEnabled: true,
		StrictLoad:     true,
		SaveRetries:    3,
		AgendaWindow:   "trailing",
	}
}

// Load reads the config file at path. A missing file yields the defaults;
// a present but malformed file is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if cfg.AgendaWindow != "trailing" && cfg.AgendaWindow != "upcoming" {
		return Config{}, fmt.Errorf("invalid agenda_window %q (want trailing or upcoming)", cfg.AgendaWindow)
	}
	if cfg.SaveRetries < 0 {
		return Config{}, fmt.Errorf("save_retries must not be negative")
	}

	return cfg, nil
}
