package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Missing config should yield defaults: %v", err)
	}

	want := Default()
	if cfg != want {
		t.Errorf("Expected defaults %+v, got %+v", want, cfg)
	}
	if !cfg.StrictLoad || !cfg.ArchiveEnabled {
		t.Error("Strict load and archiving should default on")
	}
	if cfg.AgendaWindow != "trailing" {
		t.Errorf("Default window should be trailing, got %q", cfg.AgendaWindow)
	}
}

func TestLoadPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
snapshot_path = "/var/lib/taskbot/snapshot.json"
strict_load = false
agenda_window = "upcoming"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.SnapshotPath != "/var/lib/taskbot/snapshot.json" {
		t.Errorf("snapshot_path not applied: %q", cfg.SnapshotPath)
	}
	if cfg.StrictLoad {
		t.Error("strict_load = false not applied")
	}
	if cfg.AgendaWindow != "upcoming" {
		t.Errorf("agenda_window not applied: %q", cfg.AgendaWindow)
	}
	// Unset fields keep their defaults
	if cfg.SaveRetries != Default().SaveRetries {
		t.Errorf("save_retries should default, got %d", cfg.SaveRetries)
	}
	if !cfg.ArchiveEnabled {
		t.Error("archive_enabled should default on")
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	dir := t.TempDir()

	cases := map[string]string{
		"bad window":   `agenda_window = "sideways"`,
		"bad retries":  `save_retries = -1`,
		"not toml":     `{"json": true}`,
	}
	for name, content := range cases {
		path := filepath.Join(dir, name+".toml")
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write config: %v", err)
		}
		if _, err := Load(path); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}
}
