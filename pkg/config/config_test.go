package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Compute.DebounceMs != 200 {
		t.Errorf("expected debounce 200ms, got %d", cfg.Compute.DebounceMs)
	}
	if cfg.Compute.WorkerLimit != 1 {
		t.Errorf("expected worker limit 1, got %d", cfg.Compute.WorkerLimit)
	}
	if !cfg.Compute.WatchProject {
		t.Error("expected project watching on by default")
	}
}

func TestDebounceWindow(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.DebounceWindow(); got != 200*time.Millisecond {
		t.Errorf("DebounceWindow = %v, want 200ms", got)
	}

	cfg.Compute.DebounceMs = 0
	if got := cfg.DebounceWindow(); got != 200*time.Millisecond {
		t.Errorf("zero debounce must fall back to default, got %v", got)
	}

	cfg.Compute.DebounceMs = 500
	if got := cfg.DebounceWindow(); got != 500*time.Millisecond {
		t.Errorf("DebounceWindow = %v, want 500ms", got)
	}
}

func TestStrictValidation(t *testing.T) {
	cfg := DefaultConfig()
	if !cfg.StrictValidation(true) {
		t.Error("unset strict must follow the default")
	}
	if cfg.StrictValidation(false) {
		t.Error("unset strict must follow the default")
	}

	off := false
	cfg.Validation.Strict = &off
	if cfg.StrictValidation(true) {
		t.Error("explicit strict: false must win over the default")
	}
}

func TestLoadFrom_NonExistent(t *testing.T) {
	cfg, err := LoadFrom("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	if cfg.Compute.DebounceMs != 200 {
		t.Errorf("expected default config, got debounce %d", cfg.Compute.DebounceMs)
	}
}

func TestLoadFrom_ValidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
recent:
  - name: substation-a
    path: ~/work/substation-a.json
  - name: depot
    path: /absolute/depot.json

graph_path: ~/graphs/custom.yaml

compute:
  debounce_ms: 350
  worker_limit: 2

validation:
  strict: true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(cfg.Recent) != 2 {
		t.Fatalf("expected 2 recent projects, got %d", len(cfg.Recent))
	}
	// Paths should have ~ expanded
	home, _ := os.UserHomeDir()
	expectedPath := filepath.Join(home, "work/substation-a.json")
	if cfg.Recent[0].Path != expectedPath {
		t.Errorf("expected expanded path %q, got %q", expectedPath, cfg.Recent[0].Path)
	}
	if cfg.Recent[1].Path != "/absolute/depot.json" {
		t.Errorf("expected absolute path preserved, got %q", cfg.Recent[1].Path)
	}
	if cfg.GraphPath != filepath.Join(home, "graphs/custom.yaml") {
		t.Errorf("expected expanded graph path, got %q", cfg.GraphPath)
	}

	if cfg.Compute.DebounceMs != 350 {
		t.Errorf("expected debounce 350, got %d", cfg.Compute.DebounceMs)
	}
	if cfg.Compute.WorkerLimit != 2 {
		t.Errorf("expected worker limit 2, got %d", cfg.Compute.WorkerLimit)
	}
	if !cfg.StrictValidation(false) {
		t.Error("expected strict validation enabled")
	}
}

func TestLoadFrom_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	if err := os.WriteFile(path, []byte("{{invalid yaml"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFrom(path)
	if err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestSaveAndLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg := Config{
		Recent: []Project{
			{Name: "proj1", Path: "/path/to/proj1.json"},
			{Name: "proj2", Path: "/path/to/proj2.json"},
		},
		Compute: ComputeConfig{DebounceMs: 150, WorkerLimit: 4},
	}

	if err := SaveTo(cfg, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("Load after save failed: %v", err)
	}

	if len(loaded.Recent) != 2 {
		t.Errorf("expected 2 recent projects, got %d", len(loaded.Recent))
	}
	if loaded.Recent[0].Name != "proj1" {
		t.Errorf("expected 'proj1', got %q", loaded.Recent[0].Name)
	}
	if loaded.Compute.DebounceMs != 150 {
		t.Errorf("expected debounce 150, got %d", loaded.Compute.DebounceMs)
	}
	if loaded.Compute.WorkerLimit != 4 {
		t.Errorf("expected worker limit 4, got %d", loaded.Compute.WorkerLimit)
	}
}

func TestRememberProject(t *testing.T) {
	var cfg Config
	cfg.RememberProject("a", "/a.json")
	cfg.RememberProject("b", "/b.json")
	cfg.RememberProject("a", "/a.json") // re-open moves to front

	if len(cfg.Recent) != 2 {
		t.Fatalf("expected 2 recent entries, got %d", len(cfg.Recent))
	}
	if cfg.Recent[0].Name != "a" || cfg.Recent[1].Name != "b" {
		t.Errorf("recent order = %v", cfg.Recent)
	}

	for i := 0; i < 20; i++ {
		cfg.RememberProject("x", filepath.Join("/proj", string(rune('a'+i))))
	}
	if len(cfg.Recent) != 10 {
		t.Errorf("recent list grew to %d, want capped at 10", len(cfg.Recent))
	}
}

func TestFindRecent(t *testing.T) {
	cfg := Config{
		Recent: []Project{
			{Name: "alpha", Path: "/a"},
			{Name: "Beta", Path: "/b"},
		},
	}

	p := cfg.FindRecent("alpha")
	if p == nil || p.Name != "alpha" {
		t.Error("expected to find 'alpha'")
	}

	// Case-insensitive
	p = cfg.FindRecent("BETA")
	if p == nil || p.Name != "Beta" {
		t.Error("expected to find 'Beta' case-insensitively")
	}

	if cfg.FindRecent("nonexistent") != nil {
		t.Error("expected nil for nonexistent project")
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("cannot determine home dir")
	}

	tests := []struct {
		input    string
		expected string
	}{
		{"~/foo", filepath.Join(home, "foo")},
		{"~/", filepath.Join(home, "")},
		{"/absolute", "/absolute"},
		{"relative", "relative"},
	}

	for _, tt := range tests {
		got := expandHome(tt.input)
		if got != tt.expected {
			t.Errorf("expandHome(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestConfigDir_XDGOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	got := ConfigDir()
	expected := filepath.Join(dir, "ampdesk")
	if got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
}

func TestDataDir_XDGOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)

	got := DataDir()
	expected := filepath.Join(dir, "ampdesk")
	if got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
}

func TestStateDir_XDGOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_STATE_HOME", dir)

	got := StateDir()
	expected := filepath.Join(dir, "ampdesk")
	if got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
}
